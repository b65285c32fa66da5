package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/storefront/internal/model"
)

const purchaseColumns = `id, product_id, customer_name, customer_email, customer_phone, customer_address,
	original_price, final_price, discount_code, payment_method, payment_status, payment_date, created_at`

func scanPurchase(row scanner) (*model.Purchase, error) {
	var (
		p      model.Purchase
		method string
		status string
	)
	err := row.Scan(
		&p.ID, &p.ProductID, &p.CustomerName, &p.CustomerEmail, &p.CustomerPhone, &p.CustomerAddress,
		&p.OriginalPrice, &p.FinalPrice, &p.DiscountCode, &method, &status, &p.PaymentDate, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.PaymentMethod = model.PaymentMethod(method)
	p.PaymentStatus = model.PaymentStatus(status)
	return &p, nil
}

func collectPurchases(rows pgx.Rows) ([]model.Purchase, error) {
	defer rows.Close()

	var res []model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, storeError("scan purchase", err)
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("rows error", err)
	}
	return res, nil
}

// CreatePurchase сохраняет покупку в статусе pending. Строка товара блокируется до конца
// транзакции, поэтому проверка вместимости события и вставка выполняются атомарно
// относительно других покупок того же товара.
func (r *PostgresRepository) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeError("begin tx", err)
	}
	defer tx.Rollback(ctx)

	var dummy int
	err = tx.QueryRow(ctx, `SELECT 1 FROM products WHERE id = $1 FOR UPDATE`, p.ProductID).Scan(&dummy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return fmt.Errorf("%w: product %s", model.ErrNotFound, p.ProductID)
		}
		return storeError("lock product for update", err)
	}

	var capacity *int
	err = tx.QueryRow(ctx, `SELECT capacity FROM event_details WHERE product_id = $1`, p.ProductID).Scan(&capacity)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return storeError("select capacity", err)
	}

	if capacity != nil {
		var taken int
		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE product_id = $1`, p.ProductID).Scan(&taken)
		if err != nil {
			return storeError("count purchases", err)
		}
		if taken >= *capacity {
			return fmt.Errorf("%w: product %s has %d of %d seats taken", model.ErrCapacityExceeded, p.ProductID, taken, *capacity)
		}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.PaymentStatus = model.PaymentStatusPending
	p.PaymentDate = nil

	err = tx.QueryRow(ctx,
		`INSERT INTO purchases (id, product_id, customer_name, customer_email, customer_phone, customer_address,
			original_price, final_price, discount_code, payment_method, payment_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at`,
		p.ID, p.ProductID, p.CustomerName, p.CustomerEmail, p.CustomerPhone, p.CustomerAddress,
		p.OriginalPrice, p.FinalPrice, p.DiscountCode, string(p.PaymentMethod), string(p.PaymentStatus),
	).Scan(&p.CreatedAt)
	if err != nil {
		return storeError("insert purchase", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storeError("commit tx", err)
	}
	return nil
}

// FinalizePurchase переводит покупку из pending в терминальный статус.
// Обновление условное, поэтому повторное завершение не меняет запись.
func (r *PostgresRepository) FinalizePurchase(ctx context.Context, id string, status model.PaymentStatus, paymentDate *time.Time) (*model.Purchase, error) {
	p, err := scanPurchase(r.pool.QueryRow(ctx,
		`UPDATE purchases
		 SET payment_status = $2, payment_date = $3
		 WHERE id = $1 AND payment_status = $4
		 RETURNING `+purchaseColumns,
		id, string(status), paymentDate, string(model.PaymentStatusPending),
	))
	if err == nil {
		return p, nil
	}
	if isMalformedID(err) {
		return nil, fmt.Errorf("%w: purchase %s", model.ErrNotFound, id)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeError("finalize purchase", err)
	}

	var current string
	err = r.pool.QueryRow(ctx, `SELECT payment_status FROM purchases WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: purchase %s", model.ErrNotFound, id)
		}
		return nil, storeError("select purchase status", err)
	}
	return nil, fmt.Errorf("%w: purchase %s is %s", model.ErrInvalidTransition, id, current)
}

// GetPurchase возвращает покупку по идентификатору.
func (r *PostgresRepository) GetPurchase(ctx context.Context, id string) (*model.Purchase, error) {
	p, err := scanPurchase(r.pool.QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, fmt.Errorf("%w: purchase %s", model.ErrNotFound, id)
		}
		return nil, storeError("get purchase", err)
	}
	return p, nil
}

// ListPurchases возвращает все покупки, начиная с самых новых.
func (r *PostgresRepository) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+purchaseColumns+` FROM purchases ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, storeError("select purchases", err)
	}
	return collectPurchases(rows)
}

// ListPurchasesByProduct возвращает покупки товара, начиная с самых новых.
func (r *PostgresRepository) ListPurchasesByProduct(ctx context.Context, productID string) ([]model.Purchase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+purchaseColumns+`
		 FROM purchases
		 WHERE product_id = $1
		 ORDER BY created_at DESC`,
		productID,
	)
	if err != nil {
		return nil, storeError("select purchases by product", err)
	}
	return collectPurchases(rows)
}

// CountPurchases возвращает число покупок товара в любом статусе.
func (r *PostgresRepository) CountPurchases(ctx context.Context, productID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM purchases WHERE product_id = $1`, productID,
	).Scan(&n)
	if err != nil {
		if isMalformedID(err) {
			return 0, nil
		}
		return 0, storeError("count purchases", err)
	}
	return n, nil
}

// CountPendingBefore возвращает число покупок в статусе pending, созданных раньше указанного момента.
func (r *PostgresRepository) CountPendingBefore(ctx context.Context, before time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM purchases WHERE payment_status = $1 AND created_at < $2`,
		string(model.PaymentStatusPending), before,
	).Scan(&n)
	if err != nil {
		return 0, storeError("count pending purchases", err)
	}
	return n, nil
}
