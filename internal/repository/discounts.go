package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/storefront/internal/model"
)

const discountColumns = `id, code, discount_percentage, active, created_at`

func scanDiscountCode(row scanner) (*model.DiscountCode, error) {
	var d model.DiscountCode
	if err := row.Scan(&d.ID, &d.Code, &d.DiscountPercentage, &d.Active, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDiscountCode сохраняет новый код скидки. Код должен быть уже нормализован.
func (r *PostgresRepository) CreateDiscountCode(ctx context.Context, d *model.DiscountCode) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO discount_codes (id, code, discount_percentage, active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		d.ID, d.Code, d.DiscountPercentage, d.Active,
	).Scan(&d.CreatedAt)
	if err != nil {
		if pgCode(err) == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: discount code %s", model.ErrConflict, d.Code)
		}
		return storeError("insert discount code", err)
	}
	return nil
}

// GetDiscountCode возвращает код скидки по точному совпадению.
func (r *PostgresRepository) GetDiscountCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	d, err := scanDiscountCode(r.pool.QueryRow(ctx,
		`SELECT `+discountColumns+` FROM discount_codes WHERE code = $1`, code,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: discount code %s", model.ErrNotFound, code)
		}
		return nil, storeError("get discount code", err)
	}
	return d, nil
}

// ListDiscountCodes возвращает все коды скидок, начиная с самых новых.
func (r *PostgresRepository) ListDiscountCodes(ctx context.Context) ([]model.DiscountCode, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+discountColumns+` FROM discount_codes ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, storeError("select discount codes", err)
	}
	defer rows.Close()

	var res []model.DiscountCode
	for rows.Next() {
		d, err := scanDiscountCode(rows)
		if err != nil {
			return nil, storeError("scan discount code", err)
		}
		res = append(res, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("rows error", err)
	}
	return res, nil
}

// ToggleDiscountCode инвертирует флаг активности кода скидки.
func (r *PostgresRepository) ToggleDiscountCode(ctx context.Context, id string) (*model.DiscountCode, error) {
	d, err := scanDiscountCode(r.pool.QueryRow(ctx,
		`UPDATE discount_codes SET active = NOT active WHERE id = $1 RETURNING `+discountColumns, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, fmt.Errorf("%w: discount code %s", model.ErrNotFound, id)
		}
		return nil, storeError("toggle discount code", err)
	}
	return d, nil
}
