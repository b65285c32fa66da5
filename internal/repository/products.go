package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/storefront/internal/model"
)

const productColumns = `id, type, title, description, price, created_at`

func scanProduct(row scanner) (*model.Product, error) {
	var (
		p   model.Product
		typ string
	)
	if err := row.Scan(&p.ID, &typ, &p.Title, &p.Description, &p.Price, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Type = model.ProductType(typ)
	return &p, nil
}

func insertProduct(ctx context.Context, tx pgx.Tx, p *model.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return tx.QueryRow(ctx,
		`INSERT INTO products (id, type, title, description, price) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		p.ID, string(p.Type), p.Title, p.Description, p.Price,
	).Scan(&p.CreatedAt)
}

// CreateEvent сохраняет товар типа event вместе с параметрами события.
func (r *PostgresRepository) CreateEvent(ctx context.Context, p *model.Product, d *model.EventDetails) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeError("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := insertProduct(ctx, tx, p); err != nil {
		return storeError("insert product", err)
	}

	d.ProductID = p.ID
	_, err = tx.Exec(ctx,
		`INSERT INTO event_details (product_id, event_date, duration_minutes, capacity, location, meeting_url)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ProductID, d.EventDate, d.DurationMinutes, d.Capacity, d.Location, d.MeetingURL,
	)
	if err != nil {
		return storeError("insert event details", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storeError("commit tx", err)
	}
	return nil
}

// CreateDigitalContent сохраняет товар типа digital_content вместе с данными о файле.
func (r *PostgresRepository) CreateDigitalContent(ctx context.Context, p *model.Product, d *model.DigitalContentDetails) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeError("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := insertProduct(ctx, tx, p); err != nil {
		return storeError("insert product", err)
	}

	d.ProductID = p.ID
	_, err = tx.Exec(ctx,
		`INSERT INTO digital_content_details (product_id, file_name, file_url) VALUES ($1, $2, $3)`,
		d.ProductID, d.FileName, d.FileURL,
	)
	if err != nil {
		return storeError("insert digital content details", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storeError("commit tx", err)
	}
	return nil
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, fmt.Errorf("%w: product %s", model.ErrNotFound, id)
		}
		return nil, storeError("get product", err)
	}
	return p, nil
}

// ListProducts возвращает товары, начиная с самых новых. Пустой тип означает все товары.
func (r *PostgresRepository) ListProducts(ctx context.Context, typ model.ProductType) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE $1::text = '' OR type = $1::text
		 ORDER BY created_at DESC`,
		string(typ),
	)
	if err != nil {
		return nil, storeError("select products", err)
	}
	defer rows.Close()

	var res []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, storeError("scan product", err)
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("rows error", err)
	}
	return res, nil
}

// UpdateProduct обновляет название, описание и цену товара. Цены существующих покупок не меняются.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET title = $2, description = $3, price = $4 WHERE id = $1`,
		p.ID, p.Title, p.Description, p.Price,
	)
	if err != nil {
		if isMalformedID(err) {
			return fmt.Errorf("%w: product %s", model.ErrNotFound, p.ID)
		}
		return storeError("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", model.ErrNotFound, p.ID)
	}
	return nil
}

// DeleteProduct удаляет товар. Детали и покупки удаляются каскадно.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isMalformedID(err) {
			return fmt.Errorf("%w: product %s", model.ErrNotFound, id)
		}
		return storeError("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", model.ErrNotFound, id)
	}
	return nil
}

// GetEventDetails возвращает параметры события для товара.
func (r *PostgresRepository) GetEventDetails(ctx context.Context, productID string) (*model.EventDetails, error) {
	var d model.EventDetails
	err := r.pool.QueryRow(ctx,
		`SELECT product_id, event_date, duration_minutes, capacity, location, meeting_url
		 FROM event_details WHERE product_id = $1`,
		productID,
	).Scan(&d.ProductID, &d.EventDate, &d.DurationMinutes, &d.Capacity, &d.Location, &d.MeetingURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, fmt.Errorf("%w: event details %s", model.ErrNotFound, productID)
		}
		return nil, storeError("get event details", err)
	}
	return &d, nil
}

// UpdateEventDetails обновляет параметры события.
func (r *PostgresRepository) UpdateEventDetails(ctx context.Context, d *model.EventDetails) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE event_details
		 SET event_date = $2, duration_minutes = $3, capacity = $4, location = $5, meeting_url = $6
		 WHERE product_id = $1`,
		d.ProductID, d.EventDate, d.DurationMinutes, d.Capacity, d.Location, d.MeetingURL,
	)
	if err != nil {
		if isMalformedID(err) {
			return fmt.Errorf("%w: event details %s", model.ErrNotFound, d.ProductID)
		}
		return storeError("update event details", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: event details %s", model.ErrNotFound, d.ProductID)
	}
	return nil
}

// GetDigitalContentDetails возвращает данные о файле цифрового материала.
func (r *PostgresRepository) GetDigitalContentDetails(ctx context.Context, productID string) (*model.DigitalContentDetails, error) {
	var d model.DigitalContentDetails
	err := r.pool.QueryRow(ctx,
		`SELECT product_id, file_name, file_url FROM digital_content_details WHERE product_id = $1`,
		productID,
	).Scan(&d.ProductID, &d.FileName, &d.FileURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, fmt.Errorf("%w: digital content %s", model.ErrNotFound, productID)
		}
		return nil, storeError("get digital content details", err)
	}
	return &d, nil
}

// UpdateDigitalContentDetails заменяет ссылку на файл цифрового материала.
func (r *PostgresRepository) UpdateDigitalContentDetails(ctx context.Context, d *model.DigitalContentDetails) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE digital_content_details SET file_name = $2, file_url = $3 WHERE product_id = $1`,
		d.ProductID, d.FileName, d.FileURL,
	)
	if err != nil {
		if isMalformedID(err) {
			return fmt.Errorf("%w: digital content %s", model.ErrNotFound, d.ProductID)
		}
		return storeError("update digital content details", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: digital content %s", model.ErrNotFound, d.ProductID)
	}
	return nil
}
