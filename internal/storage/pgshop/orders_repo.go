package pgshop

import (
	"context"
	"time"

	"github.com/ZenGummies/ShopBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const pgUniqueViolation = "23505"

const orderColumns = `
  id, order_number,
  name, email, phone,
  bundle, bundle_name, price, gummies, days,
  status, notes,
  created_at, updated_at`

func (s *Storage) CreateOrder(ctx context.Context, in models.OrderCreateInput, orderNumber string) (*models.Order, error) {
	now := time.Now().UTC()

	var o models.Order
	err := s.db.QueryRow(ctx, `
INSERT INTO orders (
  order_number, name, email, phone,
  bundle, bundle_name, price, gummies, days,
  status, notes, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'',$11,$11)
RETURNING`+orderColumns,
		orderNumber, in.Name, in.Email, in.Phone,
		in.Bundle, in.BundleName, in.Price, in.Gummies, in.Days,
		models.OrderStatusPending, now,
	).Scan(
		&o.ID, &o.OrderNumber,
		&o.Name, &o.Email, &o.Phone,
		&o.Bundle, &o.BundleName, &o.Price, &o.Gummies, &o.Days,
		&o.Status, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrOrderNumberTaken
		}
		return nil, errors.Wrap(err, "insert order")
	}
	return &o, nil
}

func (s *Storage) ListOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+orderColumns+`
FROM orders
ORDER BY created_at DESC, id DESC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	defer rows.Close()

	out := []*models.Order{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber,
			&o.Name, &o.Email, &o.Phone,
			&o.Bundle, &o.BundleName, &o.Price, &o.Gummies, &o.Days,
			&o.Status, &o.Notes,
			&o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, &o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) GetOrderByID(ctx context.Context, id uint64) (*models.Order, error) {
	var o models.Order
	err := s.db.QueryRow(ctx, `
SELECT`+orderColumns+`
FROM orders
WHERE id = $1
`, id).Scan(
		&o.ID, &o.OrderNumber,
		&o.Name, &o.Email, &o.Phone,
		&o.Bundle, &o.BundleName, &o.Price, &o.Gummies, &o.Days,
		&o.Status, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order")
	}
	return &o, nil
}

// UpdateOrder applies only the fields present in the patch. updated_at is
// refreshed on every call, even for an empty patch.
func (s *Storage) UpdateOrder(ctx context.Context, id uint64, patch models.OrderPatch) (*models.Order, error) {
	var o models.Order
	err := s.db.QueryRow(ctx, `
UPDATE orders
SET
  status = COALESCE($2, status),
  notes = COALESCE($3, notes),
  updated_at = now()
WHERE id = $1
RETURNING`+orderColumns,
		id, patch.Status, patch.Notes,
	).Scan(
		&o.ID, &o.OrderNumber,
		&o.Name, &o.Email, &o.Phone,
		&o.Bundle, &o.BundleName, &o.Price, &o.Gummies, &o.Days,
		&o.Status, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return &o, nil
}

func (s *Storage) DeleteOrder(ctx context.Context, id uint64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
