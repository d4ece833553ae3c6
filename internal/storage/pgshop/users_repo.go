package pgshop

import (
	"context"
	"time"

	"github.com/ZenGummies/ShopBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// EnsureAdminUser creates the allow-listed admin if absent. Returns the
// user and whether a row was created. Safe to call repeatedly.
func (s *Storage) EnsureAdminUser(ctx context.Context, email, name string) (*models.User, bool, error) {
	now := time.Now().UTC()

	var u models.User
	var inserted bool
	err := s.db.QueryRow(ctx, `
INSERT INTO users (email, name, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (email)
DO UPDATE SET updated_at = users.updated_at
RETURNING id, email, name, role, created_at, updated_at, (xmax = 0)
`, email, name, models.RoleAdmin, now).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, false, errors.Wrap(err, "ensure admin user")
	}
	return &u, inserted, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx, `
SELECT id, email, name, role, created_at, updated_at
FROM users
WHERE email = $1
`, email).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select user")
	}
	return &u, nil
}
