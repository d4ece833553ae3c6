package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/ZenGummies/ShopBox/internal/models"
	"github.com/pkg/errors"
)

var ErrBadCredentials = errors.New("bad credentials")

type UserSource interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Gate authenticates the single allow-listed operator: the email must match
// the configured admin and exist in the users table, and the password is
// compared against the server-held secret. Deliberately not per-user hashed
// storage; this is a one-operator site.
type Gate struct {
	adminEmail    string
	adminPassword string
	users         UserSource
}

func NewGate(adminEmail, adminPassword string, users UserSource) *Gate {
	return &Gate{
		adminEmail:    strings.ToLower(strings.TrimSpace(adminEmail)),
		adminPassword: adminPassword,
		users:         users,
	}
}

func (g *Gate) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(g.adminEmail)) == 1
	passOK := g.adminPassword != "" &&
		subtle.ConstantTimeCompare([]byte(password), []byte(g.adminPassword)) == 1
	if !emailOK || !passOK {
		return nil, ErrBadCredentials
	}

	u, err := g.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCredentials
	}
	if u.Role != models.RoleAdmin {
		return nil, ErrBadCredentials
	}
	return u, nil
}
