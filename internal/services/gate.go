package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dimitrije/passop-api/internal/models"
	"github.com/dimitrije/passop-api/internal/vault"
	"github.com/google/uuid"
)

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionGate is the vault.AccessGate for bearer access tokens. A token is
// accepted only while its user still exists.
type SessionGate struct {
	jwt     *JWTService
	users   UserLookup
	timeout time.Duration
}

var _ vault.AccessGate = (*SessionGate)(nil)

func NewSessionGate(jwt *JWTService, users UserLookup, timeout time.Duration) *SessionGate {
	return &SessionGate{jwt: jwt, users: users, timeout: timeout}
}

func (g *SessionGate) Authenticate(ctx context.Context, sessionToken string) (vault.Owner, error) {
	claims, err := g.jwt.ValidateAccessToken(sessionToken)
	if err != nil {
		return vault.Owner{}, fmt.Errorf("%w: %v", vault.ErrUnauthenticated, err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return vault.Owner{}, fmt.Errorf("%w: user lookup: %v", vault.ErrUnauthenticated, err)
	}
	return vault.Owner{ID: user.ID, Email: user.Email}, nil
}
