package middleware

import (
	"errors"
	"strings"

	"github.com/dimitrije/passop-api/internal/vault"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const OwnerKey = "owner"

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

// BearerToken extracts the session token from the Authorization header.
func BearerToken(c *drift.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidAuthHeader
	}
	return strings.TrimSpace(parts[1]), nil
}

// Auth resolves the bearer token to an Owner through the gate and stores
// it on the context.
func Auth(gate vault.AccessGate) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, err := BearerToken(c)
		if err != nil {
			c.Unauthorized(err.Error())
			return
		}

		owner, err := gate.Authenticate(c.Request.Context(), token)
		if err != nil || owner.IsZero() {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(OwnerKey, owner)
		c.Next()
	}
}

func GetOwner(c *drift.Context) vault.Owner {
	if v, ok := c.Get(OwnerKey); ok {
		if owner, ok := v.(vault.Owner); ok {
			return owner
		}
	}
	return vault.Owner{}
}

func GetUserID(c *drift.Context) uuid.UUID {
	return GetOwner(c).ID
}
