package vault

import (
	"context"

	"github.com/dimitrije/passop-api/internal/models"
	"github.com/google/uuid"
)

// Owner is an authenticated identity. It is only ever produced by an
// AccessGate, never from client-supplied fields.
type Owner struct {
	ID    uuid.UUID
	Email string
}

func (o Owner) IsZero() bool {
	return o.ID == uuid.Nil
}

// associatedData binds ciphertext to its owner.
func (o Owner) associatedData() []byte {
	return o.ID[:]
}

// AccessGate maps a session token to an Owner. Implementations return an
// error wrapping ErrUnauthenticated for a missing, invalid, or expired
// session, and must honor ctx deadlines.
type AccessGate interface {
	Authenticate(ctx context.Context, sessionToken string) (Owner, error)
}

// Authorize reports whether owner may act on a record held by credentialOwner.
func Authorize(owner, credentialOwner Owner) bool {
	return !owner.IsZero() && owner.ID == credentialOwner.ID
}

// OwnerOf returns the owner recorded on a stored credential.
func OwnerOf(c *models.Credential) Owner {
	return Owner{ID: c.OwnerID}
}
