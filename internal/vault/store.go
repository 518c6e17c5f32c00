package vault

import (
	"context"
	"iter"
	"net/url"
	"strings"

	"github.com/dimitrije/passop-api/internal/models"
	"github.com/google/uuid"
)

// Column limits shared by every store.
const (
	MaxWebsiteLength  = 255
	MaxUsernameLength = 255
	MaxURLLength      = 2048
)

// CredentialStore is owner-scoped persistence over ciphertext. Every
// operation filters by owner; a record held by another owner is reported as
// ErrNotFound exactly like a missing one. Stores never see plaintext secrets.
type CredentialStore interface {
	Create(ctx context.Context, owner Owner, fields NewCredential) (*models.Credential, error)
	// List yields the owner's records newest first. Each range over the
	// returned sequence reads a fresh snapshot.
	List(ctx context.Context, owner Owner) iter.Seq2[models.Credential, error]
	Get(ctx context.Context, owner Owner, id uuid.UUID) (*models.Credential, error)
	Update(ctx context.Context, owner Owner, id uuid.UUID, patch CredentialPatch) error
	Delete(ctx context.Context, owner Owner, id uuid.UUID) error
}

type NewCredential struct {
	Website          string
	Username         string
	SecretCiphertext string
	URL              *string
}

func (f NewCredential) Validate() error {
	errs := fieldErrors{}
	checkText(errs, "website", f.Website, MaxWebsiteLength)
	checkText(errs, "username", f.Username, MaxUsernameLength)
	if f.SecretCiphertext == "" {
		errs.add("secret", "is required")
	}
	checkURL(errs, f.URL)
	return errs.err()
}

// CredentialPatch lists the fields to change; nil fields are left untouched.
// A non-nil empty URL clears it.
type CredentialPatch struct {
	Website          *string
	Username         *string
	SecretCiphertext *string
	URL              *string
}

func (p CredentialPatch) IsEmpty() bool {
	return p.Website == nil && p.Username == nil && p.SecretCiphertext == nil && p.URL == nil
}

func (p CredentialPatch) Validate() error {
	if p.IsEmpty() {
		return &ValidationError{Fields: map[string]string{"body": "no fields to update"}}
	}
	errs := fieldErrors{}
	if p.Website != nil {
		checkText(errs, "website", *p.Website, MaxWebsiteLength)
	}
	if p.Username != nil {
		checkText(errs, "username", *p.Username, MaxUsernameLength)
	}
	if p.SecretCiphertext != nil && *p.SecretCiphertext == "" {
		errs.add("secret", "must not be empty")
	}
	checkURL(errs, p.URL)
	return errs.err()
}

func checkText(errs fieldErrors, field, value string, limit int) {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		errs.add(field, "is required")
	case len(v) > limit:
		errs.add(field, "is too long")
	}
}

func checkURL(errs fieldErrors, value *string) {
	if value == nil || *value == "" {
		return
	}
	if len(*value) > MaxURLLength {
		errs.add("url", "is too long")
		return
	}
	u, err := url.Parse(*value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.add("url", "must be an absolute http(s) url")
	}
}
