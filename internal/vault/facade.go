// Package vault is the credential access layer: it authenticates the caller,
// scopes every read and write to that caller, and keeps secrets encrypted
// everywhere outside a single request.
package vault

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/dimitrije/passop-api/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SecretCipher is satisfied by *cipher.Cipher.
type SecretCipher interface {
	Encrypt(plaintext string, associatedData []byte) (string, error)
	Decrypt(ciphertext string, associatedData []byte) (string, error)
}

type AddInput struct {
	Website  string
	Username string
	Password string
	URL      *string
}

// UpdateInput holds the fields to change; nil means unchanged.
type UpdateInput struct {
	Website  *string
	Username *string
	Password *string
	URL      *string
}

// Summary never carries the secret.
type Summary struct {
	ID        uuid.UUID
	Website   string
	Username  string
	URL       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Detail struct {
	Summary
	Password string
}

type Facade struct {
	gate   AccessGate
	store  CredentialStore
	cipher SecretCipher
	log    zerolog.Logger
}

func NewFacade(gate AccessGate, store CredentialStore, cipher SecretCipher, log zerolog.Logger) *Facade {
	return &Facade{
		gate:   gate,
		store:  store,
		cipher: cipher,
		log:    log.With().Str("component", "vault").Logger(),
	}
}

func (f *Facade) AddCredential(ctx context.Context, sessionToken string, in AddInput) (*Summary, error) {
	owner, err := f.authenticate(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	in.Website = strings.TrimSpace(in.Website)
	in.Username = strings.TrimSpace(in.Username)
	in.URL = trimmed(in.URL)
	if err := validateAdd(in); err != nil {
		return nil, err
	}

	ciphertext, err := f.encrypt(owner, in.Password)
	if err != nil {
		return nil, err
	}

	cred, err := f.store.Create(ctx, owner, NewCredential{
		Website:          in.Website,
		Username:         in.Username,
		SecretCiphertext: ciphertext,
		URL:              in.URL,
	})
	if err != nil {
		return nil, f.storeError(owner, "create", err)
	}

	f.log.Info().Str("owner_id", owner.ID.String()).Str("credential_id", cred.ID.String()).Msg("credential added")
	summary := toSummary(cred)
	return &summary, nil
}

// ListCredentials authenticates eagerly and returns a lazy sequence. A
// non-empty query keeps entries whose website or username contains it,
// case-insensitively.
func (f *Facade) ListCredentials(ctx context.Context, sessionToken, query string) (iter.Seq2[Summary, error], error) {
	owner, err := f.authenticate(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	return func(yield func(Summary, error) bool) {
		for cred, err := range f.store.List(ctx, owner) {
			if err != nil {
				yield(Summary{}, f.storeError(owner, "list", err))
				return
			}
			if !Authorize(owner, OwnerOf(&cred)) {
				continue
			}
			if needle != "" && !matches(&cred, needle) {
				continue
			}
			if !yield(toSummary(&cred), nil) {
				return
			}
		}
	}, nil
}

func (f *Facade) GetCredential(ctx context.Context, sessionToken string, id uuid.UUID) (*Detail, error) {
	owner, err := f.authenticate(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	cred, err := f.store.Get(ctx, owner, id)
	if err != nil {
		return nil, f.storeError(owner, "get", err)
	}
	if !Authorize(owner, OwnerOf(cred)) {
		return nil, ErrNotFound
	}

	password, err := f.cipher.Decrypt(cred.Secret, owner.associatedData())
	if err != nil {
		f.log.Error().Err(err).Str("owner_id", owner.ID.String()).Str("credential_id", id.String()).Msg("decrypt failed")
		return nil, ErrCipher
	}

	return &Detail{Summary: toSummary(cred), Password: password}, nil
}

func (f *Facade) UpdateCredential(ctx context.Context, sessionToken string, id uuid.UUID, in UpdateInput) error {
	owner, err := f.authenticate(ctx, sessionToken)
	if err != nil {
		return err
	}

	patch := CredentialPatch{
		Website:  trimmed(in.Website),
		Username: trimmed(in.Username),
		URL:      trimmed(in.URL),
	}
	if err := validateUpdate(patch, in.Password); err != nil {
		return err
	}
	if in.Password != nil {
		ciphertext, err := f.encrypt(owner, *in.Password)
		if err != nil {
			return err
		}
		patch.SecretCiphertext = &ciphertext
	}

	if err := f.store.Update(ctx, owner, id, patch); err != nil {
		return f.storeError(owner, "update", err)
	}

	f.log.Info().Str("owner_id", owner.ID.String()).Str("credential_id", id.String()).Bool("secret_changed", in.Password != nil).Msg("credential updated")
	return nil
}

func (f *Facade) RemoveCredential(ctx context.Context, sessionToken string, id uuid.UUID) error {
	owner, err := f.authenticate(ctx, sessionToken)
	if err != nil {
		return err
	}

	if err := f.store.Delete(ctx, owner, id); err != nil {
		return f.storeError(owner, "delete", err)
	}

	f.log.Info().Str("owner_id", owner.ID.String()).Str("credential_id", id.String()).Msg("credential removed")
	return nil
}

func (f *Facade) authenticate(ctx context.Context, sessionToken string) (Owner, error) {
	if sessionToken == "" {
		return Owner{}, ErrUnauthenticated
	}
	owner, err := f.gate.Authenticate(ctx, sessionToken)
	if err != nil {
		f.log.Debug().Err(err).Msg("authentication rejected")
		return Owner{}, ErrUnauthenticated
	}
	if owner.IsZero() {
		return Owner{}, ErrUnauthenticated
	}
	return owner, nil
}

func (f *Facade) encrypt(owner Owner, password string) (string, error) {
	ciphertext, err := f.cipher.Encrypt(password, owner.associatedData())
	if err != nil {
		f.log.Error().Err(err).Str("owner_id", owner.ID.String()).Msg("encrypt failed")
		return "", ErrCipher
	}
	return ciphertext, nil
}

// storeError passes the taxonomy through and wraps anything else.
func (f *Facade) storeError(owner Owner, op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrValidation):
		return err
	}
	f.log.Error().Err(err).Str("owner_id", owner.ID.String()).Str("op", op).Msg("credential store failed")
	return fmt.Errorf("credential store %s: %w", op, err)
}

func validateAdd(in AddInput) error {
	errs := fieldErrors{}
	if in.Website == "" {
		errs.add("website", "is required")
	}
	if in.Username == "" {
		errs.add("username", "is required")
	}
	if in.Password == "" {
		errs.add("password", "is required")
	}
	if err := errs.err(); err != nil {
		return err
	}
	// Length and URL rules are shared with the store; the secret is checked
	// above so a placeholder stands in for the ciphertext.
	return NewCredential{Website: in.Website, Username: in.Username, SecretCiphertext: "-", URL: in.URL}.Validate()
}

func validateUpdate(patch CredentialPatch, password *string) error {
	if password != nil && *password == "" {
		return &ValidationError{Fields: map[string]string{"password": "must not be empty"}}
	}
	if password != nil {
		placeholder := "-"
		patch.SecretCiphertext = &placeholder
	}
	return patch.Validate()
}

func toSummary(c *models.Credential) Summary {
	return Summary{
		ID:        c.ID,
		Website:   c.Website,
		Username:  c.Username,
		URL:       c.URL,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func matches(c *models.Credential, needle string) bool {
	return strings.Contains(strings.ToLower(c.Website), needle) ||
		strings.Contains(strings.ToLower(c.Username), needle)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
