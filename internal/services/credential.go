package services

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/dimitrije/passop-api/internal/database"
	"github.com/dimitrije/passop-api/internal/models"
	"github.com/dimitrije/passop-api/internal/vault"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const credentialColumns = `id, owner_id, website, username, secret, url, created_at, updated_at`

// CredentialService is the Postgres vault.CredentialStore. Every statement
// carries owner_id in its WHERE clause.
type CredentialService struct {
	db *database.DB
}

var _ vault.CredentialStore = (*CredentialService)(nil)

func NewCredentialService(db *database.DB) *CredentialService {
	return &CredentialService{db: db}
}

func scanCredential(row pgx.Row) (*models.Credential, error) {
	var c models.Credential
	err := row.Scan(&c.ID, &c.OwnerID, &c.Website, &c.Username, &c.Secret, &c.URL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CredentialService) Create(ctx context.Context, owner vault.Owner, fields vault.NewCredential) (*models.Credential, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	cred, err := scanCredential(s.db.Pool.QueryRow(ctx, `
		INSERT INTO credentials (owner_id, website, username, secret, url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+credentialColumns,
		owner.ID, fields.Website, fields.Username, fields.SecretCiphertext, nullableString(fields.URL)))
	if err != nil {
		return nil, fmt.Errorf("failed to insert credential: %w", err)
	}
	return cred, nil
}

// List runs a fresh query each time the sequence is ranged over.
func (s *CredentialService) List(ctx context.Context, owner vault.Owner) iter.Seq2[models.Credential, error] {
	return func(yield func(models.Credential, error) bool) {
		rows, err := s.db.Pool.Query(ctx, `
			SELECT `+credentialColumns+`
			FROM credentials
			WHERE owner_id = $1
			ORDER BY created_at DESC, id DESC
		`, owner.ID)
		if err != nil {
			yield(models.Credential{}, fmt.Errorf("failed to list credentials: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			cred, err := scanCredential(rows)
			if err != nil {
				yield(models.Credential{}, fmt.Errorf("failed to scan credential: %w", err))
				return
			}
			if !yield(*cred, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Credential{}, fmt.Errorf("failed to list credentials: %w", err))
		}
	}
}

func (s *CredentialService) Get(ctx context.Context, owner vault.Owner, id uuid.UUID) (*models.Credential, error) {
	cred, err := scanCredential(s.db.Pool.QueryRow(ctx, `
		SELECT `+credentialColumns+`
		FROM credentials
		WHERE id = $1 AND owner_id = $2
	`, id, owner.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, vault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return cred, nil
}

func (s *CredentialService) Update(ctx context.Context, owner vault.Owner, id uuid.UUID, patch vault.CredentialPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	// $4 selects whether url is written at all, so a supplied empty url
	// clears the column while an omitted one keeps it.
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE credentials SET
			website = COALESCE($1, website),
			username = COALESCE($2, username),
			secret = COALESCE($3, secret),
			url = CASE WHEN $4 THEN $5 ELSE url END,
			updated_at = NOW()
		WHERE id = $6 AND owner_id = $7
	`, patch.Website, patch.Username, patch.SecretCiphertext, patch.URL != nil, nullableString(patch.URL), id, owner.ID)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vault.ErrNotFound
	}
	return nil
}

func (s *CredentialService) Delete(ctx context.Context, owner vault.Owner, id uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM credentials WHERE id = $1 AND owner_id = $2`, id, owner.ID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vault.ErrNotFound
	}
	return nil
}

func nullableString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
