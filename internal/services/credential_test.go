package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dimitrije/passop-api/internal/database"
	"github.com/dimitrije/passop-api/internal/models"
	"github.com/dimitrije/passop-api/internal/vault"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var credentialRowColumns = []string{"id", "owner_id", "website", "username", "secret", "url", "created_at", "updated_at"}

func setupCredentialService(t *testing.T) (*CredentialService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewCredentialService(db), mock
}

func strPtr(s string) *string { return &s }

func collectCredentials(t *testing.T, svc *CredentialService, owner vault.Owner) ([]models.Credential, error) {
	t.Helper()
	var out []models.Credential
	for c, err := range svc.List(context.Background(), owner) {
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

func TestCredentialService_Create(t *testing.T) {
	svc, mock := setupCredentialService(t)
	owner := vault.Owner{ID: uuid.New()}
	credID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO credentials \(owner_id, website, username, secret, url\)`).
		WithArgs(owner.ID, "github.com", "alice", "v1.ciphertext", (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(credentialRowColumns).
			AddRow(credID, owner.ID, "github.com", "alice", "v1.ciphertext", nil, now, now))

	cred, err := svc.Create(context.Background(), owner, vault.NewCredential{
		Website: "github.com", Username: "alice", SecretCiphertext: "v1.ciphertext",
	})

	require.NoError(t, err)
	assert.Equal(t, credID, cred.ID)
	assert.Equal(t, owner.ID, cred.OwnerID)
	assert.Nil(t, cred.URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialService_Create_Validation(t *testing.T) {
	svc, mock := setupCredentialService(t)

	_, err := svc.Create(context.Background(), vault.Owner{ID: uuid.New()}, vault.NewCredential{Website: "w"})

	assert.ErrorIs(t, err, vault.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialService_List(t *testing.T) {
	svc, mock := setupCredentialService(t)
	owner := vault.Owner{ID: uuid.New()}
	now := time.Now()
	newer, older := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM credentials\s+WHERE owner_id = \$1\s+ORDER BY created_at DESC, id DESC`).
		WithArgs(owner.ID).
		WillReturnRows(pgxmock.NewRows(credentialRowColumns).
			AddRow(newer, owner.ID, "b", "u", "v1.b", strPtr("https://b.example"), now, now).
			AddRow(older, owner.ID, "a", "u", "v1.a", nil, now.Add(-time.Hour), now.Add(-time.Hour)))

	got, err := collectCredentials(t, svc, owner)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer, got[0].ID)
	assert.Equal(t, "https://b.example", *got[0].URL)
	assert.Equal(t, older, got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialService_List_QueriesOnEachRange(t *testing.T) {
	svc, mock := setupCredentialService(t)
	owner := vault.Owner{ID: uuid.New()}
	now := time.Now()

	for range 2 {
		mock.ExpectQuery(`SELECT .+ FROM credentials`).
			WithArgs(owner.ID).
			WillReturnRows(pgxmock.NewRows(credentialRowColumns).
				AddRow(uuid.New(), owner.ID, "w", "u", "v1.x", nil, now, now))
	}

	seq := svc.List(context.Background(), owner)
	for range 2 {
		n := 0
		for _, err := range seq {
			require.NoError(t, err)
			n++
		}
		assert.Equal(t, 1, n)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialService_List_Errors(t *testing.T) {
	t.Run("Query", func(t *testing.T) {
		svc, mock := setupCredentialService(t)
		owner := vault.Owner{ID: uuid.New()}
		mock.ExpectQuery(`SELECT .+ FROM credentials`).
			WithArgs(owner.ID).
			WillReturnError(errors.New("connection refused"))

		_, err := collectCredentials(t, svc, owner)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("Rows", func(t *testing.T) {
		svc, mock := setupCredentialService(t)
		owner := vault.Owner{ID: uuid.New()}
		mock.ExpectQuery(`SELECT .+ FROM credentials`).
			WithArgs(owner.ID).
			WillReturnRows(pgxmock.NewRows(credentialRowColumns).
				AddRow(uuid.New(), owner.ID, "w", "u", "v1.x", nil, time.Now(), time.Now()).
				RowError(0, errors.New("stream broken")))

		_, err := collectCredentials(t, svc, owner)
		assert.Error(t, err)
	})
}

func TestCredentialService_Get(t *testing.T) {
	svc, mock := setupCredentialService(t)
	owner := vault.Owner{ID: uuid.New()}
	credID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM credentials\s+WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(credID, owner.ID).
		WillReturnRows(pgxmock.NewRows(credentialRowColumns).
			AddRow(credID, owner.ID, "github.com", "alice", "v1.x", nil, now, now))

	cred, err := svc.Get(context.Background(), owner, credID)

	require.NoError(t, err)
	assert.Equal(t, "v1.x", cred.Secret)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialService_Get_ForeignOrMissing(t *testing.T) {
	svc, mock := setupCredentialService(t)
	owner := vault.Owner{ID: uuid.New()}
	credID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM credentials\s+WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(credID, owner.ID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Get(context.Background(), owner, credID)

	assert.ErrorIs(t, err, vault.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialService_Update(t *testing.T) {
	svc, mock := setupCredentialService(t)
	owner := vault.Owner{ID: uuid.New()}
	credID := uuid.New()
	username := "alice2"

	mock.ExpectExec(`UPDATE credentials SET`).
		WithArgs((*string)(nil), &username, (*string)(nil), false, (*string)(nil), credID, owner.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.Update(context.Background(), owner, credID, vault.CredentialPatch{Username: &username})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialService_Update_ClearsURL(t *testing.T) {
	svc, mock := setupCredentialService(t)
	owner := vault.Owner{ID: uuid.New()}
	credID := uuid.New()
	empty := ""

	mock.ExpectExec(`UPDATE credentials SET`).
		WithArgs((*string)(nil), (*string)(nil), (*string)(nil), true, (*string)(nil), credID, owner.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.Update(context.Background(), owner, credID, vault.CredentialPatch{URL: &empty})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialService_Update_NotFound(t *testing.T) {
	svc, mock := setupCredentialService(t)
	owner := vault.Owner{ID: uuid.New()}
	credID := uuid.New()
	secret := "v1.new"

	mock.ExpectExec(`UPDATE credentials SET`).
		WithArgs((*string)(nil), (*string)(nil), &secret, false, (*string)(nil), credID, owner.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := svc.Update(context.Background(), owner, credID, vault.CredentialPatch{SecretCiphertext: &secret})

	assert.ErrorIs(t, err, vault.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialService_Update_EmptyPatch(t *testing.T) {
	svc, mock := setupCredentialService(t)

	err := svc.Update(context.Background(), vault.Owner{ID: uuid.New()}, uuid.New(), vault.CredentialPatch{})

	assert.ErrorIs(t, err, vault.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialService_Delete(t *testing.T) {
	svc, mock := setupCredentialService(t)
	owner := vault.Owner{ID: uuid.New()}
	credID := uuid.New()

	mock.ExpectExec(`DELETE FROM credentials WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(credID, owner.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM credentials WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(credID, owner.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, svc.Delete(context.Background(), owner, credID))
	assert.ErrorIs(t, svc.Delete(context.Background(), owner, credID), vault.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
