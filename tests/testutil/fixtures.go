package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/passop-api/internal/database"
	"github.com/dimitrije/passop-api/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the password every fixture user is created with.
const TestPassword = "correct horse battery"

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser inserts a credentials-provider user whose password is TestPassword.
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	hashStr := string(hash)

	user := &models.User{
		Email:        fmt.Sprintf("user%d@example.com", f.counter),
		PasswordHash: &hashStr,
		Provider:     models.ProviderCredentials,
	}
	for _, opt := range opts {
		opt(user)
	}

	err = f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (email, password_hash, provider)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, user.Email, user.PasswordHash, user.Provider).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithOAuthProvider creates a password-less account.
func WithOAuthProvider(provider string) UserOption {
	return func(u *models.User) {
		u.Provider = provider
		u.PasswordHash = nil
	}
}

// CreateCredential inserts a row with an already-encrypted secret.
func (f *Fixtures) CreateCredential(t *testing.T, owner *models.User, website, ciphertext string) *models.Credential {
	t.Helper()

	cred := &models.Credential{OwnerID: owner.ID, Website: website, Username: owner.Email, Secret: ciphertext}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO credentials (owner_id, website, username, secret)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, cred.OwnerID, cred.Website, cred.Username, cred.Secret).Scan(&cred.ID, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create credential: %v", err)
	}
	return cred
}

func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()

	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}
