package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/passop-api/internal/database"
	"github.com/dimitrije/passop-api/internal/models"
	"github.com/dimitrije/passop-api/internal/oauth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, email, password_hash, provider, created_at, updated_at`

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Provider, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if err := validateRegistration(email, password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, provider)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		email, hash, models.ProviderCredentials))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown email, an OAuth
// account without a password, and a wrong password alike.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		checkPassword(nil, password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindOrCreateFromOAuth links a provider sign-in to the account with the
// same verified email, creating a password-less account if none exists.
func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	email := NormalizeEmail(info.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, provider)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING `+userColumns,
		email, info.Provider))
	if err != nil {
		return nil, fmt.Errorf("failed to find or create user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email)))
}
