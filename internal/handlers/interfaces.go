package handlers

import (
	"context"
	"iter"
	"time"

	"github.com/dimitrije/passop-api/internal/models"
	"github.com/dimitrije/passop-api/internal/oauth"
	"github.com/dimitrije/passop-api/internal/services"
	"github.com/dimitrije/passop-api/internal/vault"
	"github.com/google/uuid"
)

// UserServiceInterface is satisfied by services.UserService and
// services.MemoryUserService.
type UserServiceInterface interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenServiceInterface is satisfied by services.TokenService and
// services.MemoryTokenService.
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// CredentialVault is satisfied by *vault.Facade.
type CredentialVault interface {
	AddCredential(ctx context.Context, sessionToken string, in vault.AddInput) (*vault.Summary, error)
	ListCredentials(ctx context.Context, sessionToken, query string) (iter.Seq2[vault.Summary, error], error)
	GetCredential(ctx context.Context, sessionToken string, id uuid.UUID) (*vault.Detail, error)
	UpdateCredential(ctx context.Context, sessionToken string, id uuid.UUID, in vault.UpdateInput) error
	RemoveCredential(ctx context.Context, sessionToken string, id uuid.UUID) error
}
