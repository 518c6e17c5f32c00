package testutil

import (
	"context"
	"iter"
	"time"

	"github.com/dimitrije/passop-api/internal/models"
	"github.com/dimitrije/passop-api/internal/oauth"
	"github.com/dimitrije/passop-api/internal/vault"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) userResult(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	return m.userResult(m.Called(ctx, email, password))
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	return m.userResult(m.Called(ctx, email, password))
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	return m.userResult(m.Called(ctx, info))
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.userResult(m.Called(ctx, id))
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ConsumeRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

// MockCredentialVault mocks the vault facade for error-mapping tests.
type MockCredentialVault struct {
	mock.Mock
}

func (m *MockCredentialVault) AddCredential(ctx context.Context, sessionToken string, in vault.AddInput) (*vault.Summary, error) {
	args := m.Called(ctx, sessionToken, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vault.Summary), args.Error(1)
}

func (m *MockCredentialVault) ListCredentials(ctx context.Context, sessionToken, query string) (iter.Seq2[vault.Summary, error], error) {
	args := m.Called(ctx, sessionToken, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(iter.Seq2[vault.Summary, error]), args.Error(1)
}

func (m *MockCredentialVault) GetCredential(ctx context.Context, sessionToken string, id uuid.UUID) (*vault.Detail, error) {
	args := m.Called(ctx, sessionToken, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vault.Detail), args.Error(1)
}

func (m *MockCredentialVault) UpdateCredential(ctx context.Context, sessionToken string, id uuid.UUID, in vault.UpdateInput) error {
	args := m.Called(ctx, sessionToken, id, in)
	return args.Error(0)
}

func (m *MockCredentialVault) RemoveCredential(ctx context.Context, sessionToken string, id uuid.UUID) error {
	args := m.Called(ctx, sessionToken, id)
	return args.Error(0)
}

// SummarySeq adapts a slice, optionally ending in err, to a list result.
func SummarySeq(items []vault.Summary, err error) iter.Seq2[vault.Summary, error] {
	return func(yield func(vault.Summary, error) bool) {
		for _, s := range items {
			if !yield(s, nil) {
				return
			}
		}
		if err != nil {
			yield(vault.Summary{}, err)
		}
	}
}
