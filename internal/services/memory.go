package services

import (
	"context"
	"sync"
	"time"

	"github.com/dimitrije/passop-api/internal/models"
	"github.com/dimitrije/passop-api/internal/oauth"
	"github.com/google/uuid"
)

// MemoryUserService backs UserService's operations with process memory for
// running without a database.
type MemoryUserService struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

func NewMemoryUserService() *MemoryUserService {
	return &MemoryUserService{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *MemoryUserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if err := validateRegistration(email, password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}
	return s.insertLocked(email, &hash, models.ProviderCredentials), nil
}

func (s *MemoryUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		checkPassword(nil, password)
		return nil, ErrInvalidCredentials
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *MemoryUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	email := NormalizeEmail(info.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byEmail[email]; ok {
		u := *s.byID[id]
		return &u, nil
	}
	return s.insertLocked(email, nil, info.Provider), nil
}

func (s *MemoryUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *MemoryUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *MemoryUserService) insertLocked(email string, hash *string, provider string) *models.User {
	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Provider:     provider,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[user.ID] = user
	s.byEmail[email] = user.ID

	u := *user
	return &u
}

type memoryToken struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// MemoryTokenService is the in-process counterpart of TokenService.
type MemoryTokenService struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
}

func NewMemoryTokenService() *MemoryTokenService {
	return &MemoryTokenService{tokens: make(map[string]memoryToken)}
}

func (s *MemoryTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = memoryToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *MemoryTokenService) ConsumeRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[tokenHash]
	delete(s.tokens, tokenHash)
	if !ok || !time.Now().Before(tok.expiresAt) {
		return uuid.Nil, ErrInvalidToken
	}
	return tok.userID, nil
}

func (s *MemoryTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenHash)
	return nil
}

func (s *MemoryTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, tok := range s.tokens {
		if tok.userID == userID {
			delete(s.tokens, hash)
		}
	}
	return nil
}

func (s *MemoryTokenService) CleanupExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := time.Now()
	for hash, tok := range s.tokens {
		if !now.Before(tok.expiresAt) {
			delete(s.tokens, hash)
			n++
		}
	}
	return n, nil
}
