package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dimitrije/passop-api/internal/config"
	"github.com/dimitrije/passop-api/internal/middleware"
	"github.com/dimitrije/passop-api/internal/oauth"
	"github.com/dimitrije/passop-api/internal/services"
	"github.com/dimitrije/passop-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

const (
	stateTTL        = 10 * time.Minute
	exchangeTimeout = 30 * time.Second
)

type AuthHandler struct {
	providers    map[string]oauth.Provider
	userService  UserServiceInterface
	tokenService TokenServiceInterface
	jwtService   JWTServiceInterface
	log          zerolog.Logger
	states       sync.Map
}

func NewAuthHandler(
	cfg *config.Config,
	userService UserServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
	log zerolog.Logger,
) *AuthHandler {
	h := &AuthHandler{
		providers:    make(map[string]oauth.Provider),
		userService:  userService,
		tokenService: tokenService,
		jwtService:   jwtService,
		log:          log.With().Str("component", "auth_handler").Logger(),
	}
	if cfg.GitHub.ClientID != "" {
		h.RegisterProvider(oauth.NewGitHubProvider(cfg.GitHub))
	}
	return h
}

func (h *AuthHandler) RegisterProvider(p oauth.Provider) {
	h.providers[p.Name()] = p
}

func (h *AuthHandler) HasProviders() bool {
	return len(h.providers) > 0
}

// CleanupStates drops expired OAuth states until ctx is done.
func (h *AuthHandler) CleanupStates(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.states.Range(func(key, value any) bool {
				if expiresAt, ok := value.(time.Time); ok && now.After(expiresAt) {
					h.states.Delete(key)
				}
				return true
			})
		}
	}
}

func (h *AuthHandler) Register(c *drift.Context) {
	var req dto.RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrPasswordTooLong):
		c.BadRequest(err.Error())
		return
	case errors.Is(err, services.ErrEmailTaken):
		_ = c.JSON(409, map[string]string{"error": err.Error()})
		return
	case err != nil:
		h.log.Error().Err(err).Msg("register failed")
		c.InternalServerError("failed to register user")
		return
	}

	h.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	_ = c.JSON(201, dto.UserResponse{ID: user.ID, Email: user.Email, Provider: user.Provider})
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.Unauthorized(services.ErrInvalidCredentials.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("login failed")
		c.InternalServerError("failed to sign in")
		return
	}

	h.issueTokens(ctx, c, user.ID, user.Email)
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Unauthorized("invalid refresh token")
		return
	}

	ctx := c.Request.Context()
	storedUserID, err := h.tokenService.ConsumeRefreshToken(ctx, services.HashToken(req.RefreshToken))
	if err != nil || storedUserID != userID {
		c.Unauthorized("refresh token not found or expired")
		return
	}

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	h.issueTokens(ctx, c, user.ID, user.Email)
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken != "" {
		_ = h.tokenService.RevokeRefreshToken(c.Request.Context(), services.HashToken(req.RefreshToken))
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		h.log.Error().Err(err).Str("user_id", userID.String()).Msg("revoke all failed")
		c.InternalServerError("failed to revoke tokens")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "all sessions logged out"})
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")
	p, ok := h.providers[provider]
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}
	h.states.Store(state, time.Now().Add(stateTTL))

	_ = c.JSON(200, dto.ConsentURLResponse{URL: p.GetConsentURL(state)})
}

// Callback completes the provider round trip and answers with a token pair.
func (h *AuthHandler) Callback(c *drift.Context) {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		c.BadRequest("unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		c.BadRequest("missing state parameter")
		return
	}
	v, ok := h.states.LoadAndDelete(state)
	if expiresAt, valid := v.(time.Time); !ok || !valid || time.Now().After(expiresAt) {
		c.BadRequest("invalid or expired state")
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		c.BadRequest("missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), exchangeTimeout)
	defer cancel()

	info, err := p.ExchangeCode(ctx, code)
	if err != nil {
		h.log.Warn().Err(err).Str("provider", p.Name()).Msg("oauth exchange failed")
		c.Unauthorized("failed to sign in with " + p.Name())
		return
	}

	user, err := h.userService.FindOrCreateFromOAuth(ctx, info)
	if err != nil {
		h.log.Error().Err(err).Str("provider", p.Name()).Msg("oauth user lookup failed")
		c.InternalServerError("failed to create user")
		return
	}

	h.issueTokens(ctx, c, user.ID, user.Email)
}

func (h *AuthHandler) issueTokens(ctx context.Context, c *drift.Context, userID uuid.UUID, email string) {
	pair, err := h.jwtService.GenerateTokenPair(userID, email)
	if err != nil {
		c.InternalServerError("failed to generate tokens")
		return
	}

	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.StoreRefreshToken(ctx, userID, services.HashToken(pair.RefreshToken), expiresAt); err != nil {
		h.log.Error().Err(err).Str("user_id", userID.String()).Msg("store refresh token failed")
		c.InternalServerError("failed to store refresh token")
		return
	}

	_ = c.JSON(200, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}
