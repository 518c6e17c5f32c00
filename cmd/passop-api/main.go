package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/dimitrije/passop-api/internal/cipher"
	"github.com/dimitrije/passop-api/internal/config"
	"github.com/dimitrije/passop-api/internal/database"
	"github.com/dimitrije/passop-api/internal/handlers"
	authmw "github.com/dimitrije/passop-api/internal/middleware"
	"github.com/dimitrije/passop-api/internal/services"
	"github.com/dimitrije/passop-api/internal/vault"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/rs/zerolog"
)

type userBackend interface {
	handlers.UserServiceInterface
	services.UserLookup
}

type tokenBackend interface {
	handlers.TokenServiceInterface
	CleanupExpired(ctx context.Context) (int64, error)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.IsProduction() {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return logger.Level(level).With().Timestamp().Str("service", "passop-api").Logger()
}

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		users  userBackend
		tokens tokenBackend
		store  vault.CredentialStore
	)
	if cfg.UsesMemoryStore() {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory storage")
		users = services.NewMemoryUserService()
		tokens = services.NewMemoryTokenService()
		store = vault.NewMemoryStore()
	} else {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		users = services.NewUserService(db)
		tokens = services.NewTokenService(db)
		store = services.NewCredentialService(db)
	}

	key, err := cipher.NewKey(cfg.CipherKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid cipher key")
	}
	secretCipher, err := cipher.New(key)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build cipher")
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	gate := services.NewSessionGate(jwtService, users, cfg.AuthTimeout)
	credentialVault := vault.NewFacade(gate, store, secretCipher, logger)

	authHandler := handlers.NewAuthHandler(cfg, users, tokens, jwtService, logger)
	userHandler := handlers.NewUserHandler(users)
	credentialHandler := handlers.NewCredentialHandler(credentialVault, logger)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(authmw.RequestLogger(logger))

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)
	if authHandler.HasProviders() {
		auth.Get("/:provider/consent", authHandler.GetConsentURL)
		auth.Get("/:provider/callback", authHandler.Callback)
	}

	// The facade authenticates credential requests itself.
	api.Get("/credentials", credentialHandler.List)
	api.Post("/credentials", credentialHandler.Create)
	api.Get("/credentials/:id", credentialHandler.Get)
	api.Patch("/credentials/:id", credentialHandler.Update)
	api.Delete("/credentials/:id", credentialHandler.Delete)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.Auth(gate))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)
	protected.Get("/users/me", userHandler.GetMe)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := tokens.CleanupExpired(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("refresh token cleanup failed")
					continue
				}
				logger.Debug().Int64("removed", removed).Msg("expired refresh tokens removed")
			}
		}
	}()
	go authHandler.CleanupStates(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Bool("memory_store", cfg.UsesMemoryStore()).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
