package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinCipherKeyLength is the shortest CIPHER_KEY accepted at startup.
const MinCipherKeyLength = 16

type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	CipherKey string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration
	AuthTimeout      time.Duration

	BaseURL     string
	CORSOrigins []string

	GitHub OAuthConfig
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cipherKey, err := requireEnv("CIPHER_KEY")
	if err != nil {
		return nil, err
	}
	if len(cipherKey) < MinCipherKeyLength {
		return nil, fmt.Errorf("CIPHER_KEY must be at least %d characters", MinCipherKeyLength)
	}

	jwtSecret, err := requireEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		CipherKey: cipherKey,

		JWTSecret:        jwtSecret,
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
		AuthTimeout:      getDuration("AUTH_TIMEOUT", 5*time.Second),

		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		GitHub: OAuthConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GITHUB_REDIRECT_URL", ""),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesMemoryStore reports whether credentials live in process memory
// because no database is configured.
func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseURL == ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func requireEnv(key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", fmt.Errorf("required environment variable not set: %s", key)
	}
	return value, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
