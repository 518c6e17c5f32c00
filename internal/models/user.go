package models

import (
	"time"

	"github.com/google/uuid"
)

// Sign-in providers
const (
	ProviderCredentials = "credentials"
	ProviderGitHub      = "github"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
