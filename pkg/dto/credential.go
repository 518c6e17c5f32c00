package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCredentialRequest struct {
	Website  string  `json:"website"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	URL      *string `json:"url,omitempty"`
}

// UpdateCredentialRequest fields left out of the body are unchanged.
type UpdateCredentialRequest struct {
	Website  *string `json:"website,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	URL      *string `json:"url,omitempty"`
}

// CredentialResponse is the list and create shape; it never has a password.
type CredentialResponse struct {
	ID        uuid.UUID `json:"id"`
	Website   string    `json:"website"`
	Username  string    `json:"username"`
	URL       *string   `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CredentialDetailResponse struct {
	CredentialResponse
	Password string `json:"password"`
}

type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}
