package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential is a stored vault entry. Secret always holds cipher output.
type Credential struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Website   string    `json:"website"`
	Username  string    `json:"username"`
	Secret    string    `json:"-"`
	URL       *string   `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
