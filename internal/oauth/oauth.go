// Package oauth signs owners in through an external identity provider.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
)

var ErrNoVerifiedEmail = errors.New("provider returned no verified email")

// UserInfo is the identity an owner account is matched on. Email is the
// join key with credentials-provider accounts.
type UserInfo struct {
	Email    string
	Name     string
	ID       string
	Provider string
}

type Provider interface {
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
	Name() string
}

// GenerateState returns a random CSRF state value for the consent round trip.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
