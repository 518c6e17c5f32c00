package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/passop-api/internal/cipher"
	"github.com/dimitrije/passop-api/internal/models"
	"github.com/dimitrije/passop-api/internal/services"
	"github.com/dimitrije/passop-api/internal/vault"
	"github.com/rs/zerolog"
)

const (
	TestJWTSecret = "test-secret-key-for-testing-only"
	TestCipherKey = "test-cipher-key-for-testing-only"
)

func TestJWTService() *services.JWTService {
	return services.NewJWTService(TestJWTSecret, 15*time.Minute, 24*time.Hour)
}

func TestCipher(t *testing.T) *cipher.Cipher {
	t.Helper()
	key, err := cipher.NewKey(TestCipherKey)
	if err != nil {
		t.Fatalf("failed to build cipher key: %v", err)
	}
	c, err := cipher.New(key)
	if err != nil {
		t.Fatalf("failed to build cipher: %v", err)
	}
	return c
}

// Stack is the in-memory service graph the server runs without a database.
type Stack struct {
	JWT    *services.JWTService
	Users  *services.MemoryUserService
	Tokens *services.MemoryTokenService
	Gate   *services.SessionGate
	Store  *vault.MemoryStore
	Cipher *cipher.Cipher
	Vault  *vault.Facade
}

func NewStack(t *testing.T) *Stack {
	t.Helper()
	s := &Stack{
		JWT:    TestJWTService(),
		Users:  services.NewMemoryUserService(),
		Tokens: services.NewMemoryTokenService(),
		Store:  vault.NewMemoryStore(),
		Cipher: TestCipher(t),
	}
	s.Gate = services.NewSessionGate(s.JWT, s.Users, time.Second)
	s.Vault = vault.NewFacade(s.Gate, s.Store, s.Cipher, zerolog.Nop())
	return s
}

// SignIn registers email and returns the user with a valid access token.
func (s *Stack) SignIn(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	user, err := s.Users.Register(context.Background(), email, TestPassword)
	if err != nil {
		t.Fatalf("failed to register %s: %v", email, err)
	}
	pair, err := s.JWT.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return user, pair.AccessToken
}

// HTTPTestClient sends JSON requests straight to a handler.
type HTTPTestClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func NewHTTPTestClient(t *testing.T, handler http.Handler) *HTTPTestClient {
	return &HTTPTestClient{t: t, handler: handler}
}

// As returns a client that sends token as the bearer credential.
func (c *HTTPTestClient) As(token string) *HTTPTestClient {
	return &HTTPTestClient{t: c.t, handler: c.handler, token: token}
}

func (c *HTTPTestClient) Request(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *HTTPTestClient) GET(path string) *httptest.ResponseRecorder {
	return c.Request(http.MethodGet, path, nil)
}

func (c *HTTPTestClient) POST(path string, body any) *httptest.ResponseRecorder {
	return c.Request(http.MethodPost, path, body)
}

func (c *HTTPTestClient) PATCH(path string, body any) *httptest.ResponseRecorder {
	return c.Request(http.MethodPatch, path, body)
}

func (c *HTTPTestClient) DELETE(path string) *httptest.ResponseRecorder {
	return c.Request(http.MethodDelete, path, nil)
}

// ParseJSON decodes the response body into v.
func ParseJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response JSON: %v (body: %s)", err, rec.Body.String())
	}
}
