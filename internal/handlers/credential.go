package handlers

import (
	"errors"

	"github.com/dimitrije/passop-api/internal/middleware"
	"github.com/dimitrije/passop-api/internal/vault"
	"github.com/dimitrije/passop-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

// CredentialHandler exposes the vault over HTTP. It forwards the raw bearer
// token and lets the vault authenticate, so every route is covered by the
// same check.
type CredentialHandler struct {
	vault CredentialVault
	log   zerolog.Logger
}

func NewCredentialHandler(v CredentialVault, log zerolog.Logger) *CredentialHandler {
	return &CredentialHandler{vault: v, log: log.With().Str("component", "credential_handler").Logger()}
}

func (h *CredentialHandler) List(c *drift.Context) {
	seq, err := h.vault.ListCredentials(c.Request.Context(), sessionToken(c), c.QueryParam("q"))
	if err != nil {
		h.fail(c, "list", err)
		return
	}

	response := make([]dto.CredentialResponse, 0)
	for s, err := range seq {
		if err != nil {
			h.fail(c, "list", err)
			return
		}
		response = append(response, toCredentialResponse(s))
	}

	_ = c.JSON(200, response)
}

func (h *CredentialHandler) Create(c *drift.Context) {
	var req dto.CreateCredentialRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	summary, err := h.vault.AddCredential(c.Request.Context(), sessionToken(c), vault.AddInput{
		Website:  req.Website,
		Username: req.Username,
		Password: req.Password,
		URL:      req.URL,
	})
	if err != nil {
		h.fail(c, "create", err)
		return
	}

	_ = c.JSON(201, toCredentialResponse(*summary))
}

func (h *CredentialHandler) Get(c *drift.Context) {
	detail, err := h.vault.GetCredential(c.Request.Context(), sessionToken(c), credentialID(c))
	if err != nil {
		h.fail(c, "get", err)
		return
	}

	_ = c.JSON(200, dto.CredentialDetailResponse{
		CredentialResponse: toCredentialResponse(detail.Summary),
		Password:           detail.Password,
	})
}

func (h *CredentialHandler) Update(c *drift.Context) {
	var req dto.UpdateCredentialRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	err := h.vault.UpdateCredential(c.Request.Context(), sessionToken(c), credentialID(c), vault.UpdateInput{
		Website:  req.Website,
		Username: req.Username,
		Password: req.Password,
		URL:      req.URL,
	})
	if err != nil {
		h.fail(c, "update", err)
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "credential updated"})
}

func (h *CredentialHandler) Delete(c *drift.Context) {
	if err := h.vault.RemoveCredential(c.Request.Context(), sessionToken(c), credentialID(c)); err != nil {
		h.fail(c, "delete", err)
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "credential deleted"})
}

func (h *CredentialHandler) fail(c *drift.Context, action string, err error) {
	var verr *vault.ValidationError
	switch {
	case errors.Is(err, vault.ErrUnauthenticated):
		c.Unauthorized("not authenticated")
	case errors.Is(err, vault.ErrNotFound):
		c.NotFound("credential not found")
	case errors.As(err, &verr):
		_ = c.JSON(400, dto.ValidationErrorResponse{Error: "validation failed", Fields: verr.Fields})
	default:
		h.log.Error().Err(err).Str("action", action).Msg("credential request failed")
		c.InternalServerError("failed to " + action + " credential")
	}
}

// sessionToken returns "" when the header is missing or malformed, which
// the vault rejects as unauthenticated.
func sessionToken(c *drift.Context) string {
	token, _ := middleware.BearerToken(c)
	return token
}

// credentialID maps an unparsable id to uuid.Nil, which names no record.
func credentialID(c *drift.Context) uuid.UUID {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func toCredentialResponse(s vault.Summary) dto.CredentialResponse {
	return dto.CredentialResponse{
		ID:        s.ID,
		Website:   s.Website,
		Username:  s.Username,
		URL:       s.URL,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
