package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/BurnLink/internal/service"
)

// Lifecycle defines the interface for secret lifecycle operations required
// by the SecretsHandler.
type Lifecycle interface {
	// Create validates inputs and persists a new secret record, returning
	// its external id and expiry.
	Create(ctx context.Context, envelope json.RawMessage, maxViews, ttlHours int) (*service.CreateResult, error)
	// Retrieve returns the stored envelope and atomically advances view
	// state for the secret with the given external id.
	Retrieve(ctx context.Context, externalID string) (*service.RetrieveResult, error)
}

// TokenValidator checks anti-forgery tokens presented by state-changing
// calls.
type TokenValidator interface {
	Validate(tok string) error
}

// SecretsHandler handles HTTP requests for creating and viewing secrets.
type SecretsHandler struct {
	Service Lifecycle
	Tokens  TokenValidator
}

// Create handles POST /api/secrets requests.
func (h *SecretsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Envelope json.RawMessage `json:"envelope"`
		MaxViews int             `json:"maxViews"`
		TTLHours int             `json:"ttlHours"`
		Token    string          `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.Tokens.Validate(req.Token); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	result, err := h.Service.Create(r.Context(), req.Envelope, req.MaxViews, req.TTLHours)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"externalId": result.ExternalID,
		"expiresAt":  result.ExpiresAt.UnixMilli(),
		"maxViews":   result.MaxViews,
	})
}

// View handles POST /api/secrets/{externalID}/view requests.
func (h *SecretsHandler) View(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.Tokens.Validate(req.Token); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	result, err := h.Service.Retrieve(r.Context(), externalID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, "secret not found")
		case errors.Is(err, service.ErrExhausted):
			writeError(w, http.StatusGone, "secret view limit reached")
		default:
			writeError(w, http.StatusInternalServerError, "store unavailable")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"envelope":   result.Envelope,
		"viewCount":  result.ViewCount,
		"maxViews":   result.MaxViews,
		"isLastView": result.IsLastView,
		"createdAt":  result.CreatedAt.UnixMilli(),
	})
}
