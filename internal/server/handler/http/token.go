package http

import "net/http"

// TokenIssuer issues fresh anti-forgery tokens.
type TokenIssuer interface {
	Issue() string
}

// TokenHandler handles HTTP requests for anti-forgery tokens.
type TokenHandler struct {
	Tokens TokenIssuer
}

// Issue handles GET /api/token requests.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"token": h.Tokens.Issue()})
}
