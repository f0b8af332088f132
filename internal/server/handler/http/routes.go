package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/BurnLink/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the BurnLink
// API. It applies request logging and optional rate limiting, and mounts
// the token, secrets, and health endpoints under /api.
//
// Routes:
//
//	GET  /api/health                        → Health
//	GET  /api/token                         → tokenHandler.Issue
//	POST /api/secrets                       → secretsHandler.Create
//	POST /api/secrets/{externalID}/view     → secretsHandler.View
//
// The POST group additionally enforces Content-Type: application/json.
// limit may be nil to disable rate limiting.
func NewRouter(
	secretsHandler *SecretsHandler,
	tokenHandler *TokenHandler,
	logger *zap.Logger,
	limit func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	if limit != nil {
		r.Use(limit)
	}

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", Health)
		r.Get("/token", tokenHandler.Issue)

		// State-changing endpoints: JSON bodies carrying the anti-forgery token
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/secrets", secretsHandler.Create)
			r.Post("/secrets/{externalID}/view", secretsHandler.View)
		})
	})

	return r
}
