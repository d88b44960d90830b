package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const actionQueryRateLimit = 120

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)

	// The voice cloud's catalog/action/query surface, all behind bearer auth.
	r.Route("/v1.0/user", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Use(s.rateLimitMiddleware(actionQueryRateLimit, rateLimitWindow))

		r.Get("/devices", s.handleDevices)
		r.Post("/devices/action", s.handleAction)
		r.Post("/devices/query", s.handleQuery)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
