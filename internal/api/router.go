package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/system", s.handleSystem)

		r.Route("/zones", func(r chi.Router) {
			r.Get("/", s.handleListZones)
			r.Get("/{id}", s.handleGetZone)
		})

		r.Get("/devices", s.handleListDevices)
		r.Get("/entities", s.handleListEntities)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status and hub connectivity.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	connected := false
	if s.hubState != nil {
		connected = s.hubState.Connected()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"version":       s.version,
		"hub_connected": connected,
	})
}
