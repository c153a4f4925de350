// Package router sets up the HTTP routes and middleware chain for the
// pressbridge server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pressbridge/internal/handlers"
	"pressbridge/internal/middleware"
)

// New creates the configured Chi router.
func New(tools *handlers.Tools) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)
	r.Post("/tools/{name}", tools.Invoke)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
