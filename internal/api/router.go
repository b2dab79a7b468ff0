package api

import (
	"clipseek/internal/middleware"

	"github.com/gorilla/mux"
)

func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()

	// Middleware runs in order - tracing first, then recovery, then CORS.
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Search
	api.HandleFunc("/search", h.SearchVideo).Methods("POST")

	// Index lifecycle
	api.HandleFunc("/videos/{id}/index", h.GetIndexStatus).Methods("GET")
	api.HandleFunc("/videos/{id}/index", h.InvalidateIndex).Methods("DELETE")

	// Health
	api.HandleFunc("/health", h.Health).Methods("GET")

	// Build status stream
	r.HandleFunc("/ws/videos/{id}/status", h.HandleStatusWebSocket)

	return r
}
