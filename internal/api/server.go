package api

import (
	"net/http"
	"time"

	chatapi "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/api/chat"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/api/docs"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/api/middleware"
	projectapi "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/api/project"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(projectHandler *projectapi.Handler, chatHandler *chatapi.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS)
	r.Use(chimiddleware.Timeout(120 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Everything below requires a caller identity.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity)

		projectapi.RegisterRoutes(r, projectHandler)
		chatapi.RegisterRoutes(r, chatHandler)
	})

	return r
}
