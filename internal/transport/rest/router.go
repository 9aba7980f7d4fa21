package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/korelearn/tutor-management/internal/auth"
	"github.com/korelearn/tutor-management/internal/transport/middleware"
	"github.com/korelearn/tutor-management/internal/transport/swagger"
	"github.com/korelearn/tutor-management/internal/webhook"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, webhookHandler *webhook.Handler, authHandler *auth.Handler, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Payment gateway callback. Signature verification happens inside the
		// handler over the raw body, so no auth middleware is mounted here.
		if webhookHandler != nil {
			r.Post("/payments/webhook", webhookHandler.HandleWebhook)
		}

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
			})

			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)
				pr.Get("/users/me", authHandler.Me)
			})
		}
	})
}
