package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/softcane/agropower/internal/auth"
	"github.com/softcane/agropower/internal/config"
)

// NewRouter assembles the public HTTP surface.
func NewRouter(h *Handlers, signer *auth.Signer, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(accessLog(logger))

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(authenticate(signer, h.devMode(), logger))

		r.Route("/calculations", func(r chi.Router) {
			r.Post("/power-loss", h.PowerLoss)
			r.Post("/minimum-power", h.MinimumPower)
			r.Get("/history", h.CalculationsHistory)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Post("/generate", h.GenerateRecommendation)
			r.Get("/history", h.RecommendationsHistory)
			r.Get("/{id}", h.GetRecommendation)
		})
	})

	return r
}
