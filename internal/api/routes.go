package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/marketing-dashboard/internal/config"
)

// SetupRoutes configures all routes.
func SetupRoutes(cfg config.ServerConfig, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials for the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.health.HandleHealth)
	r.Get("/health/live", h.health.HandleLiveness)
	r.Get("/health/ready", h.health.HandleReadiness)

	// Operator session
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.With(h.RequireSession).Get("/auth/session", h.SessionInfo)

	// Provider authorization
	r.With(h.RequireSession).Get("/oauth/{integration}/connect", h.ConnectIntegration)
	r.Get("/oauth/callback", h.OAuthCallback)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.RequireSession)

		r.Get("/dashboard", h.GetDashboard)

		r.Get("/integrations", h.GetIntegrations)
		r.Delete("/integrations/{integration}", h.DisconnectIntegration)

		r.Route("/seo", func(r chi.Router) {
			r.Get("/sites", h.GetSearchConsoleSites)
			r.Get("/analytics", h.GetSearchAnalytics)
		})

		r.Route("/google-ads", func(r chi.Router) {
			r.Get("/accounts", h.GetGoogleAdsAccounts)
			r.Get("/campaigns", h.GetGoogleAdsCampaigns)
			r.Get("/conversions", h.GetGoogleAdsConversions)
		})

		r.Route("/meta-ads", func(r chi.Router) {
			r.Put("/token", h.SetMetaToken)
			r.Delete("/token", h.ClearMetaToken)
			r.Get("/insights", h.GetMetaInsights)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})

	return r
}
