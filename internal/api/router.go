package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"watchpost/internal/config"
	"watchpost/internal/store"
	"watchpost/internal/uptime"
)

// NewRouter builds the read-only status API. Monitor management happens
// elsewhere; this surface only exposes what dashboards need.
func NewRouter(cfg *config.Config, st *store.Store, calc *uptime.Calculator, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	limiter := NewRateLimiter(10, 30)
	limiter.Cleanup(10 * time.Minute)
	r.Use(limiter.Middleware)

	s := &Server{store: st, calc: calc, log: log}

	r.Get("/api/health", s.Health)
	r.Route("/api/monitors", func(r chi.Router) {
		r.Get("/", s.ListMonitors)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetMonitor)
			r.Get("/checks", s.ListChecks)
			r.Get("/downtimes", s.ListDowntimes)
			r.Get("/uptime", s.UptimeStats)
		})
	})

	return r
}
