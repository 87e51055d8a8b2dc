// Package router assembles the HTTP surface: public conversation and
// booking endpoints plus a JWT-guarded admin group.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medibot/intake-platform/internal/appointments"
	"github.com/medibot/intake-platform/internal/doctors"
	httpmiddleware "github.com/medibot/intake-platform/internal/http/middleware"
	"github.com/medibot/intake-platform/internal/intake"
	"github.com/medibot/intake-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	IntakeHandler       *intake.Handler
	DoctorsHandler      *doctors.Handler
	AppointmentsHandler *appointments.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string

	// Requests/sec and burst applied to the conversation endpoints.
	IntakeRateLimit float64
	IntakeRateBurst int
}

// New creates a new chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.DoctorsHandler != nil {
			cfg.DoctorsHandler.RegisterRoutes(public)
		}
		if cfg.AppointmentsHandler != nil {
			cfg.AppointmentsHandler.RegisterRoutes(public)
		}
		if cfg.IntakeHandler != nil {
			public.Group(func(conv chi.Router) {
				if cfg.IntakeRateLimit > 0 {
					conv.Use(httpmiddleware.RateLimit(cfg.IntakeRateLimit, cfg.IntakeRateBurst))
				}
				cfg.IntakeHandler.RegisterRoutes(conv)
			})
		}
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		if cfg.DoctorsHandler != nil {
			cfg.DoctorsHandler.RegisterAdminRoutes(admin)
		}
		if cfg.AppointmentsHandler != nil {
			cfg.AppointmentsHandler.RegisterAdminRoutes(admin)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
