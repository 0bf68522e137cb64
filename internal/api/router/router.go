package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/streetpaws/tnvr-booking/internal/accounts"
	"github.com/streetpaws/tnvr-booking/internal/appointments"
	"github.com/streetpaws/tnvr-booking/internal/capacity"
	"github.com/streetpaws/tnvr-booking/internal/clinic"
	httpmiddleware "github.com/streetpaws/tnvr-booking/internal/http/middleware"
	"github.com/streetpaws/tnvr-booking/internal/notify"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// Config holds everything the router wires together.
type Config struct {
	Logger *logging.Logger

	AuthHandler         *accounts.AuthHandler
	AccountsHandler     *accounts.Handler
	BookingHandler      *appointments.Handler
	AdminBookingHandler *appointments.AdminHandler
	CapacityHandler     *capacity.Handler
	ClinicHandler       *clinic.Handler
	DeviceHandler       *notify.DeviceHandler

	// AdminGate runs after Auth on /admin routes; it re-reads the caller's
	// profile so role changes apply immediately.
	AccountReader httpmiddleware.AccountReader

	AuthSecret         string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int

	// ReconcileTrigger runs one manual sweep for POST /admin/reconcile.
	ReconcileTrigger http.HandlerFunc
}

// New assembles the chi router.
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
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Route("/auth", func(auth chi.Router) {
				auth.Post("/login", cfg.AuthHandler.Login)
				auth.Post("/signup", cfg.AuthHandler.Signup)
			})
		}
	})

	// Authenticated trapper surface.
	r.Group(func(authed chi.Router) {
		authed.Use(httpmiddleware.Auth(cfg.AuthSecret))

		if cfg.BookingHandler != nil {
			authed.Get("/availability", cfg.BookingHandler.Availability)
			authed.Post("/bookings", cfg.BookingHandler.Book)
			authed.Get("/appointments", cfg.BookingHandler.ListMine)
			authed.Delete("/appointments/{id}", cfg.BookingHandler.Cancel)
		}
		if cfg.AccountsHandler != nil {
			authed.Get("/me", cfg.AccountsHandler.Me)
		}
		if cfg.DeviceHandler != nil {
			authed.Post("/devices", cfg.DeviceHandler.Register)
			authed.Delete("/devices", cfg.DeviceHandler.Clear)
		}
	})

	// Admin surface: token auth plus a fresh profile-role check per request.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.Auth(cfg.AuthSecret))
		admin.Use(httpmiddleware.RequireAdmin(cfg.AccountReader, cfg.Logger))

		if cfg.AccountsHandler != nil {
			admin.Route("/accounts", func(r chi.Router) {
				r.Get("/", cfg.AccountsHandler.List)
				r.Post("/", cfg.AccountsHandler.Create)
				r.Get("/{id}", cfg.AccountsHandler.Get)
				r.Put("/{id}", cfg.AccountsHandler.Update)
				r.Delete("/{id}", cfg.AccountsHandler.Delete)
				r.Post("/{id}/code", cfg.AccountsHandler.ChangeCode)
			})
		}
		if cfg.AdminBookingHandler != nil {
			admin.Route("/appointments", func(r chi.Router) {
				r.Get("/", cfg.AdminBookingHandler.ListDay)
				r.Post("/", cfg.AdminBookingHandler.Create)
				r.Post("/release-group", cfg.AdminBookingHandler.ReleaseGroup)
				r.Put("/{id}", cfg.AdminBookingHandler.Update)
				r.Delete("/{id}", cfg.AdminBookingHandler.Delete)
			})
		}
		if cfg.CapacityHandler != nil {
			admin.Route("/capacity", func(r chi.Router) {
				r.Get("/", cfg.CapacityHandler.List)
				r.Put("/{day}", cfg.CapacityHandler.Upsert)
				r.Delete("/{day}", cfg.CapacityHandler.Delete)
			})
		}
		if cfg.ClinicHandler != nil {
			admin.Get("/clinic", cfg.ClinicHandler.Get)
			admin.Put("/clinic", cfg.ClinicHandler.Update)
		}
		if cfg.ReconcileTrigger != nil {
			admin.Post("/reconcile", cfg.ReconcileTrigger)
		}
	})

	return r
}
