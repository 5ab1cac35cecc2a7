package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"salonhub/internal/config"
	"salonhub/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// HealthChecker is pinged by the readiness probe.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Services are the collaborators the HTTP handlers delegate to.
type Services struct {
	Availability domain.AvailabilityService
	Appointments domain.AppointmentService
	Catalog      domain.CatalogService
	Health       HealthChecker
}

// HTTPServer exposes the REST API alongside the gRPC service.
type HTTPServer struct {
	cfg      *config.APIConfig
	services Services
	server   *http.Server
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg *config.APIConfig, services Services, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	httpLogger := logger.With().Str("component", "http").Logger()

	srv := &HTTPServer{cfg: cfg, services: services, logger: &httpLogger}
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware(s.logger))
	r.Use(accessLogMiddleware(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         s.cfg.CORS.MaxAge,
	}))
	r.Use(rateLimitMiddleware(newRateLimiter(s.cfg.RateLimit)))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/mobile/availability", s.handleAvailability)

		r.Route("/salons", func(r chi.Router) {
			r.Get("/", s.handleListSalons)
			r.Post("/", s.handleCreateSalon)

			r.Route("/{salonID}", func(r chi.Router) {
				r.Get("/", s.handleGetSalon)
				r.Put("/hours", s.handleUpdateHours)
				r.Get("/services", s.handleListServices)
				r.Post("/services", s.handleCreateService)
				r.Get("/staff", s.handleListStaff)
				r.Post("/staff", s.handleCreateStaff)
				r.Get("/appointments", s.handleListAppointments)
			})
		})

		r.Route("/appointments", func(r chi.Router) {
			r.With(bookingLimitMiddleware(s.cfg.RateLimit.BookingsPerMinute)).Post("/", s.handleBook)
			r.Get("/{id}", s.handleGetAppointment)
			r.Post("/{id}/confirm", s.handleTransition(s.services.Appointments.Confirm))
			r.Post("/{id}/cancel", s.handleTransition(s.services.Appointments.Cancel))
			r.Post("/{id}/complete", s.handleTransition(s.services.Appointments.Complete))
		})
	})

	return r
}

// Handler exposes the routed handler, mainly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.services.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.services.Health.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
