// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"prospector/internal/config"
	"prospector/internal/domain/opportunity"
	"prospector/internal/server/handlers"
	"prospector/internal/service/discovery"
	"prospector/internal/service/validation"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	eventsTopic string,
	natsConn *nats.Conn,
	aggregator *discovery.Aggregator,
	scheduler *discovery.Scheduler,
	store opportunity.Store,
	tracker *validation.Tracker,
	logger *zap.Logger,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(15 * time.Minute))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	discoveryHandler := handlers.NewDiscoveryHandler(aggregator, scheduler, store, logger)
	validationHandler := handlers.NewValidationHandler(tracker)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Discovery API
			r.Route("/discovery", func(r chi.Router) {
				r.Post("/run", discoveryHandler.RunDiscovery)
				r.Get("/quick", discoveryHandler.QuickSearch)
				r.Get("/last", discoveryHandler.LastRun)
			})

			// Opportunities API
			r.Route("/opportunities", func(r chi.Router) {
				r.Get("/", discoveryHandler.ListOpportunities)
			})

			// Validation API
			r.Route("/validation", func(r chi.Router) {
				r.Get("/", validationHandler.ListCampaigns)
				r.Post("/", validationHandler.StartValidation)
				r.Get("/{id}", validationHandler.GetStatus)
				r.Post("/{id}/signals", validationHandler.RecordSignal)
			})
		})
	})

	// WebSocket endpoint for streaming discovery events
	router.Get("/ws/discovery", handlers.DiscoveryWebSocketHandler(natsConn, eventsTopic, logger))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
