// Package server exposes the inventory service over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/config"
	"github.com/sells-group/inventory-cli/internal/inventory"
	"github.com/sells-group/inventory-cli/internal/metrics"
)

// DealershipHeader names the request header that selects the dealership.
const DealershipHeader = "X-Dealership-ID"

// Server is the HTTP API.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	svc     *inventory.Service
	metrics *metrics.Metrics
	cfg     config.ServerConfig
}

// New creates a Server for svc. m may be nil.
func New(svc *inventory.Service, m *metrics.Metrics, cfg config.ServerConfig) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		svc:     svc,
		metrics: m,
		cfg:     cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(loggingMiddleware)

	timeout := time.Duration(s.cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	s.router.Use(middleware.Timeout(timeout))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", DealershipHeader},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.dealershipMiddleware)

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", s.handleListVehicles)
			r.Post("/from-vin", s.handleAddFromVIN)
			r.Get("/insights", s.handleInsights)
			r.Post("/analyze-all", s.handleAnalyzeAll)
			r.Post("/refresh-all-comps", s.handleRefreshAllComps)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetVehicle)
				r.Put("/", s.handleUpdateVehicle)
				r.Get("/signals", s.handleGetSignals)
				r.Put("/signals", s.handleUpdateSignals)

				r.Get("/comps", s.handleListComps)
				r.Get("/comps/summary", s.handleCompSummary)
				r.Post("/comps/refresh", s.handleRefreshComps)
				r.Post("/comps/manual", s.handleAddManualComp)
				r.Post("/comps/upload", s.handleUploadComps)

				r.Post("/analyze", s.handleAnalyze)
				r.Get("/curve", s.handleCurve)

				r.Post("/pricing-waterfall/plan", s.handlePlanWaterfall)
				r.Post("/pricing-waterfall/apply", s.handleApplyStep)
				r.Get("/price-events", s.handleVehiclePriceEvents)
			})
		})

		r.Route("/alarms", func(r chi.Router) {
			r.Post("/run", s.handleRunAlarm)
			r.Get("/latest", s.handleLatestAlarm)
			r.Get("/history", s.handleAlarmHistory)
			r.Get("/config", s.handleGetAlarmSettings)
			r.Put("/config", s.handleUpdateAlarmSettings)
		})

		r.Get("/settings/pricing-waterfall", s.handleGetWaterfallSettings)
		r.Put("/settings/pricing-waterfall", s.handleUpdateWaterfallSettings)
		r.Get("/price-events", s.handlePriceEvents)
	})
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	zap.L().Info("server: listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	zap.L().Info("server: shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
