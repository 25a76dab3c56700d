package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"uapush/service/config"
	"uapush/service/metrics"
	"uapush/service/sender"
	"uapush/service/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Server is a stand-in for the Airship push API. It accepts the requests a
// Sender produces, checks them the way the real service would and keeps the
// most recent ones in memory.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	recorder   *Recorder
	router     *chi.Mux
	httpServer *http.Server
	startTime  time.Time
}

func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = util.NewLogger(cfg.VerboseLogging)
	}

	registry := prometheus.NewRegistry()

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		metrics:   metrics.New(registry),
		recorder:  NewRecorder(cfg.RecentPushes),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(s.logger))
	if s.cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Second))
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(s.cfg.AppKey, s.cfg.MasterSecret))

		r.Post(sender.PathPush, s.handlePush(sender.PathPush))
		r.Post(sender.PathPushBroadcast, s.handlePush(sender.PathPushBroadcast))
		r.Post(sender.PathAirmailSend, s.handlePush(sender.PathAirmailSend))
		r.Post(sender.PathAirmailBroadcast, s.handlePush(sender.PathAirmailBroadcast))

		r.Get("/api/recent", s.handleRecent)
	})

	s.router = r
}

// Handler exposes the router so tests can mount it on httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Recorder() *Recorder {
	return s.recorder
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	msg := fmt.Sprintf("Fake Airship API running on:\n  Local: http://localhost:%d", s.cfg.Port)
	if lanIP := util.GetLANIP(); lanIP != "" {
		msg += fmt.Sprintf("\n  Network: http://%s:%d", lanIP, s.cfg.Port)
	}
	s.logger.Info(msg)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- util.LogError(s.logger, "HTTP server failed", err, "addr", addr)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}

	return nil
}
