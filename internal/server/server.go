package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/neuramaint/pumpml/internal/config"
	"github.com/neuramaint/pumpml/internal/predictor"
)

// Server exposes the scoring engine over HTTP to the maintenance dashboard.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *predictor.Engine
	hub    *scoreHub

	httpServer *http.Server

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// State
	mu      sync.Mutex
	running bool
}

// New creates a server around an already-constructed engine.
func New(cfg *config.Config, log *zap.Logger, engine *predictor.Engine) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		log:    log,
		engine: engine,
		hub:    newScoreHub(log, cfg.Server.AllowedOrigins),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the HTTP listener. It returns once the listener goroutine is
// running; errors from the listener itself are logged.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is not running")
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.hub.closeAll()

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
	}

	s.wg.Wait()
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.instrument("/health", s.handleHealth))
	mux.HandleFunc("POST /api/v1/predictions", s.instrument("/api/v1/predictions", s.handlePredict))
	mux.HandleFunc("GET /api/v1/model/status", s.instrument("/api/v1/model/status", s.handleModelStatus))
	mux.HandleFunc("GET /api/v1/model/metrics", s.instrument("/api/v1/model/metrics", s.handleModelMetrics))
	mux.HandleFunc("POST /api/v1/model/retrain", s.instrument("/api/v1/model/retrain", s.handleRetrain))
	mux.HandleFunc("GET /ws/scores", s.hub.handleConnect)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// scoreTimeout returns the per-prediction deadline.
func (s *Server) scoreTimeout() time.Duration {
	return time.Duration(s.cfg.Server.ScoreTimeoutMS) * time.Millisecond
}

// retrainTimeout returns the training run deadline.
func (s *Server) retrainTimeout() time.Duration {
	return time.Duration(s.cfg.Server.RetrainTimeoutS) * time.Second
}
