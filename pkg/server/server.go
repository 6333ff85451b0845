package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/hermes/pkg/config"
	"mercator-hq/hermes/pkg/openai"
	"mercator-hq/hermes/pkg/processing/tokens"
	"mercator-hq/hermes/pkg/proxy/handlers"
	"mercator-hq/hermes/pkg/proxy/middleware"
	"mercator-hq/hermes/pkg/telemetry/metrics"
	"mercator-hq/hermes/pkg/translate"
	"mercator-hq/hermes/pkg/usage"
)

const serviceName = "hermes"

// Dependencies carries the wired components the server routes to.
// Metrics and Usage are optional.
type Dependencies struct {
	Logger     *slog.Logger
	Translator *translate.Translator
	Backend    *openai.Client
	Counter    *tokens.Counter
	Routing    func() translate.ModelRouting
	Metrics    *metrics.RequestMetrics
	Usage      *usage.Recorder
	Version    string
}

// Server is the gateway HTTP server.
type Server struct {
	config       *config.Config
	deps         Dependencies
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	running      bool
}

// New creates a server from validated configuration and wired
// dependencies.
func New(cfg *config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{config: cfg, deps: deps, logger: logger}
}

// Start runs the HTTP server and blocks until the context is cancelled, a
// shutdown signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	// WriteTimeout intentionally stays at its configured value; zero
	// disables the deadline so long SSE streams are not cut off.
	s.httpServer = &http.Server{
		Addr:         s.config.Server.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server",
			slog.String("address", s.config.Server.ListenAddress),
			slog.String("big_model", s.config.Models.Big),
			slog.String("small_model", s.config.Models.Small))

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown stops the server gracefully, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown",
			slog.String("timeout", s.config.Server.ShutdownTimeout.String()))

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", slog.String("error", err.Error()))
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		s.logger.Info("gateway server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether Start has been called and Shutdown has not
// completed.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Handler builds the full route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	messagesHandler := handlers.NewMessagesHandler(handlers.MessagesConfig{
		Logger:     s.logger,
		Translator: s.deps.Translator,
		Backend:    s.deps.Backend,
		Counter:    s.deps.Counter,
		Routing:    s.deps.Routing,
		Metrics:    s.deps.Metrics,
		Usage:      s.deps.Usage,
	})

	mux.Handle("POST /v1/messages", messagesHandler)
	mux.Handle("POST /v1/messages/count_tokens",
		handlers.NewTokenCountHandler(s.deps.Counter, s.logger))
	mux.Handle("GET /{$}", handlers.NewHealthHandler(serviceName, s.deps.Version))

	if s.config.Metrics.Enabled && s.deps.Metrics != nil {
		mux.Handle("GET "+s.config.Metrics.Path, s.deps.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.ResponseTime(handler)
	handler = middleware.Recovery(s.logger)(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.RequestID(handler)
	return handler
}
