package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"mercator-hq/hermes/pkg/config"
	"mercator-hq/hermes/pkg/openai"
	"mercator-hq/hermes/pkg/processing/tokens"
	"mercator-hq/hermes/pkg/server"
	"mercator-hq/hermes/pkg/telemetry/metrics"
	"mercator-hq/hermes/pkg/translate"
	"mercator-hq/hermes/pkg/usage"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Hermes gateway server",
	Long: `Start the Hermes gateway server with the specified configuration.

The server listens on the configured address, accepts Anthropic Messages API
requests, and serves them from the configured OpenAI-style backend.

Examples:
  # Start with default config
  hermes run

  # Start with custom config
  hermes run --config /etc/hermes/config.yaml

  # Override listen address
  hermes run --listen 0.0.0.0:8080

  # Validate config without starting server
  hermes run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", true, "hot-reload the config file on change")
}

// routingState holds the model routing behind a lock so the config
// watcher can swap it while requests are in flight.
type routingState struct {
	mu      sync.RWMutex
	routing translate.ModelRouting
}

func (s *routingState) get() translate.ModelRouting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routing
}

func (s *routingState) set(r translate.ModelRouting) {
	s.mu.Lock()
	s.routing = r
	s.mu.Unlock()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Get()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLogLevel(cfg.Logging.Level))

	opts := &slog.HandlerOptions{Level: levelVar}
	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Translation core
	translator := translate.New(logger, cfg.Models.CachePrompts)
	counter := tokens.NewCounter(tokens.SharedEncoder(logger), logger)
	backend := openai.NewClient(openai.Config{
		BaseURL:             cfg.Backend.BaseURL,
		APIKey:              cfg.Backend.APIKey,
		Timeout:             cfg.Backend.Timeout,
		MaxIdleConns:        cfg.Backend.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Backend.MaxIdleConnsPerHost,
		Referrer:            cfg.Backend.Referrer,
		AppName:             cfg.Backend.AppName,
	}, logger)

	routing := &routingState{}
	routing.set(translate.ModelRouting{Big: cfg.Models.Big, Small: cfg.Models.Small})

	// Metrics
	var requestMetrics *metrics.RequestMetrics
	if cfg.Metrics.Enabled {
		requestMetrics = metrics.NewRequestMetrics(cfg.Metrics.Namespace)
		fmt.Printf("✓ Metrics enabled at %s\n", cfg.Metrics.Path)
	}

	// Usage ledger
	var recorder *usage.Recorder
	if cfg.Usage.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Usage.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create usage directory: %w", err)
		}
		store, err := usage.NewStore(cfg.Usage.Path, logger)
		if err != nil {
			return fmt.Errorf("failed to open usage store: %w", err)
		}
		defer store.Close()

		recorder = usage.NewRecorder(store, cfg.Usage.Buffer, logger)
		defer recorder.Close()

		if cfg.Usage.PruneSchedule != "" {
			pruner := usage.NewPruner(store, cfg.Usage.PruneSchedule, cfg.Usage.RetentionDays, logger)
			if err := pruner.Start(ctx); err != nil {
				slog.Warn("failed to start usage retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
			}
		}
		fmt.Printf("✓ Usage ledger at %s\n", cfg.Usage.Path)
	}

	// Config hot reload
	if runFlags.watch {
		watcher := config.NewWatcher(cfgFile, logger, func(newCfg *config.Config) {
			routing.set(translate.ModelRouting{Big: newCfg.Models.Big, Small: newCfg.Models.Small})
			levelVar.Set(parseLogLevel(newCfg.Logging.Level))
		})
		if err := watcher.Start(ctx); err != nil {
			slog.Warn("failed to start config watcher", "error", err)
		}
	}

	srv := server.New(cfg, server.Dependencies{
		Logger:     logger,
		Translator: translator,
		Backend:    backend,
		Counter:    counter,
		Routing:    routing.get,
		Metrics:    requestMetrics,
		Usage:      recorder,
		Version:    Version,
	})

	fmt.Printf("✓ Routing %s -> big=%s small=%s\n", cfg.Backend.BaseURL, cfg.Models.Big, cfg.Models.Small)
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}
