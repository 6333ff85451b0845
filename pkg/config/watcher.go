package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval coalesces the bursts of write events editors and
// orchestrators produce for a single save.
const debounceInterval = 500 * time.Millisecond

// Watcher hot-reloads the configuration file and hands each valid new
// snapshot to the OnReload callback. Invalid configurations are logged and
// skipped, keeping the last good snapshot active.
type Watcher struct {
	path     string
	logger   *slog.Logger
	onReload func(*Config)
}

// NewWatcher builds a watcher for the given config file. onReload may be
// nil, in which case only the singleton is updated.
func NewWatcher(path string, logger *slog.Logger, onReload func(*Config)) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, logger: logger, onReload: onReload}
}

// Start watches until ctx is cancelled. The directory is watched rather
// than the file itself so atomic rename-based saves keep working.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceInterval, w.reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("config watcher error", slog.String("error", err.Error()))
			}
		}
	}()

	w.logger.Info("config watcher started", slog.String("path", w.path))
	return nil
}

func (w *Watcher) reload() {
	cfg, err := LoadWithEnvOverrides(w.path)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous configuration",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}

	Set(cfg)
	if w.onReload != nil {
		w.onReload(cfg)
	}
	w.logger.Info("configuration reloaded",
		slog.String("big_model", cfg.Models.Big),
		slog.String("small_model", cfg.Models.Small),
		slog.String("log_level", cfg.Logging.Level))
}
