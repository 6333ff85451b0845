package config

import "sync"

var (
	globalConfig *Config
	configMutex  sync.RWMutex
	initOnce     sync.Once
)

// Initialize loads configuration with environment overrides and stores it
// as the process-wide singleton. Call once at startup; later calls are
// ignored.
func Initialize(path string) error {
	var initErr error
	initOnce.Do(func() {
		cfg, err := LoadWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		configMutex.Lock()
		globalConfig = cfg
		configMutex.Unlock()
	})
	return initErr
}

// Get returns the singleton configuration, nil before Initialize succeeds.
// Prefer passing Config explicitly; the singleton exists for the watcher
// and for startup wiring.
func Get() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// Set replaces the singleton, used by the watcher on hot reload and by
// tests.
func Set(cfg *Config) {
	configMutex.Lock()
	globalConfig = cfg
	configMutex.Unlock()
}
