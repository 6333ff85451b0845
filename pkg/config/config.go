package config

import "time"

// Config is the root gateway configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Models  ModelsConfig  `yaml:"models"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Usage   UsageConfig   `yaml:"usage"`
}

// ServerConfig configures the inbound HTTP listener.
type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout of zero disables the write deadline; a finite deadline
	// would cut off long-lived SSE streams.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BackendConfig configures the outbound chat-completions client.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`

	MaxIdleConns        int `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// Optional attribution headers forwarded to the backend.
	Referrer string `yaml:"referrer"`
	AppName  string `yaml:"app_name"`
}

// ModelsConfig names the backend models inbound requests route to.
type ModelsConfig struct {
	// Big serves Opus and Sonnet tiers; Small serves Haiku and anything
	// unrecognized.
	Big   string `yaml:"big"`
	Small string `yaml:"small"`

	// CachePrompts forwards cache-control annotations to cache-aware
	// backend models.
	CachePrompts bool `yaml:"cache_prompts"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}

// UsageConfig configures the usage ledger.
type UsageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`

	// Buffer is the async write queue size.
	Buffer int `yaml:"buffer"`

	RetentionDays int    `yaml:"retention_days"`
	PruneSchedule string `yaml:"prune_schedule"`
}
