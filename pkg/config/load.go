package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, and
// validates. Pass an empty path to start from defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration and then applies HERMES_*
// environment variables on top. Environment always wins over the file.
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if val := os.Getenv(key); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				*dst = d
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				*dst = b
			}
		}
	}

	setString("HERMES_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setDuration("HERMES_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("HERMES_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)

	setString("HERMES_BACKEND_BASE_URL", &cfg.Backend.BaseURL)
	setString("HERMES_BACKEND_API_KEY", &cfg.Backend.APIKey)
	setDuration("HERMES_BACKEND_TIMEOUT", &cfg.Backend.Timeout)

	setString("HERMES_MODELS_BIG", &cfg.Models.Big)
	setString("HERMES_MODELS_SMALL", &cfg.Models.Small)
	setBool("HERMES_MODELS_CACHE_PROMPTS", &cfg.Models.CachePrompts)

	setString("HERMES_LOG_LEVEL", &cfg.Logging.Level)
	setString("HERMES_LOG_FORMAT", &cfg.Logging.Format)

	setBool("HERMES_METRICS_ENABLED", &cfg.Metrics.Enabled)
	setBool("HERMES_USAGE_ENABLED", &cfg.Usage.Enabled)
	setString("HERMES_USAGE_PATH", &cfg.Usage.Path)
}
