package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hermes.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: "https://gateway.example.com/v1"
  api_key: "sk-test"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Models.Big != DefaultBigModel || cfg.Models.Small != DefaultSmallModel {
		t.Errorf("models = %+v", cfg.Models)
	}
	if cfg.Backend.BaseURL != "https://gateway.example.com/v1" {
		t.Errorf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9000"
  read_timeout: 10s
backend:
  base_url: "https://api.example.com/v1"
models:
  big: "gpt-4.1"
  small: "gpt-4.1-mini"
  cache_prompts: true
usage:
  enabled: true
  retention_days: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9000" || cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Models.Big != "gpt-4.1" || !cfg.Models.CachePrompts {
		t.Errorf("models = %+v", cfg.Models)
	}
	if !cfg.Usage.Enabled || cfg.Usage.RetentionDays != 30 {
		t.Errorf("usage = %+v", cfg.Usage)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: "https://file.example.com/v1"
models:
  big: "file-big"
`)

	t.Setenv("HERMES_BACKEND_BASE_URL", "https://env.example.com/v1")
	t.Setenv("HERMES_MODELS_BIG", "env-big")
	t.Setenv("HERMES_LOG_LEVEL", "debug")

	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadWithEnvOverrides: %v", err)
	}
	if cfg.Backend.BaseURL != "https://env.example.com/v1" {
		t.Errorf("base url = %q, env should win", cfg.Backend.BaseURL)
	}
	if cfg.Models.Big != "env-big" {
		t.Errorf("big model = %q", cfg.Models.Big)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := &Config{
		Backend: BackendConfig{BaseURL: "not a url"},
		Logging: LoggingConfig{Level: "loud", Format: "json"},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"server.listen_address", "backend.base_url", "models.big", "logging.level"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing field %q", msg, want)
		}
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
