package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates all field errors found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return "configuration validation failed: " + strings.Join(parts, "; ")
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the configuration for structural problems. It collects
// every error rather than stopping at the first.
func Validate(cfg *Config) error {
	var errs []FieldError
	add := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	if cfg.Server.ListenAddress == "" {
		add("server.listen_address", "must not be empty")
	}

	if cfg.Backend.BaseURL == "" {
		add("backend.base_url", "must not be empty")
	} else if u, err := url.Parse(cfg.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("backend.base_url", fmt.Sprintf("invalid URL %q", cfg.Backend.BaseURL))
	}

	if cfg.Models.Big == "" {
		add("models.big", "must not be empty")
	}
	if cfg.Models.Small == "" {
		add("models.small", "must not be empty")
	}

	if !validLogLevels[cfg.Logging.Level] {
		add("logging.level", fmt.Sprintf("unknown level %q", cfg.Logging.Level))
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		add("logging.format", fmt.Sprintf("unknown format %q", cfg.Logging.Format))
	}

	if cfg.Usage.Enabled && cfg.Usage.Path == "" {
		add("usage.path", "must not be empty when usage recording is enabled")
	}
	if cfg.Usage.RetentionDays < 0 {
		add("usage.retention_days", "must not be negative")
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
