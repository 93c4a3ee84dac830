package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range v {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Validate validates the configuration and returns all errors found
func Validate(cfg *Config) error {
	var errors ValidationErrors

	if !cfg.Admin.DisableAuth {
		if cfg.Admin.Username == "" {
			errors = append(errors, ValidationError{
				Field:   "admin.username",
				Message: "required",
			})
		}
		if cfg.Admin.Password == "" {
			errors = append(errors, ValidationError{
				Field:   "admin.password",
				Message: "required unless admin.disable_auth is set",
			})
		}
	}

	if cfg.MediaServer.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "media_server.url",
			Message: "required",
		})
	} else if _, err := url.ParseRequestURI(cfg.MediaServer.URL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "media_server.url",
			Message: "must be a valid URL",
		})
	}

	if cfg.MediaServer.Timeout != "" {
		if _, err := time.ParseDuration(cfg.MediaServer.Timeout); err != nil {
			errors = append(errors, ValidationError{
				Field:   "media_server.timeout",
				Message: "must be a valid duration (e.g. 30s)",
			})
		}
	}

	if cfg.Player.ProgressFlushInterval != "" {
		d, err := time.ParseDuration(cfg.Player.ProgressFlushInterval)
		if err != nil {
			errors = append(errors, ValidationError{
				Field:   "player.progress_flush_interval",
				Message: "must be a valid duration (e.g. 3s)",
			})
		} else if d <= 0 {
			errors = append(errors, ValidationError{
				Field:   "player.progress_flush_interval",
				Message: "must be positive",
			})
		}
	}

	if cfg.Cache.ListTTL != "" {
		if _, err := time.ParseDuration(cfg.Cache.ListTTL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "cache.list_ttl",
				Message: "must be a valid duration (e.g. 30s)",
			})
		}
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "must be between 0 and 65535",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}
