package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// ValidationError contains all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if len(e.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("Errors:\n  - %s", strings.Join(e.Errors, "\n  - ")))
	}

	if len(e.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("Warnings:\n  - %s", strings.Join(e.Warnings, "\n  - ")))
	}

	return fmt.Sprintf("configuration validation failed:\n%s", strings.Join(parts, "\n"))
}

// HasErrors returns true if there are validation errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// HasWarnings returns true if there are validation warnings.
func (e *ValidationError) HasWarnings() bool {
	return len(e.Warnings) > 0
}

// Addf adds a formatted error to the validation error.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// Warnf adds a formatted warning to the validation error.
func (e *ValidationError) Warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Validator validates configuration.
type Validator struct {
	errors *ValidationError
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: &ValidationError{},
	}
}

// Validate checks cfg and reports every problem at once.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateServer(cfg.Server)
	v.validateStorage(cfg.Storage)
	v.validateOutbox(cfg.Outbox)
	v.validateNotification(cfg.Notification)
	v.validateLog(cfg.Log)
	v.validateTracing(cfg.Tracing)
	v.validateInstitution(cfg.Institution)

	for _, warning := range v.errors.Warnings {
		slog.Warn("configuration warning", "warning", warning)
	}

	if v.errors.HasErrors() {
		return dterrors.Validation("config.Validate", v.errors.Error())
	}

	return nil
}

// Warnings returns the warnings gathered by the last Validate.
func (v *Validator) Warnings() []string {
	return v.errors.Warnings
}

func (v *Validator) validateServer(cfg ServerConfig) {
	if cfg.Address == "" {
		v.errors.Addf("server.address: must not be empty")
	}
	if cfg.ReadTimeout < 0 {
		v.errors.Addf("server.read_timeout: must not be negative, got %s", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout < 0 {
		v.errors.Addf("server.write_timeout: must not be negative, got %s", cfg.WriteTimeout)
	}
	if cfg.RateLimitPerMinute < 0 {
		v.errors.Addf("server.rate_limit_per_minute: must not be negative, got %d", cfg.RateLimitPerMinute)
	}
	for i, origin := range cfg.CORSOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			v.errors.Addf("server.cors_origins[%d]: must be an origin such as https://example.org, got %q", i, origin)
		}
	}
}

func (v *Validator) validateStorage(cfg StorageConfig) {
	validDrivers := []string{DriverMemory, DriverSQLite}
	if !slices.Contains(validDrivers, cfg.Driver) {
		v.errors.Addf("storage.driver: must be one of %v, got %q", validDrivers, cfg.Driver)
		return
	}
	if cfg.Driver == DriverSQLite && cfg.SQLitePath == "" {
		v.errors.Addf("storage.sqlite_path: required when storage.driver is %q", DriverSQLite)
	}
	if cfg.Driver == DriverMemory {
		v.errors.Warnf("storage.driver: %q keeps doctorates in memory only; they are lost on restart", DriverMemory)
	}
}

func (v *Validator) validateOutbox(cfg OutboxConfig) {
	if cfg.BatchSize <= 0 {
		v.errors.Addf("outbox.batch_size: must be positive, got %d", cfg.BatchSize)
	}
	if cfg.Concurrency <= 0 {
		v.errors.Addf("outbox.concurrency: must be positive, got %d", cfg.Concurrency)
	}
	if cfg.PollInterval <= 0 {
		v.errors.Addf("outbox.poll_interval: must be positive, got %s", cfg.PollInterval)
	}
	if cfg.RetryAttempts < 0 {
		v.errors.Addf("outbox.retry_attempts: must not be negative, got %d", cfg.RetryAttempts)
	}
	if cfg.RetryMaxWait < cfg.RetryInitialWait {
		v.errors.Addf("outbox.retry_max_wait: must be at least retry_initial_wait (%s), got %s", cfg.RetryInitialWait, cfg.RetryMaxWait)
	}
	if cfg.BreakerThreshold < 0 {
		v.errors.Addf("outbox.breaker_threshold: must not be negative, got %d", cfg.BreakerThreshold)
	}
	if cfg.BreakerThreshold > 0 && cfg.BreakerTimeout <= 0 {
		v.errors.Addf("outbox.breaker_timeout: must be positive when the breaker is enabled")
	}
	if cfg.RatePerMinute < 0 {
		v.errors.Addf("outbox.rate_per_minute: must not be negative, got %d", cfg.RatePerMinute)
	}
}

func (v *Validator) validateNotification(cfg NotificationConfig) {
	if cfg.DefaultLanguage == "" {
		v.errors.Addf("notification.default_language: must not be empty")
	}
	v.validateEndpoint("notification.email", cfg.Email)
	v.validateEndpoint("notification.web", cfg.Web)

	seen := make(map[string]bool, len(cfg.Persons))
	for i, p := range cfg.Persons {
		if p.ID == "" {
			v.errors.Addf("notification.persons[%d].id: must not be empty", i)
			continue
		}
		if seen[p.ID] {
			v.errors.Addf("notification.persons[%d].id: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
		if p.Email == "" {
			v.errors.Warnf("notification.persons[%d]: %q has no email address", i, p.ID)
		}
	}
}

func (v *Validator) validateEndpoint(key string, cfg EndpointConfig) {
	if !cfg.Enabled() {
		return
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.errors.Addf("%s.url: must be an absolute http(s) URL, got %q", key, cfg.URL)
		return
	}
	if u.Scheme == "http" {
		v.errors.Warnf("%s.url: notifications are sent over plain HTTP", key)
	}
	if cfg.Secret == "" {
		v.errors.Warnf("%s.secret: payloads will not be signed", key)
	}
	if cfg.Timeout < 0 {
		v.errors.Addf("%s.timeout: must not be negative, got %s", key, cfg.Timeout)
	}
}

func (v *Validator) validateLog(cfg LogConfig) {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(cfg.Level)) {
		v.errors.Addf("log.level: must be one of %v, got %q", validLevels, cfg.Level)
	}
	validFormats := []string{"text", "json"}
	if !slices.Contains(validFormats, cfg.Format) {
		v.errors.Addf("log.format: must be one of %v, got %q", validFormats, cfg.Format)
	}
}

func (v *Validator) validateTracing(cfg TracingConfig) {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		v.errors.Addf("tracing.sample_ratio: must be between 0 and 1, got %v", cfg.SampleRatio)
	}
	if cfg.Endpoint == "" {
		return
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.errors.Addf("tracing.endpoint: must be an http(s) URL, got %q", cfg.Endpoint)
	}
}

func (v *Validator) validateInstitution(cfg InstitutionConfig) {
	if cfg.ReferencePrefix == "" {
		v.errors.Addf("institution.reference_prefix: must not be empty")
	}
	if len(cfg.ADREManagers) == 0 {
		v.errors.Warnf("institution.adre_managers: no ADRE manager, doctorates cannot be initialized")
	}
	if len(cfg.SCEBManagers) == 0 {
		v.errors.Warnf("institution.sceb_managers: no SCEB manager, thesis distribution cannot be validated")
	}
}
