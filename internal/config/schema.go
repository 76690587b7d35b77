// Package config provides configuration management for doctrack.
package config

import (
	"time"
)

// Config is the root configuration for doctrack.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `mapstructure:"server" json:"server"`
	// Storage selects and configures the persistence backend.
	Storage StorageConfig `mapstructure:"storage" json:"storage"`
	// Outbox configures delivery of staged side effects.
	Outbox OutboxConfig `mapstructure:"outbox" json:"outbox"`
	// Notification configures templates, notifiers and the person directory.
	Notification NotificationConfig `mapstructure:"notification" json:"notification"`
	// Log configures logging.
	Log LogConfig `mapstructure:"log" json:"log"`
	// Tracing configures OpenTelemetry span export.
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
	// Institution holds the institution-wide manager grants.
	Institution InstitutionConfig `mapstructure:"institution" json:"institution"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Address is the listen address (default: ":8080").
	Address string `mapstructure:"address" json:"address"`
	// ReadTimeout bounds reading a request.
	ReadTimeout time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	// ShutdownTimeout bounds the graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
	// APIKey, when set, must be sent by callers in X-API-Key or as a
	// bearer token. Callers are then trusted to assert their identity.
	APIKey string `mapstructure:"api_key" json:"-"`
	// CORSOrigins lists the origins allowed to call the API from a browser.
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins,omitempty"`
	// RateLimitPerMinute caps requests per client (0 = unlimited).
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" json:"rate_limit_per_minute"`
}

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is memory or sqlite.
	Driver string `mapstructure:"driver" json:"driver"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path" json:"sqlite_path,omitempty"`
}

// OutboxConfig configures the outbox relay.
type OutboxConfig struct {
	BatchSize    int           `mapstructure:"batch_size" json:"batch_size"`
	Concurrency  int           `mapstructure:"concurrency" json:"concurrency"`
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval"`
	// RatePerMinute caps deliveries per minute (0 = unlimited).
	RatePerMinute    int           `mapstructure:"rate_per_minute" json:"rate_per_minute"`
	RetryAttempts    int           `mapstructure:"retry_attempts" json:"retry_attempts"`
	RetryInitialWait time.Duration `mapstructure:"retry_initial_wait" json:"retry_initial_wait"`
	RetryMaxWait     time.Duration `mapstructure:"retry_max_wait" json:"retry_max_wait"`
	// BreakerThreshold is the number of consecutive failures that opens the
	// circuit breaker (0 disables it).
	BreakerThreshold int           `mapstructure:"breaker_threshold" json:"breaker_threshold"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout" json:"breaker_timeout"`
}

// NotificationConfig configures notification delivery.
type NotificationConfig struct {
	// DefaultLanguage is used when a recipient has no known language.
	DefaultLanguage string `mapstructure:"default_language" json:"default_language"`
	// Catalog is an optional YAML template catalog merged over the
	// embedded one.
	Catalog string `mapstructure:"catalog" json:"catalog,omitempty"`
	// Email is the mail gateway endpoint. Emails are logged when unset.
	Email EndpointConfig `mapstructure:"email" json:"email"`
	// Web is the in-app notification endpoint. Notifications are logged
	// when unset.
	Web EndpointConfig `mapstructure:"web" json:"web"`
	// Persons seeds the person directory.
	Persons []PersonConfig `mapstructure:"persons" json:"persons,omitempty"`
}

// EndpointConfig describes an HTTP endpoint.
type EndpointConfig struct {
	URL     string            `mapstructure:"url" json:"url,omitempty"`
	Secret  string            `mapstructure:"secret" json:"-"`
	Timeout time.Duration     `mapstructure:"timeout" json:"timeout,omitempty"`
	Headers map[string]string `mapstructure:"headers" json:"headers,omitempty"`
}

// Enabled reports whether an endpoint URL is configured.
func (e EndpointConfig) Enabled() bool {
	return e.URL != ""
}

// PersonConfig is an internal person known to the directory.
type PersonConfig struct {
	ID        string `mapstructure:"id" json:"id"`
	FirstName string `mapstructure:"first_name" json:"first_name"`
	LastName  string `mapstructure:"last_name" json:"last_name"`
	Email     string `mapstructure:"email" json:"email"`
	Language  string `mapstructure:"language" json:"language,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level" json:"level"`
	// Format is text or json.
	Format string `mapstructure:"format" json:"format"`
	// RedactPersonalData masks email addresses and credentials in log
	// output.
	RedactPersonalData bool `mapstructure:"redact_personal_data" json:"redact_personal_data"`
}

// TracingConfig configures OpenTelemetry tracing. Tracing is off unless
// Endpoint is set.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector URL, e.g. http://localhost:4318.
	Endpoint string `mapstructure:"endpoint" json:"endpoint,omitempty"`
	// SampleRatio is the fraction of root spans kept, from 0 to 1.
	SampleRatio float64 `mapstructure:"sample_ratio" json:"sample_ratio"`
}

// InstitutionConfig holds the institution-wide settings.
type InstitutionConfig struct {
	// ReferencePrefix starts every doctorate reference.
	ReferencePrefix string   `mapstructure:"reference_prefix" json:"reference_prefix"`
	ADREManagers    []string `mapstructure:"adre_managers" json:"adre_managers"`
	ADRIManagers    []string `mapstructure:"adri_managers" json:"adri_managers"`
	SCEBManagers    []string `mapstructure:"sceb_managers" json:"sceb_managers"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:            ":8080",
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       15 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerMinute: 600,
		},
		Storage: StorageConfig{
			Driver:     DriverMemory,
			SQLitePath: "doctrack.db",
		},
		Outbox: OutboxConfig{
			BatchSize:        100,
			Concurrency:      8,
			PollInterval:     5 * time.Second,
			RetryAttempts:    3,
			RetryInitialWait: 200 * time.Millisecond,
			RetryMaxWait:     5 * time.Second,
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		Notification: NotificationConfig{
			DefaultLanguage: "en",
		},
		Log: LogConfig{
			Level:              "info",
			Format:             "text",
			RedactPersonalData: true,
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
		Institution: InstitutionConfig{
			ReferencePrefix: "DOC",
		},
	}
}

// ConfigFileNames to search for.
var ConfigFileNames = []string{
	"doctrack",
	".doctrack",
}

// ConfigFileExtensions supported by Viper.
var ConfigFileExtensions = []string{
	"yaml",
	"yml",
	"json",
	"toml",
}
