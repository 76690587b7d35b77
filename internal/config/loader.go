package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "DOCTRACK"

// Pre-compiled regex patterns for environment variable expansion.
var (
	// envVarPattern matches ${VAR} or ${VAR:-default} syntax
	envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)
	// simpleEnvVarPattern matches $VAR syntax
	simpleEnvVarPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// Loader handles configuration loading and merging.
type Loader struct {
	v           *viper.Viper
	configPath  string
	searchPaths []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Loader{
		v:           v,
		searchPaths: []string{"."},
	}
}

// WithConfigPath sets an explicit config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithSearchPaths adds directories to search for config files.
func (l *Loader) WithSearchPaths(paths ...string) *Loader {
	l.searchPaths = append(l.searchPaths, paths...)
	return l
}

// Viper exposes the underlying viper instance so callers can bind flags.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads the configuration.
func (l *Loader) Load() (*Config, error) {
	const op = "config.Load"

	l.setDefaults()

	if err := l.loadConfigFile(); err != nil {
		return nil, dterrors.ConfigWrap(err, op, "failed to load config file")
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, dterrors.ConfigWrap(err, op, "failed to unmarshal config")
	}

	// Lists cannot be spelled as nested keys in the environment.
	l.readListsFromEnv(cfg)
	l.expandEnvVars(cfg)

	return cfg, nil
}

// setDefaults sets default values using Viper.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	// Server defaults
	l.v.SetDefault("server.address", defaults.Server.Address)
	l.v.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	l.v.SetDefault("server.write_timeout", defaults.Server.WriteTimeout)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	l.v.SetDefault("server.api_key", "")
	l.v.SetDefault("server.rate_limit_per_minute", defaults.Server.RateLimitPerMinute)

	// Storage defaults
	l.v.SetDefault("storage.driver", defaults.Storage.Driver)
	l.v.SetDefault("storage.sqlite_path", defaults.Storage.SQLitePath)

	// Outbox defaults
	l.v.SetDefault("outbox.batch_size", defaults.Outbox.BatchSize)
	l.v.SetDefault("outbox.concurrency", defaults.Outbox.Concurrency)
	l.v.SetDefault("outbox.poll_interval", defaults.Outbox.PollInterval)
	l.v.SetDefault("outbox.rate_per_minute", defaults.Outbox.RatePerMinute)
	l.v.SetDefault("outbox.retry_attempts", defaults.Outbox.RetryAttempts)
	l.v.SetDefault("outbox.retry_initial_wait", defaults.Outbox.RetryInitialWait)
	l.v.SetDefault("outbox.retry_max_wait", defaults.Outbox.RetryMaxWait)
	l.v.SetDefault("outbox.breaker_threshold", defaults.Outbox.BreakerThreshold)
	l.v.SetDefault("outbox.breaker_timeout", defaults.Outbox.BreakerTimeout)

	// Notification defaults
	l.v.SetDefault("notification.default_language", defaults.Notification.DefaultLanguage)
	l.v.SetDefault("notification.catalog", defaults.Notification.Catalog)
	l.v.SetDefault("notification.email.url", "")
	l.v.SetDefault("notification.email.secret", "")
	l.v.SetDefault("notification.web.url", "")
	l.v.SetDefault("notification.web.secret", "")

	// Log defaults
	l.v.SetDefault("log.level", defaults.Log.Level)
	l.v.SetDefault("log.format", defaults.Log.Format)
	l.v.SetDefault("log.redact_personal_data", defaults.Log.RedactPersonalData)

	// Tracing defaults
	l.v.SetDefault("tracing.endpoint", "")
	l.v.SetDefault("tracing.sample_ratio", defaults.Tracing.SampleRatio)

	// Institution defaults
	l.v.SetDefault("institution.reference_prefix", defaults.Institution.ReferencePrefix)
}

// loadConfigFile loads the configuration file.
func (l *Loader) loadConfigFile() error {
	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", l.configPath, err)
		}
		return nil
	}

	if configFile, err := FindConfigFile(l.searchPaths...); err == nil {
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	// No config file found - this is OK, we use defaults
	return nil
}

// readListsFromEnv reads the comma-separated lists from the environment
// when they are set there.
func (l *Loader) readListsFromEnv(cfg *Config) {
	lists := map[string]*[]string{
		"INSTITUTION_ADRE_MANAGERS": &cfg.Institution.ADREManagers,
		"INSTITUTION_ADRI_MANAGERS": &cfg.Institution.ADRIManagers,
		"INSTITUTION_SCEB_MANAGERS": &cfg.Institution.SCEBManagers,
		"SERVER_CORS_ORIGINS":       &cfg.Server.CORSOrigins,
	}
	for key, dst := range lists {
		raw, ok := os.LookupEnv(EnvPrefix + "_" + key)
		if !ok {
			continue
		}
		*dst = splitList(raw)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandEnvVars expands environment variables in sensitive configuration fields.
func (l *Loader) expandEnvVars(cfg *Config) {
	cfg.Notification.Email.URL = expandEnvVar(cfg.Notification.Email.URL)
	cfg.Notification.Email.Secret = expandEnvVar(cfg.Notification.Email.Secret)
	cfg.Notification.Web.URL = expandEnvVar(cfg.Notification.Web.URL)
	cfg.Notification.Web.Secret = expandEnvVar(cfg.Notification.Web.Secret)
	for key, value := range cfg.Notification.Email.Headers {
		cfg.Notification.Email.Headers[key] = expandEnvVar(value)
	}
	for key, value := range cfg.Notification.Web.Headers {
		cfg.Notification.Web.Headers[key] = expandEnvVar(value)
	}
	cfg.Server.APIKey = expandEnvVar(cfg.Server.APIKey)
	cfg.Storage.SQLitePath = expandEnvVar(cfg.Storage.SQLitePath)
}

// expandEnvVar expands environment variables in a string.
// Supports both ${VAR} and $VAR syntax.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		varName := submatch[1]
		defaultValue := ""
		if len(submatch) > 2 {
			defaultValue = submatch[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})

	result = simpleEnvVarPattern.ReplaceAllStringFunc(result, func(match string) string {
		varName := match[1:]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})

	return result
}

// GetConfigPath returns the path to the loaded config file, if any.
func (l *Loader) GetConfigPath() string {
	return l.v.ConfigFileUsed()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}

// FindConfigFile searches for a config file and returns its path.
func FindConfigFile(searchPaths ...string) (string, error) {
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}

	for _, searchPath := range searchPaths {
		for _, name := range ConfigFileNames {
			for _, ext := range ConfigFileExtensions {
				configFile := filepath.Join(searchPath, name+"."+ext)
				if _, err := os.Stat(configFile); err == nil {
					return configFile, nil
				}
			}
		}
	}

	return "", dterrors.NotFound("config.FindConfigFile", "no config file found")
}
