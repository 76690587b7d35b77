package container

import (
	"github.com/doctrack/doctrack/internal/config"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	"github.com/doctrack/doctrack/internal/infrastructure/notification"
	"github.com/doctrack/doctrack/internal/infrastructure/outbox"
)

// sinks picks an HTTP notifier for every configured endpoint and logs
// everything else. Overrides given with WithSinks win.
func (c *Container) sinks() Sinks {
	ncfg := c.config.Notification
	logSink := notification.NewLog()

	s := Sinks{
		Email:   logSink.EmailNotifier(),
		Web:     logSink.WebNotifier(),
		History: logSink,
		Tasks:   logSink,
	}
	if ncfg.Email.Enabled() {
		s.Email = notification.NewEmailNotifier(endpointFromConfig(ncfg.Email))
	}
	if ncfg.Web.Enabled() {
		s.Web = notification.NewWebNotifier(endpointFromConfig(ncfg.Web))
	}

	if c.override.Email != nil {
		s.Email = c.override.Email
	}
	if c.override.Web != nil {
		s.Web = c.override.Web
	}
	if c.override.History != nil {
		s.History = c.override.History
	}
	if c.override.Tasks != nil {
		s.Tasks = c.override.Tasks
	}
	return s
}

// endpointFromConfig converts an endpoint section to a notifier endpoint.
func endpointFromConfig(cfg config.EndpointConfig) notification.Endpoint {
	return notification.Endpoint{
		URL:     cfg.URL,
		Secret:  cfg.Secret,
		Timeout: cfg.Timeout,
		Headers: cfg.Headers,
	}
}

// directoryFromConfig seeds the person directory.
func directoryFromConfig(persons []config.PersonConfig) *notification.Directory {
	dir := notification.NewDirectory()
	for _, p := range persons {
		dir.Add(ports.Person{
			ID:        p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Email:     p.Email,
			Language:  p.Language,
		})
	}
	return dir
}

// resilienceConfig maps the outbox section to the delivery wrapper. A zero
// breaker threshold disables the circuit breaker.
func resilienceConfig(cfg config.OutboxConfig) outbox.ResilienceConfig {
	return outbox.ResilienceConfig{
		RatePerMinute:             cfg.RatePerMinute,
		RetryAttempts:             cfg.RetryAttempts,
		RetryInitialWait:          cfg.RetryInitialWait,
		RetryMaxWait:              cfg.RetryMaxWait,
		CircuitBreakerEnabled:     cfg.BreakerThreshold > 0,
		CircuitBreakerThreshold:   cfg.BreakerThreshold,
		CircuitBreakerTimeout:     cfg.BreakerTimeout,
		CircuitBreakerMaxRequests: 1,
	}
}
