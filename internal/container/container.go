// Package container provides dependency injection for the doctrack services.
package container

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/doctrack/doctrack/internal/application/doctorate"
	"github.com/doctrack/doctrack/internal/config"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
	"github.com/doctrack/doctrack/internal/infrastructure/notification"
	"github.com/doctrack/doctrack/internal/infrastructure/outbox"
	"github.com/doctrack/doctrack/internal/infrastructure/persistence"
	"github.com/doctrack/doctrack/internal/infrastructure/persistence/sqlite"
	"github.com/doctrack/doctrack/internal/observability"
)

// defaultShutdownTimeout is the default timeout for graceful shutdown of components.
const defaultShutdownTimeout = 10 * time.Second

// Closeable represents a component that can be closed/shutdown.
type Closeable interface {
	Close() error
}

// Sinks are the collaborators outbox messages end up in.
type Sinks struct {
	Email   ports.EmailNotifier
	Web     ports.WebNotifier
	History ports.History
	Tasks   ports.TaskScheduler
}

// Option customises a container before it is initialized.
type Option func(*Container)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock ports.Clock) Option {
	return func(c *Container) { c.clock = clock }
}

// WithBackend uses an already opened storage backend instead of the one
// named by the configuration. The container takes ownership of it.
func WithBackend(backend persistence.Backend) Option {
	return func(c *Container) { c.backend = backend }
}

// WithSinks overrides the collaborators chosen from the configuration. Nil
// fields keep the configured collaborator.
func WithSinks(s Sinks) Option {
	return func(c *Container) { c.override = s }
}

// WithMetrics shares a metrics collector with the relay. A fresh one is
// created otherwise.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Container) { c.metrics = m }
}

// Container wires storage, the doctorate service and the outbox relay.
type Container struct {
	config *config.Config
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool

	clock    ports.Clock
	override Sinks
	metrics  *observability.Metrics

	// Infrastructure layer
	backend    persistence.Backend
	catalog    *notification.Catalog
	directory  *notification.Directory
	dispatcher *outbox.Dispatcher
	resilience *outbox.Resilience
	relay      *outbox.Relay

	// Application layer
	service *doctorate.Service

	// Cleanup tracking
	closeables []Closeable
}

// New creates a container with the given configuration.
func New(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, dterrors.Config("container.New", "configuration is required")
	}

	c := &Container{
		config:     cfg,
		logger:     slog.Default().With("component", "container"),
		clock:      ports.RealClock{},
		closeables: make([]Closeable, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = observability.NewMetrics("dev")
	}
	return c, nil
}

// NewInitialized creates and initializes a container.
func NewInitialized(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	if err := c.Initialize(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// registerCloseable registers a component for cleanup during shutdown.
func (c *Container) registerCloseable(closeable Closeable) {
	if closeable != nil {
		c.closeables = append(c.closeables, closeable)
	}
}

// RegisterCloseable allows external components to register for cleanup during shutdown.
// Components are closed in reverse order of registration (LIFO).
func (c *Container) RegisterCloseable(closeable Closeable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registerCloseable(closeable)
}

// Initialize builds every layer of the container.
func (c *Container) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return dterrors.Internal("container.Initialize", "container is closed")
	}

	if err := c.initStorage(ctx); err != nil {
		return err
	}
	if err := c.initOutbox(); err != nil {
		return err
	}
	c.initApplicationLayer()

	c.logger.Debug("container initialized",
		"storage", c.config.Storage.Driver,
		"email_endpoint", c.config.Notification.Email.Enabled(),
		"web_endpoint", c.config.Notification.Web.Enabled(),
	)
	return nil
}

func (c *Container) initStorage(ctx context.Context) error {
	if c.backend != nil {
		c.registerCloseable(c.backend)
		return nil
	}

	switch c.config.Storage.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(c.config.Storage.SQLitePath)
		if err != nil {
			return err
		}
		c.backend = store
	case config.DriverMemory, "":
		c.backend = persistence.NewMemoryBackend()
	default:
		return dterrors.Config("container.initStorage", "unknown storage driver "+c.config.Storage.Driver)
	}

	c.registerCloseable(c.backend)
	return ctx.Err()
}

func (c *Container) initOutbox() error {
	ncfg := c.config.Notification

	var catalogOpts []notification.CatalogOption
	if ncfg.Catalog != "" {
		catalogOpts = append(catalogOpts, notification.WithOverrideFile(ncfg.Catalog))
	}
	if ncfg.DefaultLanguage != "" {
		catalogOpts = append(catalogOpts, notification.WithDefaultLanguage(ncfg.DefaultLanguage))
	}
	catalog, err := notification.NewCatalog(catalogOpts...)
	if err != nil {
		return err
	}
	c.catalog = catalog

	c.directory = directoryFromConfig(ncfg.Persons)

	sinks := c.sinks()
	c.dispatcher = outbox.NewDispatcher(outbox.Collaborators{
		Email:           sinks.Email,
		Web:             sinks.Web,
		History:         sinks.History,
		Tasks:           sinks.Tasks,
		People:          c.directory,
		Templates:       c.catalog,
		Renderer:        notification.NewRenderer(notification.DefaultExecutionTimeout),
		DefaultLanguage: ncfg.DefaultLanguage,
	})

	c.resilience = outbox.NewResilience(resilienceConfig(c.config.Outbox))
	c.registerCloseable(c.resilience)

	c.relay = outbox.NewRelay(c.backend, c.dispatcher, c.resilience, outbox.RelayConfig{
		BatchSize:    c.config.Outbox.BatchSize,
		Concurrency:  c.config.Outbox.Concurrency,
		PollInterval: c.config.Outbox.PollInterval,
		Observer:     c.metrics,
	})
	return nil
}

func (c *Container) initApplicationLayer() {
	inst := c.config.Institution
	c.service = doctorate.NewService(
		persistence.NewUnitOfWorkFactory(c.backend, c.clock),
		c.clock,
		doctorate.Institution{
			ReferencePrefix: inst.ReferencePrefix,
			ADREManagerIDs:  inst.ADREManagers,
			ADRIManagerIDs:  inst.ADRIManagers,
			SCEBManagerIDs:  inst.SCEBManagers,
		},
	)
}

// Service returns the doctorate service.
func (c *Container) Service() *doctorate.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.service
}

// Relay returns the outbox relay.
func (c *Container) Relay() *outbox.Relay {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.relay
}

// Metrics returns the metrics collector.
func (c *Container) Metrics() *observability.Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics
}

// Outbox returns the outbox store of the storage backend.
func (c *Container) Outbox() ports.OutboxStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend
}

// Directory returns the person directory.
func (c *Container) Directory() *notification.Directory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.directory
}

// Catalog returns the notification template catalog.
func (c *Container) Catalog() *notification.Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Close gracefully shuts down the container and all its components.
func (c *Container) Close() error {
	return c.CloseWithTimeout(defaultShutdownTimeout)
}

// CloseWithTimeout gracefully shuts down the container with a custom timeout.
func (c *Container) CloseWithTimeout(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.logger.Debug("initiating container shutdown", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Close all registered closeables in reverse order (LIFO)
	var errs []error
	for i := len(c.closeables) - 1; i >= 0; i-- {
		if err := c.closeWithContext(ctx, c.closeables[i]); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		c.logger.Warn("some components failed to close cleanly", "error_count", len(errs))
		return errs[0]
	}

	c.logger.Debug("container shutdown completed successfully")
	return nil
}

// closeWithContext closes a component with context cancellation support.
func (c *Container) closeWithContext(ctx context.Context, closeable Closeable) error {
	done := make(chan error, 1)
	go func() {
		done <- closeable.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		c.logger.Warn("component close timed out", "error", ctx.Err())
		return ctx.Err()
	}
}
