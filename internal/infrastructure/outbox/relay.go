package outbox

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
)

// Default relay settings.
const (
	DefaultBatchSize    = 100
	DefaultConcurrency  = 8
	DefaultPollInterval = 5 * time.Second
)

// Delivery sends one message to its collaborator.
type Delivery interface {
	Dispatch(ctx context.Context, msg ports.OutboxMessage) error
}

// Report summarises one relay pass.
type Report struct {
	Delivered int
	Failed    int
	// Deferred counts messages left pending while the circuit breaker
	// was open.
	Deferred int
}

// ReportObserver receives the outcome of every relay pass.
type ReportObserver interface {
	ObserveRelay(delivered, failed, deferred int)
}

// RelayConfig configures a Relay.
type RelayConfig struct {
	BatchSize    int
	Concurrency  int
	PollInterval time.Duration
	// Observer is optional.
	Observer ReportObserver
}

// Relay publishes pending outbox messages. Messages of one doctorate are
// delivered in sequence order; doctorates are processed in parallel.
type Relay struct {
	store      ports.OutboxStore
	delivery   Delivery
	resilience *Resilience
	cfg        RelayConfig
	limiter    *semaphore.Weighted
	logger     *slog.Logger
}

// NewRelay creates a relay. A nil resilience delivers every message once.
func NewRelay(store ports.OutboxStore, delivery Delivery, resilience *Resilience, cfg RelayConfig) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Relay{
		store:      store,
		delivery:   delivery,
		resilience: resilience,
		cfg:        cfg,
		limiter:    semaphore.NewWeighted(int64(cfg.Concurrency)),
		logger:     slog.Default().With("component", "outbox_relay"),
	}
}

// RunOnce delivers one batch of pending messages. Delivery failures are
// logged and flagged on the message; only store failures are returned.
func (r *Relay) RunOnce(ctx context.Context) (Report, error) {
	pending, err := r.store.Pending(ctx, r.cfg.BatchSize)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read pending messages: %w", err)
	}
	if len(pending) == 0 {
		r.observe(Report{})
		return Report{}, nil
	}

	var (
		mu     sync.Mutex
		report Report
	)
	add := func(part Report) {
		mu.Lock()
		defer mu.Unlock()
		report.Delivered += part.Delivered
		report.Failed += part.Failed
		report.Deferred += part.Deferred
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, group := range groupByAggregate(pending) {
		g.Go(func() error {
			if err := r.limiter.Acquire(gCtx, 1); err != nil {
				return err
			}
			defer r.limiter.Release(1)

			part, err := r.deliverGroup(gCtx, group)
			add(part)
			return err
		})
	}
	err = g.Wait()

	r.logger.Info("outbox batch processed",
		"delivered", report.Delivered,
		"failed", report.Failed,
		"deferred", report.Deferred,
	)
	r.observe(report)
	return report, err
}

func (r *Relay) observe(report Report) {
	if r.cfg.Observer != nil {
		r.cfg.Observer.ObserveRelay(report.Delivered, report.Failed, report.Deferred)
	}
}

// Run polls the outbox until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("outbox relay pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// deliverGroup delivers the messages of one aggregate in order. A failed
// message is flagged and the following ones still go out. When the breaker
// opens the rest of the group stays pending for the next pass.
func (r *Relay) deliverGroup(ctx context.Context, group []ports.OutboxMessage) (Report, error) {
	var report Report
	for i, msg := range group {
		if r.resilience.CircuitBreakerState() == "open" {
			report.Deferred += len(group) - i
			return report, nil
		}

		attempts, err := r.resilience.Execute(ctx, func(ctx context.Context) error {
			return r.delivery.Dispatch(ctx, msg)
		})
		attempts += msg.Attempts

		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			r.logger.Warn("outbox delivery failed",
				"message_id", msg.ID,
				"aggregate_id", msg.AggregateID,
				"kind", msg.Kind,
				"attempts", attempts,
				"error", err,
			)
			if ferr := r.store.MarkFailed(ctx, msg.ID, attempts, err.Error()); ferr != nil {
				return report, fmt.Errorf("failed to flag message %s: %w", msg.ID, ferr)
			}
			report.Failed++
			continue
		}

		if err := r.store.MarkDelivered(ctx, msg.ID, attempts); err != nil {
			return report, fmt.Errorf("failed to mark message %s delivered: %w", msg.ID, err)
		}
		report.Delivered++
	}
	return report, nil
}

// groupByAggregate splits messages per aggregate, keeping sequence order
// inside each group and first-seen order across groups.
func groupByAggregate(msgs []ports.OutboxMessage) [][]ports.OutboxMessage {
	index := make(map[string]int)
	var groups [][]ports.OutboxMessage
	for _, m := range msgs {
		i, ok := index[m.AggregateID]
		if !ok {
			i = len(groups)
			index[m.AggregateID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], m)
	}
	for _, g := range groups {
		slices.SortStableFunc(g, func(a, b ports.OutboxMessage) int {
			return cmp.Compare(a.Seq, b.Seq)
		})
	}
	return groups
}
