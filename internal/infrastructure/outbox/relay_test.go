package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
	"github.com/doctrack/doctrack/internal/infrastructure/persistence"
)

// fakeDelivery records the order messages reach it and fails on demand.
type fakeDelivery struct {
	mu        sync.Mutex
	delivered map[string][]string
	failures  map[string]error
	flaky     map[string]int
}

func newFakeDelivery() *fakeDelivery {
	return &fakeDelivery{
		delivered: make(map[string][]string),
		failures:  make(map[string]error),
		flaky:     make(map[string]int),
	}
}

func (f *fakeDelivery) Dispatch(ctx context.Context, msg ports.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failures[msg.ID]; ok {
		return err
	}
	if f.flaky[msg.ID] > 0 {
		f.flaky[msg.ID]--
		return dterrors.DependencyWrap(errors.New("503"), "fake.Dispatch", "unavailable")
	}
	f.delivered[msg.AggregateID] = append(f.delivered[msg.AggregateID], msg.ID)
	return nil
}

func (f *fakeDelivery) order(aggregateID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.delivered[aggregateID]...)
}

func stage(t *testing.T, backend *persistence.MemoryBackend, msgs ...ports.OutboxMessage) {
	t.Helper()
	for i := range msgs {
		msgs[i].Status = ports.StatusPending
		msgs[i].Kind = ports.KindHistory
	}
	require.NoError(t, backend.Apply(context.Background(), persistence.Batch{Outbox: msgs}))
}

func interleaved(aggregates []string, perAggregate int) []ports.OutboxMessage {
	var msgs []ports.OutboxMessage
	for i := 0; i < perAggregate; i++ {
		for _, agg := range aggregates {
			msgs = append(msgs, ports.OutboxMessage{ID: fmt.Sprintf("%s-%d", agg, i), AggregateID: agg})
		}
	}
	return msgs
}

func TestRelay_DeliversEachAggregateInOrder(t *testing.T) {
	backend := persistence.NewMemoryBackend()
	aggregates := []string{"d-1", "d-2", "d-3", "d-4"}
	stage(t, backend, interleaved(aggregates, 5)...)

	delivery := newFakeDelivery()
	relay := NewRelay(backend, delivery, NewResilience(fastRetries()), RelayConfig{Concurrency: 2})

	report, err := relay.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Report{Delivered: 20}, report)
	for _, agg := range aggregates {
		assert.Equal(t,
			[]string{agg + "-0", agg + "-1", agg + "-2", agg + "-3", agg + "-4"},
			delivery.order(agg),
		)
	}

	pending, err := backend.Pending(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	report, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
}

func TestRelay_FailedMessageIsFlaggedAndOthersProceed(t *testing.T) {
	backend := persistence.NewMemoryBackend()
	stage(t, backend,
		ports.OutboxMessage{ID: "a", AggregateID: "d-1"},
		ports.OutboxMessage{ID: "b", AggregateID: "d-1"},
		ports.OutboxMessage{ID: "c", AggregateID: "d-1"},
	)

	delivery := newFakeDelivery()
	delivery.failures["b"] = dterrors.NotFound("fake.Dispatch", "person not found: p-9")
	delivery.flaky["c"] = 2

	relay := NewRelay(backend, delivery, NewResilience(fastRetries()), RelayConfig{})
	report, err := relay.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Report{Delivered: 2, Failed: 1}, report)
	assert.Equal(t, []string{"a", "c"}, delivery.order("d-1"))

	failed, err := backend.Failed(context.Background())
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b", failed[0].ID)
	assert.Equal(t, 1, failed[0].Attempts)
	assert.Contains(t, failed[0].LastError, "person not found")
}

func TestRelay_RetriesAreCountedOnTheMessage(t *testing.T) {
	backend := persistence.NewMemoryBackend()
	stage(t, backend, ports.OutboxMessage{ID: "a", AggregateID: "d-1"})

	delivery := newFakeDelivery()
	delivery.flaky["a"] = 5

	relay := NewRelay(backend, delivery, NewResilience(fastRetries()), RelayConfig{})
	report, err := relay.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Report{Failed: 1}, report)

	failed, err := backend.Failed(context.Background())
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 3, failed[0].Attempts)
}

func TestRelay_OpenBreakerDefersTheRestOfTheGroup(t *testing.T) {
	backend := persistence.NewMemoryBackend()
	stage(t, backend,
		ports.OutboxMessage{ID: "a", AggregateID: "d-1"},
		ports.OutboxMessage{ID: "b", AggregateID: "d-1"},
	)

	delivery := newFakeDelivery()
	delivery.failures["a"] = dterrors.DependencyWrap(errors.New("503"), "fake.Dispatch", "unavailable")

	cfg := fastRetries()
	cfg.RetryAttempts = 1
	cfg.CircuitBreakerEnabled = true
	cfg.CircuitBreakerThreshold = 1
	cfg.CircuitBreakerTimeout = time.Minute
	cfg.CircuitBreakerMaxRequests = 1
	resilience := NewResilience(cfg)

	relay := NewRelay(backend, delivery, resilience, RelayConfig{})
	report, err := relay.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Report{Failed: 1, Deferred: 1}, report)
	assert.Equal(t, "open", resilience.CircuitBreakerState())

	pending, err := backend.Pending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)
}

func TestRelay_RunStopsWithContext(t *testing.T) {
	backend := persistence.NewMemoryBackend()
	stage(t, backend, ports.OutboxMessage{ID: "a", AggregateID: "d-1"})

	delivery := newFakeDelivery()
	relay := NewRelay(backend, delivery, nil, RelayConfig{PollInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(delivery.order("d-1")) == 1
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestGroupByAggregate(t *testing.T) {
	groups := groupByAggregate([]ports.OutboxMessage{
		{ID: "x2", AggregateID: "x", Seq: 4},
		{ID: "y1", AggregateID: "y", Seq: 2},
		{ID: "x1", AggregateID: "x", Seq: 1},
	})

	require.Len(t, groups, 2)
	assert.Equal(t, "x1", groups[0][0].ID)
	assert.Equal(t, "x2", groups[0][1].ID)
	assert.Equal(t, "y1", groups[1][0].ID)
}

type countingObserver struct {
	mu                          sync.Mutex
	passes                      int
	delivered, failed, deferred int
}

func (o *countingObserver) ObserveRelay(delivered, failed, deferred int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.passes++
	o.delivered += delivered
	o.failed += failed
	o.deferred += deferred
}

func TestRelay_ReportsEveryPassToTheObserver(t *testing.T) {
	backend := persistence.NewMemoryBackend()
	stage(t, backend,
		ports.OutboxMessage{ID: "a", AggregateID: "d-1"},
		ports.OutboxMessage{ID: "b", AggregateID: "d-2"},
	)
	delivery := newFakeDelivery()
	delivery.failures["b"] = dterrors.Validation("fake.Dispatch", "no template")
	observer := &countingObserver{}

	relay := NewRelay(backend, delivery, NewResilience(fastRetries()), RelayConfig{Observer: observer})
	_, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	_, err = relay.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, observer.passes)
	assert.Equal(t, 1, observer.delivered)
	assert.Equal(t, 1, observer.failed)
	assert.Zero(t, observer.deferred)
}
