package outbox

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

func fastRetries() ResilienceConfig {
	return ResilienceConfig{
		RetryAttempts:    3,
		RetryInitialWait: time.Millisecond,
		RetryMaxWait:     2 * time.Millisecond,
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), false},
		{"malformed payload", dterrors.Validation("op", "bad"), false},
		{"unknown person", fmt.Errorf("resolve: %w", dterrors.NotFound("op", "missing")), false},
		{"collaborator down", dterrors.DependencyWrap(errors.New("503"), "op", "down"), true},
		{"plain error", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestResilience_RetriesTransientFailures(t *testing.T) {
	r := NewResilience(fastRetries())
	defer r.Close()

	calls := 0
	attempts, err := r.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return dterrors.DependencyWrap(errors.New("timeout"), "op", "down")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "disabled", r.CircuitBreakerState())
}

func TestResilience_StopsOnPermanentFailure(t *testing.T) {
	r := NewResilience(fastRetries())

	attempts, err := r.Execute(context.Background(), func(context.Context) error {
		return dterrors.Validation("op", "rejected")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestResilience_Nil(t *testing.T) {
	var r *Resilience

	attempts, err := r.Execute(context.Background(), func(context.Context) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, "disabled", r.CircuitBreakerState())
	assert.NoError(t, r.Close())
}
