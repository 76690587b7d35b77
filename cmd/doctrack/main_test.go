package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitForCancel(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRun_ExitCodes(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		parent  context.Context
		execErr error
		want    int
		stderr  string
	}{
		{"success", context.Background(), nil, 0, ""},
		{"command error", context.Background(), errors.New("relay pass failed"), 1, "Error: relay pass failed"},
		{"canceled", canceled, errors.New("interrupted"), 130, "Operation canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &lockedBuffer{}
			cleaned := false

			code := run(tt.parent, nil, func(context.Context) error { return tt.execErr },
				func() { cleaned = true }, out, func(int) {})

			if code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
			if !cleaned {
				t.Error("cleanup was not called")
			}
			if tt.stderr == "" && out.String() != "" {
				t.Errorf("stderr not empty: %q", out.String())
			}
			if !strings.Contains(out.String(), tt.stderr) {
				t.Errorf("stderr = %q, want %q", out.String(), tt.stderr)
			}
		})
	}
}

func TestRun_SignalCancelsCommand(t *testing.T) {
	out := &lockedBuffer{}
	sigChan := make(chan os.Signal, 1)
	sigChan <- os.Interrupt

	code := run(context.Background(), sigChan, waitForCancel, func() {}, out, func(int) {
		t.Error("a single signal must not force exit")
	})

	if code != 130 {
		t.Fatalf("exit code = %d, want 130", code)
	}
	if !strings.Contains(out.String(), "Received signal") {
		t.Fatalf("stderr = %q, want signal output", out.String())
	}
}

func TestRun_SecondSignalForcesExit(t *testing.T) {
	out := &lockedBuffer{}
	sigChan := make(chan os.Signal, 2)
	sigChan <- os.Interrupt
	sigChan <- os.Interrupt

	exitCalled := make(chan int, 1)
	code := run(context.Background(), sigChan, waitForCancel, func() {}, out, func(code int) {
		exitCalled <- code
	})

	if code != 130 {
		t.Fatalf("exit code = %d, want 130", code)
	}
	select {
	case forced := <-exitCalled:
		if forced != 1 {
			t.Errorf("forced exit code = %d, want 1", forced)
		}
	default:
		t.Fatal("expected exit function to be called on second signal")
	}
}
