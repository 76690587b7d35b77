// Package observability provides the metrics and tracing of doctrack.
package observability

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// Command outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics collects command and outbox counters. It exposes them in the
// Prometheus text format.
type Metrics struct {
	mu       sync.RWMutex
	commands map[commandKey]*commandStats

	delivered atomic.Int64
	failed    atomic.Int64
	deferred  atomic.Int64
	passes    atomic.Int64

	version   string
	startTime time.Time
}

type commandKey struct {
	action  string
	outcome string
}

type commandStats struct {
	count     atomic.Int64
	latencyMS atomic.Int64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(version string) *Metrics {
	return &Metrics{
		commands:  make(map[commandKey]*commandStats),
		version:   version,
		startTime: time.Now(),
	}
}

// Outcome classifies a command error. Business rule violations, permission
// and lookup failures are rejections; anything else is an error.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var be *dterrors.BusinessError
	var me *dterrors.MultipleBusinessErrors
	if errors.As(err, &be) || errors.As(err, &me) {
		return OutcomeRejected
	}
	switch dterrors.GetKind(err) {
	case dterrors.KindValidation, dterrors.KindPermission, dterrors.KindNotFound,
		dterrors.KindConflict, dterrors.KindConcurrentModification:
		return OutcomeRejected
	}
	return OutcomeError
}

// ObserveCommand records one command execution.
func (m *Metrics) ObserveCommand(action string, err error, duration time.Duration) {
	key := commandKey{action: action, outcome: Outcome(err)}

	m.mu.RLock()
	stats := m.commands[key]
	m.mu.RUnlock()

	if stats == nil {
		m.mu.Lock()
		if m.commands[key] == nil {
			m.commands[key] = &commandStats{}
		}
		stats = m.commands[key]
		m.mu.Unlock()
	}

	stats.count.Add(1)
	stats.latencyMS.Add(duration.Milliseconds())
}

// ObserveRelay records the outcome of one relay pass.
func (m *Metrics) ObserveRelay(delivered, failed, deferred int) {
	m.passes.Add(1)
	m.delivered.Add(int64(delivered))
	m.failed.Add(int64(failed))
	m.deferred.Add(int64(deferred))
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var sb strings.Builder

		writeMetric(&sb, "doctrack_info", "gauge", "Build information")
		sb.WriteString(fmt.Sprintf("doctrack_info{version=%q} 1\n\n", m.version))

		writeMetric(&sb, "doctrack_uptime_seconds", "gauge", "Uptime in seconds")
		sb.WriteString(fmt.Sprintf("doctrack_uptime_seconds %.2f\n\n", time.Since(m.startTime).Seconds()))

		snap := m.Snapshot()

		writeMetric(&sb, "doctrack_commands_total", "counter", "Doctorate commands by action and outcome")
		for _, c := range snap.Commands {
			sb.WriteString(fmt.Sprintf("doctrack_commands_total{action=%q,outcome=%q} %d\n", c.Action, c.Outcome, c.Count))
		}
		sb.WriteString("\n")

		writeMetric(&sb, "doctrack_command_duration_milliseconds", "summary", "Doctorate command duration")
		for _, c := range snap.Commands {
			sb.WriteString(fmt.Sprintf("doctrack_command_duration_milliseconds_count{action=%q,outcome=%q} %d\n", c.Action, c.Outcome, c.Count))
			sb.WriteString(fmt.Sprintf("doctrack_command_duration_milliseconds_sum{action=%q,outcome=%q} %d\n", c.Action, c.Outcome, c.LatencyMS))
		}
		sb.WriteString("\n")

		writeMetric(&sb, "doctrack_outbox_passes_total", "counter", "Outbox relay passes")
		sb.WriteString(fmt.Sprintf("doctrack_outbox_passes_total %d\n\n", snap.RelayPasses))

		writeMetric(&sb, "doctrack_outbox_messages_total", "counter", "Outbox messages by delivery result")
		sb.WriteString(fmt.Sprintf("doctrack_outbox_messages_total{result=\"delivered\"} %d\n", snap.Delivered))
		sb.WriteString(fmt.Sprintf("doctrack_outbox_messages_total{result=\"failed\"} %d\n", snap.Failed))
		sb.WriteString(fmt.Sprintf("doctrack_outbox_messages_total{result=\"deferred\"} %d\n", snap.Deferred))

		_, _ = w.Write([]byte(sb.String()))
	})
}

func writeMetric(sb *strings.Builder, name, kind, help string) {
	sb.WriteString("# HELP " + name + " " + help + "\n")
	sb.WriteString("# TYPE " + name + " " + kind + "\n")
}

// CommandSnapshot is the count of one action and outcome.
type CommandSnapshot struct {
	Action    string
	Outcome   string
	Count     int64
	LatencyMS int64
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Commands    []CommandSnapshot
	RelayPasses int64
	Delivered   int64
	Failed      int64
	Deferred    int64
	Uptime      time.Duration
}

// Snapshot returns a snapshot of current metrics. Commands are sorted by
// action then outcome.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	commands := make([]CommandSnapshot, 0, len(m.commands))
	for k, s := range m.commands {
		commands = append(commands, CommandSnapshot{
			Action:    k.action,
			Outcome:   k.outcome,
			Count:     s.count.Load(),
			LatencyMS: s.latencyMS.Load(),
		})
	}
	m.mu.RUnlock()

	sort.Slice(commands, func(i, j int) bool {
		if commands[i].Action != commands[j].Action {
			return commands[i].Action < commands[j].Action
		}
		return commands[i].Outcome < commands[j].Outcome
	})

	return MetricsSnapshot{
		Commands:    commands,
		RelayPasses: m.passes.Load(),
		Delivered:   m.delivered.Load(),
		Failed:      m.failed.Load(),
		Deferred:    m.deferred.Load(),
		Uptime:      time.Since(m.startTime),
	}
}
