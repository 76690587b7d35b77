package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
)

// Recorder keeps every delivered side effect in memory. It backs the
// memory storage driver and tests.
type Recorder struct {
	mu      sync.RWMutex
	emails  []ports.Email
	web     []ports.WebNotification
	history []ports.HistoryEntry
	tasks   []ports.Task
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record implements ports.History.
func (r *Recorder) Record(ctx context.Context, entry ports.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, entry)
	return nil
}

// Schedule implements ports.TaskScheduler.
func (r *Recorder) Schedule(ctx context.Context, task ports.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return nil
}

// EmailNotifier returns the email side of the recorder.
func (r *Recorder) EmailNotifier() ports.EmailNotifier {
	return recordedEmails{r}
}

// WebNotifier returns the web side of the recorder.
func (r *Recorder) WebNotifier() ports.WebNotifier {
	return recordedWeb{r}
}

type recordedEmails struct{ r *Recorder }

func (e recordedEmails) Send(ctx context.Context, email ports.Email) error {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	e.r.emails = append(e.r.emails, email)
	return nil
}

type recordedWeb struct{ r *Recorder }

func (w recordedWeb) Send(ctx context.Context, n ports.WebNotification) error {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	w.r.web = append(w.r.web, n)
	return nil
}

// Emails returns the emails sent so far.
func (r *Recorder) Emails() []ports.Email {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ports.Email{}, r.emails...)
}

// WebNotifications returns the web notifications sent so far.
func (r *Recorder) WebNotifications() []ports.WebNotification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ports.WebNotification{}, r.web...)
}

// Tasks returns the scheduled tasks.
func (r *Recorder) Tasks() []ports.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ports.Task{}, r.tasks...)
}

// HistoryOf returns the history entries of one object, oldest first.
func (r *Recorder) HistoryOf(objectID string) []ports.HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ports.HistoryEntry
	for _, e := range r.history {
		if e.ObjectID == objectID {
			result = append(result, e)
		}
	}
	return result
}

// Clear forgets everything recorded.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = r.emails[:0]
	r.web = r.web[:0]
	r.history = r.history[:0]
	r.tasks = r.tasks[:0]
}

// Log writes every side effect to a structured logger. It stands in for
// collaborators that have no endpoint configured.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logging sink.
func NewLog() *Log {
	return &Log{logger: slog.Default().With("component", "notification_log")}
}

// Record implements ports.History.
func (l *Log) Record(ctx context.Context, entry ports.HistoryEntry) error {
	l.logger.InfoContext(ctx, "history",
		"object_id", entry.ObjectID,
		"tags", entry.Tags,
		"author", entry.Author,
		"message", entry.Message,
	)
	return nil
}

// Schedule implements ports.TaskScheduler.
func (l *Log) Schedule(ctx context.Context, task ports.Task) error {
	l.logger.InfoContext(ctx, "task scheduled",
		"name", task.Name,
		"kind", task.Kind,
		"owner", task.Owner,
	)
	return nil
}

// EmailNotifier returns the email side of the sink.
func (l *Log) EmailNotifier() ports.EmailNotifier {
	return loggedEmails{l.logger}
}

// WebNotifier returns the web side of the sink.
func (l *Log) WebNotifier() ports.WebNotifier {
	return loggedWeb{l.logger}
}

type loggedEmails struct{ logger *slog.Logger }

func (e loggedEmails) Send(ctx context.Context, email ports.Email) error {
	e.logger.InfoContext(ctx, "email",
		"to", email.To,
		"cc", email.Cc,
		"subject", email.Subject,
		"language", email.Language,
	)
	return nil
}

type loggedWeb struct{ logger *slog.Logger }

func (w loggedWeb) Send(ctx context.Context, n ports.WebNotification) error {
	w.logger.InfoContext(ctx, "web notification",
		"person_id", n.PersonID,
		"language", n.Language,
	)
	return nil
}

var (
	_ ports.History       = (*Recorder)(nil)
	_ ports.TaskScheduler = (*Recorder)(nil)
	_ ports.History       = (*Log)(nil)
	_ ports.TaskScheduler = (*Log)(nil)
)
