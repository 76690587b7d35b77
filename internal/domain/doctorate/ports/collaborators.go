package ports

import (
	"context"
)

// EmailNotifier sends emails.
type EmailNotifier interface {
	Send(ctx context.Context, email Email) error
}

// WebNotifier pushes in-app notifications.
type WebNotifier interface {
	Send(ctx context.Context, n WebNotification) error
}

// History records auditable entries about an object.
type History interface {
	Record(ctx context.Context, entry HistoryEntry) error
}

// TaskScheduler hands work to the async task queue.
type TaskScheduler interface {
	Schedule(ctx context.Context, task Task) error
}

// Person is the contact information of an internal person.
type Person struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Language  string
}

// PersonDirectory resolves internal persons.
type PersonDirectory interface {
	// Lookup returns a KindNotFound error for unknown persons.
	Lookup(ctx context.Context, personID string) (Person, error)
}

// Template is a notification template before rendering.
type Template struct {
	Subject string
	Body    string
}

// TemplateResolver selects the template of a notification: the management
// entity override wins over the generic template, then the requested
// language, then the default language.
type TemplateResolver interface {
	Resolve(name, managementEntity, language string) (Template, error)
}
