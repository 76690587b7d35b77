package ports

import (
	"context"
	"encoding/json"
	"time"
)

// MessageKind identifies the collaborator an outbox message is delivered to.
type MessageKind string

// Message kinds.
const (
	KindHistory MessageKind = "history"
	KindEmail   MessageKind = "email"
	KindWeb     MessageKind = "web"
	KindTask    MessageKind = "task"
)

// MessageStatus is the delivery state of an outbox message.
type MessageStatus string

// Message statuses.
const (
	StatusPending   MessageStatus = "pending"
	StatusDelivered MessageStatus = "delivered"
	StatusFailed    MessageStatus = "failed"
)

// OutboxMessage is a side effect recorded with a command and delivered
// after commit. Seq orders the messages of one aggregate.
type OutboxMessage struct {
	ID          string          `json:"id"`
	AggregateID string          `json:"aggregate_id"`
	Seq         int64           `json:"seq"`
	Kind        MessageKind     `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Status      MessageStatus   `json:"status"`
	Attempts    int             `json:"attempts"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OutboxStore reads and flags staged messages.
type OutboxStore interface {
	// Pending returns up to limit pending messages ordered by aggregate and
	// sequence.
	Pending(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkDelivered(ctx context.Context, id string, attempts int) error
	MarkFailed(ctx context.Context, id string, attempts int, lastError string) error
	// Failed returns the messages that exhausted their delivery attempts.
	Failed(ctx context.Context) ([]OutboxMessage, error)
}

// HistoryEntry is the payload of a history message.
type HistoryEntry struct {
	ObjectID string    `json:"object_id"`
	Tags     []string  `json:"tags"`
	Message  string    `json:"message"`
	Author   string    `json:"author"`
	At       time.Time `json:"at"`
}

// Email is a rendered email handed to the EmailNotifier.
type Email struct {
	To       []string `json:"to"`
	Cc       []string `json:"cc,omitempty"`
	Subject  string   `json:"subject"`
	HTML     string   `json:"html"`
	Plain    string   `json:"plain"`
	Language string   `json:"language"`
	PersonID string   `json:"person_id,omitempty"`
}

// Recipient addresses a notification. Internal persons are given by id and
// resolved through the PersonDirectory at delivery; externals carry their
// address.
type Recipient struct {
	PersonID string `json:"person_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Language string `json:"language,omitempty"`
}

// EmailRequest is the payload of an email message. A request with a Subject
// and a Body is sent as written by the manager; otherwise Template is
// resolved for ManagementEntity and rendered with Vars at delivery.
type EmailRequest struct {
	Template         string            `json:"template,omitempty"`
	ManagementEntity string            `json:"management_entity,omitempty"`
	To               []Recipient       `json:"to"`
	Cc               []Recipient       `json:"cc,omitempty"`
	Subject          string            `json:"subject,omitempty"`
	Body             string            `json:"body,omitempty"`
	Vars             map[string]string `json:"vars,omitempty"`
}

// WebRequest is the payload of a web message, rendered like an
// EmailRequest template.
type WebRequest struct {
	PersonID         string            `json:"person_id"`
	Template         string            `json:"template"`
	ManagementEntity string            `json:"management_entity,omitempty"`
	Vars             map[string]string `json:"vars,omitempty"`
}

// WebNotification is a rendered web notification.
type WebNotification struct {
	PersonID string `json:"person_id"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// Task is the payload of an async task message.
type Task struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Owner       string            `json:"owner"`
	Kind        string            `json:"kind"`
	Context     map[string]string `json:"context,omitempty"`
}
