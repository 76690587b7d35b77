package websocket

import (
	"context"
	"time"

	"github.com/doctrack/doctrack/internal/httpserver/dto"
)

// Message types of the live feed.
const (
	TypeDoctorateCreated = "doctorate.created"
	TypeDoctorateChanged = "doctorate.changed"
)

// ChangeBroadcaster pushes command outcomes to live feed subscribers.
type ChangeBroadcaster struct {
	hub *Hub
}

// NewChangeBroadcaster creates a broadcaster over hub.
func NewChangeBroadcaster(hub *Hub) *ChangeBroadcaster {
	return &ChangeBroadcaster{hub: hub}
}

// Publish broadcasts one change. It never blocks on slow subscribers.
func (b *ChangeBroadcaster) Publish(_ context.Context, event dto.ChangeEvent) {
	b.hub.Broadcast(event.DoctorateID, toMessage(event))
}

func toMessage(event dto.ChangeEvent) Message {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	msgType := TypeDoctorateChanged
	if event.Action == "" {
		msgType = TypeDoctorateCreated
	}
	return Message{Type: msgType, Payload: event}
}
