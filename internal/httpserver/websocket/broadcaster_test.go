package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/doctrack/doctrack/internal/httpserver/dto"
)

func TestChangeBroadcaster_PublishWithoutClients(t *testing.T) {
	hub := NewHub()
	broadcaster := NewChangeBroadcaster(hub)

	// Must not block or panic when nobody listens.
	broadcaster.Publish(context.Background(), dto.ChangeEvent{DoctorateID: "doc-1", Action: "submit_confirmation"})

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
}

func TestToMessage(t *testing.T) {
	tests := []struct {
		name     string
		event    dto.ChangeEvent
		wantType string
	}{
		{"creation", dto.ChangeEvent{DoctorateID: "doc-1", Status: "ADMITTED"}, TypeDoctorateCreated},
		{"command", dto.ChangeEvent{DoctorateID: "doc-1", Action: "submit_confirmation", Status: "SUBMITTED_CONFIRMATION"}, TypeDoctorateChanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := toMessage(tt.event)
			if msg.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", msg.Type, tt.wantType)
			}
			event, ok := msg.Payload.(dto.ChangeEvent)
			if !ok {
				t.Fatalf("Payload is %T", msg.Payload)
			}
			if event.Timestamp.IsZero() {
				t.Error("Timestamp should default to now")
			}
		})
	}
}

func TestHub_FanOutHonoursFilter(t *testing.T) {
	hub := NewHub()
	all := &Client{hub: hub, send: make(chan []byte, 1)}
	mine := &Client{hub: hub, send: make(chan []byte, 1), doctorateID: "doc-1"}
	other := &Client{hub: hub, send: make(chan []byte, 1), doctorateID: "doc-2"}
	hub.clients[all] = true
	hub.clients[mine] = true
	hub.clients[other] = true

	hub.fanOut(envelope{doctorateID: "doc-1", data: []byte(`{}`)})

	if len(all.send) != 1 || len(mine.send) != 1 {
		t.Error("unfiltered and matching clients should receive the message")
	}
	if len(other.send) != 0 {
		t.Error("clients watching another doctorate should not receive the message")
	}
}

func TestHub_FanOutDropsSlowClients(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, send: make(chan []byte)}
	hub.clients[slow] = true

	hub.fanOut(envelope{doctorateID: "doc-1", data: []byte(`{}`)})

	if hub.ClientCount() != 0 {
		t.Errorf("slow client should be dropped, %d left", hub.ClientCount())
	}
}

func TestHub_BroadcastAfterClose(t *testing.T) {
	hub := NewHub()
	hub.Close()
	hub.Close()

	hub.Broadcast("doc-1", Message{Type: TypeDoctorateChanged})

	if len(hub.broadcast) != 0 {
		t.Error("closed hub should not queue messages")
	}
}

func TestHub_RunDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- client
	hub.Broadcast("doc-1", Message{Type: TypeDoctorateChanged, Payload: map[string]string{"status": "ADMITTED"}})

	select {
	case data := <-client.send:
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("invalid frame: %v", err)
		}
		if msg.Type != TypeDoctorateChanged {
			t.Errorf("Type = %q", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}
