package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestNewEventEnvelope(t *testing.T) {
	event := NewEvent(EventMessageFlagged, MessageFlaggedEvent{
		GroupID: "g-1",
		UserID:  "u-1",
		Blocked: true,
	})

	if event.ID == "" {
		t.Error("event ID should not be empty")
	}
	if event.Source != "placement-chat-service" {
		t.Errorf("Source = %q, want placement-chat-service", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("Version = %q, want 1.0", event.Version)
	}
	if event.Timestamp.IsZero() {
		t.Error("event timestamp should not be zero")
	}
	if event.Type != "chat.message_flagged" {
		t.Errorf("Type = %q", event.Type)
	}
}

func TestMockEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := NewMockEventPublisher(logger)
	ctx := context.Background()

	if err := publisher.Publish(ctx, NewEvent(EventSyncCompleted, SyncCompletedEvent{Success: 3, Failed: 1})); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("got %d events, want 1", len(published))
	}
	if published[0].Type != EventSyncCompleted {
		t.Errorf("Type = %q", published[0].Type)
	}

	publisher.ClearEvents()
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Error("ClearEvents should drop recorded events")
	}
}
