package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	// EventSource identifies this service in event envelopes
	EventSource = "placement-chat-service"

	// EventVersion is the envelope schema version
	EventVersion = "1.0"
)

// Event types published by the chat service
const (
	EventMessageFlagged = "chat.message_flagged"
	EventSyncCompleted  = "leetcode.sync_completed"
	EventNotification   = "system.notification"
)

// Event is the envelope every published event travels in
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent builds an envelope with a fresh id and timestamp
func NewEvent(eventType string, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// MessageFlaggedEvent is the payload of chat.message_flagged
type MessageFlaggedEvent struct {
	GroupID    string   `json:"group_id"`
	UserID     string   `json:"user_id"`
	Categories []string `json:"categories"`
	Reason     string   `json:"reason,omitempty"`
	Blocked    bool     `json:"blocked"`
}

// SyncCompletedEvent is the payload of leetcode.sync_completed
type SyncCompletedEvent struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}
