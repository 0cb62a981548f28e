// Package realtime implements the chat socket layer: the JSON event
// protocol, the redis fan-out hub, and the per-connection session handler.
// All events are serialized as JSON with a type discriminator.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Client -> Server event types.
const (
	TypeJoinGroup        = "join-group"
	TypeSendMessage      = "send-message"
	TypeTyping           = "typing"
	TypeNotificationRead = "notification-read"
	TypePing             = "ping"
)

// Server -> Client event types.
const (
	TypeJoined         = "joined"
	TypeMessage        = "message"
	TypeUserTyping     = "user-typing"
	TypeMessageBlocked = "message-blocked"
	TypeNotification   = "notification"
	TypeRateLimited    = "rate-limited"
	TypeError          = "error"
	TypePong           = "pong"
)

// Envelope holds the event type and the raw JSON payload for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the full raw bytes and extracts only the "type"
// field so the rest of the payload can be decoded later.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("realtime: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("realtime: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------------
// Client -> Server event structs
// ---------------------------------------------------------------------------

// JoinGroupEvent asks to subscribe to a group's message stream.
type JoinGroupEvent struct {
	Type    string `json:"type"`
	GroupID string `json:"group_id"`
}

// SendMessageEvent carries a new chat message for a group.
type SendMessageEvent struct {
	Type    string `json:"type"`
	GroupID string `json:"group_id"`
	Content string `json:"content"`
}

// TypingEvent signals whether the sender is currently typing in a group.
type TypingEvent struct {
	Type     string `json:"type"`
	GroupID  string `json:"group_id"`
	IsTyping bool   `json:"is_typing"`
}

// NotificationReadEvent acknowledges a notification.
type NotificationReadEvent struct {
	Type           string `json:"type"`
	NotificationID string `json:"notification_id"`
}

// PingEvent is a client-initiated keepalive.
type PingEvent struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Server -> Client event structs
// ---------------------------------------------------------------------------

// JoinedEvent confirms a group subscription.
type JoinedEvent struct {
	Type    string `json:"type"`
	GroupID string `json:"group_id"`
}

// UserTypingEvent relays another member's typing indicator.
type UserTypingEvent struct {
	Type     string `json:"type"`
	GroupID  string `json:"group_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// MessageBlockedEvent tells the sender their message was stopped by
// moderation.
type MessageBlockedEvent struct {
	Type       string   `json:"type"`
	GroupID    string   `json:"group_id"`
	Reason     string   `json:"reason,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// RateLimitedEvent tells the sender they are sending too fast.
type RateLimitedEvent struct {
	Type       string `json:"type"`
	RetryAfter int    `json:"retry_after"`
}

// ErrorEvent communicates an error condition to the client.
type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongEvent answers a client ping.
type PongEvent struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// ParseClientEvent parses raw socket bytes into a typed client event. An
// error is returned for unknown or server-only event types.
func ParseClientEvent(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("realtime: failed to parse event: %w", err)
	}

	var (
		event interface{}
		err   error
	)

	switch env.Type {
	case TypeJoinGroup:
		var e JoinGroupEvent
		err = json.Unmarshal(env.Raw, &e)
		event = e
	case TypeSendMessage:
		var e SendMessageEvent
		err = json.Unmarshal(env.Raw, &e)
		event = e
	case TypeTyping:
		var e TypingEvent
		err = json.Unmarshal(env.Raw, &e)
		event = e
	case TypeNotificationRead:
		var e NotificationReadEvent
		err = json.Unmarshal(env.Raw, &e)
		event = e
	case TypePing:
		var e PingEvent
		err = json.Unmarshal(env.Raw, &e)
		event = e
	default:
		return env.Type, nil, fmt.Errorf("realtime: unknown client event type: %q", env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("realtime: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, event, nil
}

// NewServerEvent creates a JSON-encoded byte slice for a server event. The
// eventType is injected into the payload under the "type" key.
func NewServerEvent(eventType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("realtime: failed to marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("realtime: failed to unmarshal payload into map: %w", err)
	}

	m["type"] = eventType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("realtime: failed to marshal server event: %w", err)
	}
	return out, nil
}
