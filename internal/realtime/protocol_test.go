package realtime

import (
	"encoding/json"
	"testing"
)

func TestParseClientEvent(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType string
		wantErr  bool
	}{
		{"join group", `{"type":"join-group","group_id":"g-1"}`, TypeJoinGroup, false},
		{"send message", `{"type":"send-message","group_id":"g-1","content":"hi"}`, TypeSendMessage, false},
		{"typing", `{"type":"typing","group_id":"g-1","is_typing":true}`, TypeTyping, false},
		{"notification read", `{"type":"notification-read","notification_id":"n-1"}`, TypeNotificationRead, false},
		{"ping", `{"type":"ping"}`, TypePing, false},
		{"missing type", `{"group_id":"g-1"}`, "", true},
		{"unknown type", `{"type":"shutdown"}`, "shutdown", true},
		{"server-only type", `{"type":"message"}`, TypeMessage, true},
		{"not json", `hello`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, event, err := ParseClientEvent([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if gotType != tt.wantType {
				t.Errorf("type = %q, want %q", gotType, tt.wantType)
			}
			if !tt.wantErr && event == nil {
				t.Error("event should be non-nil on success")
			}
		})
	}
}

func TestParseClientEventPayload(t *testing.T) {
	_, event, err := ParseClientEvent([]byte(`{"type":"send-message","group_id":"g-7","content":"anyone placed at Zoho?"}`))
	if err != nil {
		t.Fatalf("ParseClientEvent: %v", err)
	}

	send, ok := event.(SendMessageEvent)
	if !ok {
		t.Fatalf("event is %T", event)
	}
	if send.GroupID != "g-7" || send.Content != "anyone placed at Zoho?" {
		t.Errorf("decoded = %+v", send)
	}
}

func TestNewServerEvent(t *testing.T) {
	data, err := NewServerEvent(TypeUserTyping, UserTypingEvent{GroupID: "g-1", UserID: "u-1", IsTyping: true})
	if err != nil {
		t.Fatalf("NewServerEvent: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["type"] != TypeUserTyping {
		t.Errorf("type = %v", decoded["type"])
	}
	if decoded["user_id"] != "u-1" {
		t.Errorf("user_id = %v", decoded["user_id"])
	}
	if decoded["is_typing"] != true {
		t.Errorf("is_typing = %v", decoded["is_typing"])
	}
}

func TestNewServerEventOverridesPayloadType(t *testing.T) {
	// The wire type always wins over whatever the struct carried
	data, err := NewServerEvent(TypePong, ErrorEvent{Type: "error", Code: "x"})
	if err != nil {
		t.Fatalf("NewServerEvent: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != TypePong {
		t.Errorf("type = %v, want %q", decoded["type"], TypePong)
	}
}
