package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/psg-placement/chat-service/internal/models"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewHub(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func receiveEvent(t *testing.T, sub *Subscription) map[string]interface{} {
	t.Helper()
	select {
	case msg := <-sub.Events():
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(msg.Payload), &decoded); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return decoded
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestBroadcastMessage(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, GroupChannel("g-1"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	hub.BroadcastMessage(ctx, models.ChatMessage{
		ID:      7,
		GroupID: "g-1",
		UserID:  "u-1",
		Content: "mock interview at 5pm",
	})

	event := receiveEvent(t, sub)
	if event["type"] != TypeMessage {
		t.Errorf("type = %v", event["type"])
	}
	if event["content"] != "mock interview at 5pm" {
		t.Errorf("content = %v", event["content"])
	}
	if event["group_id"] != "g-1" {
		t.Errorf("group_id = %v", event["group_id"])
	}
}

func TestBroadcastTypingCarriesSender(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, GroupChannel("g-1"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	hub.BroadcastTyping(ctx, "g-1", "u-9", true)

	event := receiveEvent(t, sub)
	if event["type"] != TypeUserTyping {
		t.Errorf("type = %v", event["type"])
	}
	// Sessions need the sender id to drop their own indicator
	if event["user_id"] != "u-9" {
		t.Errorf("user_id = %v", event["user_id"])
	}
}

func TestNotifyUserTargetsDirectChannel(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	userSub, err := hub.Subscribe(ctx, UserChannel("u-1"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer userSub.Close()

	otherSub, err := hub.Subscribe(ctx, UserChannel("u-2"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer otherSub.Close()

	hub.NotifyUser(ctx, models.Notification{ID: "n-1", UserID: "u-1", Title: "Drive shortlist out"})

	event := receiveEvent(t, userSub)
	if event["type"] != TypeNotification {
		t.Errorf("type = %v", event["type"])
	}
	if event["title"] != "Drive shortlist out" {
		t.Errorf("title = %v", event["title"])
	}

	select {
	case msg := <-otherSub.Events():
		t.Errorf("u-2 received u-1's notification: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscriptionAddRemove(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, UserChannel("u-1"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	if err := sub.Add(ctx, GroupChannel("g-1")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	hub.BroadcastTyping(ctx, "g-1", "u-2", true)
	if event := receiveEvent(t, sub); event["type"] != TypeUserTyping {
		t.Errorf("type = %v", event["type"])
	}

	if err := sub.Remove(ctx, GroupChannel("g-1")); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	hub.BroadcastTyping(ctx, "g-1", "u-2", false)
	select {
	case msg := <-sub.Events():
		t.Errorf("received event after unsubscribe: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishNilClient(t *testing.T) {
	hub := NewHub(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	// Best effort: no client means publishes are silently dropped
	hub.BroadcastTyping(context.Background(), "g-1", "u-1", true)
}
