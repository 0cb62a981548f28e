package realtime

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/psg-placement/chat-service/internal/models"
)

// GroupChannel is the redis channel carrying a group's events
func GroupChannel(groupID string) string {
	return "group-" + groupID
}

// UserChannel is the redis channel carrying one principal's direct events
func UserChannel(userID string) string {
	return "user-" + userID
}

// Hub fans events out to connected clients through redis pub/sub, so
// broadcasts reach sessions on every node. Delivery is best effort: publish
// failures are logged and swallowed, they never fail the producing
// operation, and events published while a client is offline are dropped.
type Hub struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewHub creates a fan-out hub on an existing redis client
func NewHub(rdb *redis.Client, logger *slog.Logger) *Hub {
	return &Hub{rdb: rdb, logger: logger}
}

// Publish sends raw event bytes to a channel
func (h *Hub) Publish(ctx context.Context, channel string, data []byte) {
	if h.rdb == nil {
		return
	}
	if err := h.rdb.Publish(ctx, channel, data).Err(); err != nil {
		h.logger.Warn("failed to publish realtime event", "channel", channel, "error", err)
	}
}

// PublishToGroup serializes and sends a server event to a group channel
func (h *Hub) PublishToGroup(ctx context.Context, groupID, eventType string, payload any) {
	h.publishEvent(ctx, GroupChannel(groupID), eventType, payload)
}

// PublishToUser serializes and sends a server event to a user channel
func (h *Hub) PublishToUser(ctx context.Context, userID, eventType string, payload any) {
	h.publishEvent(ctx, UserChannel(userID), eventType, payload)
}

// BroadcastMessage delivers a persisted message to its group channel
func (h *Hub) BroadcastMessage(ctx context.Context, message models.ChatMessage) {
	h.publishEvent(ctx, GroupChannel(message.GroupID), TypeMessage, message)
}

// BroadcastTyping relays a typing indicator to the group channel. Receiving
// sessions drop the sender's own indicator.
func (h *Hub) BroadcastTyping(ctx context.Context, groupID, userID string, isTyping bool) {
	h.publishEvent(ctx, GroupChannel(groupID), TypeUserTyping, UserTypingEvent{
		GroupID:  groupID,
		UserID:   userID,
		IsTyping: isTyping,
	})
}

// NotifyUser delivers a notification on the recipient's direct channel
func (h *Hub) NotifyUser(ctx context.Context, notification models.Notification) {
	h.publishEvent(ctx, UserChannel(notification.UserID), TypeNotification, notification)
}

func (h *Hub) publishEvent(ctx context.Context, channel, eventType string, payload any) {
	data, err := NewServerEvent(eventType, payload)
	if err != nil {
		h.logger.Error("failed to build realtime event", "event", eventType, "error", err)
		return
	}
	h.Publish(ctx, channel, data)
}

// Subscription is one connection's view of its subscribed channels
type Subscription struct {
	pubsub *redis.PubSub
}

// Subscribe opens a subscription on the given channels. Channels can be
// added and removed while the subscription is live.
func (h *Hub) Subscribe(ctx context.Context, channels ...string) (*Subscription, error) {
	if h.rdb == nil {
		return nil, redis.ErrClosed
	}
	pubsub := h.rdb.Subscribe(ctx, channels...)
	// Force the subscribe round-trip so failures surface here
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	return &Subscription{pubsub: pubsub}, nil
}

// Events returns the channel delivering published messages
func (s *Subscription) Events() <-chan *redis.Message {
	return s.pubsub.Channel()
}

// Add subscribes to an additional channel
func (s *Subscription) Add(ctx context.Context, channels ...string) error {
	return s.pubsub.Subscribe(ctx, channels...)
}

// Remove unsubscribes from a channel
func (s *Subscription) Remove(ctx context.Context, channels ...string) error {
	return s.pubsub.Unsubscribe(ctx, channels...)
}

// Close tears down the subscription
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}
