package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/ratelimit"
	"github.com/psg-placement/chat-service/internal/services"
	"github.com/psg-placement/chat-service/internal/validator"
)

// opTimeout bounds each client-initiated operation
const opTimeout = 10 * time.Second

// SessionConfig holds the shared dependencies of all sessions
type SessionConfig struct {
	Chat    services.ChatService
	Hub     *Hub
	Limiter *ratelimit.Limiter
	Logger  *slog.Logger

	// SendRule caps message sends per principal; the zero value falls back
	// to ratelimit.RuleSendMessage
	SendRule ratelimit.Rule
}

// Session is one authenticated websocket connection. It owns the read loop,
// a redis subscription and the write side of the socket. Events arriving on
// subscribed channels are relayed to the client; client events are dispatched
// to the chat service.
type Session struct {
	conn   net.Conn
	userID string
	cfg    SessionConfig
	sub    *Subscription
	logger *slog.Logger

	// joined tracks the groups subscribed on this connection
	joined map[string]bool

	writeMu sync.Mutex
}

// NewSession wraps an upgraded connection for a user
func NewSession(conn net.Conn, userID string, cfg SessionConfig) *Session {
	if cfg.SendRule.Limit <= 0 {
		cfg.SendRule = ratelimit.RuleSendMessage
	}
	return &Session{
		conn:   conn,
		userID: userID,
		cfg:    cfg,
		logger: cfg.Logger.With("user_id", userID),
		joined: make(map[string]bool),
	}
}

// Run services the connection until the client disconnects or ctx ends.
// It always closes the connection and the subscription before returning.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.conn.Close()

	sub, err := s.cfg.Hub.Subscribe(ctx, UserChannel(s.userID))
	if err != nil {
		s.logger.Error("failed to subscribe user channel", "error", err)
		s.sendEvent(TypeError, ErrorEvent{Code: "subscribe_failed", Message: "could not open event stream"})
		return
	}
	s.sub = sub
	defer sub.Close()

	go s.writePump(ctx)

	s.logger.Info("websocket session started")
	s.readLoop(ctx)
	s.logger.Info("websocket session closed")
}

// readLoop dispatches client events until the socket errors out
func (s *Session) readLoop(ctx context.Context) {
	for {
		data, op, err := wsutil.ReadClientData(s.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
		if op != ws.OpText {
			continue
		}

		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		s.handle(opCtx, data)
		cancel()

		if ctx.Err() != nil {
			return
		}
	}
}

// writePump relays subscribed channel events to the client. The sender's own
// typing indicators are dropped here so clients never see themselves typing.
func (s *Session) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.sub.Events():
			if !ok {
				return
			}
			payload := []byte(msg.Payload)
			if s.isOwnTyping(payload) {
				continue
			}
			if err := s.write(payload); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				s.conn.Close()
				return
			}
		}
	}
}

// isOwnTyping reports whether the event is this user's typing indicator
func (s *Session) isOwnTyping(payload []byte) bool {
	var peek struct {
		Type   string `json:"type"`
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(payload, &peek); err != nil {
		return false
	}
	return peek.Type == TypeUserTyping && peek.UserID == s.userID
}

func (s *Session) handle(ctx context.Context, data []byte) {
	eventType, event, err := ParseClientEvent(data)
	if err != nil {
		s.sendEvent(TypeError, ErrorEvent{Code: "bad_event", Message: err.Error()})
		return
	}

	switch e := event.(type) {
	case JoinGroupEvent:
		s.handleJoin(ctx, e)
	case SendMessageEvent:
		s.handleSend(ctx, e)
	case TypingEvent:
		s.handleTyping(ctx, e)
	case NotificationReadEvent:
		s.handleNotificationRead(ctx, e)
	case PingEvent:
		s.sendEvent(TypePong, PongEvent{})
	default:
		s.sendEvent(TypeError, ErrorEvent{Code: "bad_event", Message: "unsupported event type: " + eventType})
	}
}

func (s *Session) handleJoin(ctx context.Context, e JoinGroupEvent) {
	if err := s.cfg.Chat.Authorize(ctx, s.userID, e.GroupID, models.GroupActionRead); err != nil {
		s.sendServiceError(err)
		return
	}

	if !s.joined[e.GroupID] {
		if err := s.sub.Add(ctx, GroupChannel(e.GroupID)); err != nil {
			s.logger.Error("failed to join group channel", "group_id", e.GroupID, "error", err)
			s.sendEvent(TypeError, ErrorEvent{Code: "subscribe_failed", Message: "could not join group"})
			return
		}
		s.joined[e.GroupID] = true
	}

	s.sendEvent(TypeJoined, JoinedEvent{GroupID: e.GroupID})
}

func (s *Session) handleSend(ctx context.Context, e SendMessageEvent) {
	if !s.cfg.Limiter.Allow(ctx, s.userID, s.cfg.SendRule) {
		s.sendEvent(TypeRateLimited, RateLimitedEvent{RetryAfter: int(s.cfg.SendRule.Window.Seconds())})
		return
	}

	if _, err := s.cfg.Chat.SendMessage(ctx, s.userID, e.GroupID, e.Content); err != nil {
		if blocked, ok := services.IsModerationBlocked(err); ok {
			s.sendEvent(TypeMessageBlocked, MessageBlockedEvent{
				GroupID:    e.GroupID,
				Reason:     blocked.Verdict.Reason,
				Categories: blocked.Verdict.FlaggedCategories(),
			})
			return
		}
		s.sendServiceError(err)
	}
	// Delivery to the sender happens through the group channel like any
	// other member.
}

func (s *Session) handleTyping(ctx context.Context, e TypingEvent) {
	if err := s.cfg.Chat.Typing(ctx, s.userID, e.GroupID, e.IsTyping); err != nil {
		// Typing is advisory; refusals are not worth an error frame
		s.logger.Debug("typing relay refused", "group_id", e.GroupID, "error", err)
	}
}

func (s *Session) handleNotificationRead(ctx context.Context, e NotificationReadEvent) {
	if err := s.cfg.Chat.MarkNotificationRead(ctx, s.userID, e.NotificationID); err != nil {
		s.sendServiceError(err)
	}
}

// sendServiceError maps service errors to client error events
func (s *Session) sendServiceError(err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, services.ErrGroupNotFound), errors.Is(err, services.ErrNotFound):
		s.sendEvent(TypeError, ErrorEvent{Code: "not_found", Message: err.Error()})
	case errors.Is(err, services.ErrAccessDenied):
		s.sendEvent(TypeError, ErrorEvent{Code: "forbidden", Message: err.Error()})
	case errors.As(err, &verrs):
		s.sendEvent(TypeError, ErrorEvent{Code: "validation", Message: verrs.Error()})
	default:
		s.logger.Error("websocket operation failed", "error", err)
		s.sendEvent(TypeError, ErrorEvent{Code: "internal", Message: "internal error"})
	}
}

func (s *Session) sendEvent(eventType string, payload any) {
	data, err := NewServerEvent(eventType, payload)
	if err != nil {
		s.logger.Error("failed to build event", "event", eventType, "error", err)
		return
	}
	if err := s.write(data); err != nil {
		s.logger.Debug("websocket write failed", "event", eventType, "error", err)
	}
}

func (s *Session) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return wsutil.WriteServerMessage(s.conn, ws.OpText, data)
}
