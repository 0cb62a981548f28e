package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/psg-placement/chat-service/internal/events"
	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/moderation"
	"github.com/psg-placement/chat-service/internal/repositories"
	"github.com/psg-placement/chat-service/internal/validator"
)

// ChatServiceConfig tunes message and paging limits
type ChatServiceConfig struct {
	MaxMessageLength int
	DefaultPageSize  int
	MaxPageSize      int
}

// chatService implements ChatService
type chatService struct {
	repo        repositories.Repository
	engine      *moderation.Engine
	broadcaster Broadcaster
	publisher   events.EventPublisher
	validator   *validator.Validator
	logger      *slog.Logger
	cfg         ChatServiceConfig
}

// NewChatService creates the chat service
func NewChatService(
	repo repositories.Repository,
	engine *moderation.Engine,
	broadcaster Broadcaster,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
	cfg ChatServiceConfig,
) ChatService {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 5000
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 200
	}
	return &chatService{
		repo:        repo,
		engine:      engine,
		broadcaster: broadcaster,
		publisher:   publisher,
		validator:   v,
		logger:      logger,
		cfg:         cfg,
	}
}

// Authorize enforces the group access rules: reads need membership, except
// super admins who may read any group; writes always need membership.
func (s *chatService) Authorize(ctx context.Context, userID, groupID string, action models.GroupAction) error {
	if _, err := s.repo.Group().GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to load group %s: %w", groupID, err)
	}

	if action == models.GroupActionRead {
		user, err := s.repo.User().GetByID(ctx, userID)
		if err == nil && user.IsSuperAdmin() {
			return nil
		}
	}

	member, err := s.repo.Group().IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return ErrAccessDenied
	}
	return nil
}

func (s *chatService) GetMessages(ctx context.Context, userID, groupID string, filters repositories.MessageFilters) (*models.MessagePage, error) {
	if err := s.Authorize(ctx, userID, groupID, models.GroupActionRead); err != nil {
		return nil, err
	}

	if filters.Limit <= 0 {
		filters.Limit = s.cfg.DefaultPageSize
	}
	if filters.Limit > s.cfg.MaxPageSize {
		filters.Limit = s.cfg.MaxPageSize
	}

	page, err := s.repo.Message().Page(ctx, groupID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return page, nil
}

func (s *chatService) SendMessage(ctx context.Context, userID, groupID, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)

	req := validator.SendMessageRequest{GroupID: groupID, Content: content}
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	if err := s.Authorize(ctx, userID, groupID, models.GroupActionWrite); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sender: %w", err)
	}

	verdict, blocked := s.engine.ShouldBlock(ctx, content)
	if blocked {
		s.logger.Warn("message blocked by moderation",
			"group_id", groupID,
			"user_id", userID,
			"categories", verdict.FlaggedCategories())
		s.auditFlagged(ctx, userID, groupID, verdict, true)
		s.publishFlagged(ctx, userID, groupID, verdict, true)
		s.notifyBlocked(ctx, userID, verdict)
		return nil, &ModerationBlockedError{Verdict: verdict}
	}

	message := &models.Message{
		GroupID:     groupID,
		UserID:      userID,
		Content:     content,
		IsModerated: verdict.Flagged,
	}
	if verdict.Flagged {
		if raw, err := json.Marshal(verdict); err == nil {
			message.ModerationFlags = datatypes.JSON(raw)
		}
	}

	if err := s.repo.Message().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	if verdict.Flagged {
		s.auditFlagged(ctx, userID, groupID, verdict, false)
		s.publishFlagged(ctx, userID, groupID, verdict, false)
	}

	message.User = user
	chatMessage := models.NewChatMessage(message)
	s.broadcaster.BroadcastMessage(ctx, chatMessage)

	return &chatMessage, nil
}

func (s *chatService) Typing(ctx context.Context, userID, groupID string, isTyping bool) error {
	if err := s.Authorize(ctx, userID, groupID, models.GroupActionWrite); err != nil {
		return err
	}
	s.broadcaster.BroadcastTyping(ctx, groupID, userID, isTyping)
	return nil
}

func (s *chatService) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	groups, err := s.repo.Group().ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *chatService) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	if err := s.repo.Notification().MarkRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *chatService) UnreadNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	notifications, err := s.repo.Notification().ListUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// auditFlagged records a flagged or blocked message. Best effort.
func (s *chatService) auditFlagged(ctx context.Context, userID, groupID string, verdict moderation.Verdict, blocked bool) {
	details, _ := json.Marshal(map[string]any{
		"group_id":   groupID,
		"categories": verdict.FlaggedCategories(),
		"reason":     verdict.Reason,
		"max_score":  strconv.FormatFloat(verdict.MaxScore(), 'f', 2, 64),
		"blocked":    blocked,
	})
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionMessageFlagged,
		EntityType: models.AuditEntityMessage,
		Details:    datatypes.JSON(details),
	}
	if err := s.repo.Audit().Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", "user_id", userID, "error", err)
	}
}

// notifyBlocked stores a moderation notice for the sender and pushes it on
// their direct channel. Best effort.
func (s *chatService) notifyBlocked(ctx context.Context, userID string, verdict moderation.Verdict) {
	notification := &models.Notification{
		ID:      uuid.New().String(),
		UserID:  userID,
		Title:   "Message removed by moderation",
		Message: verdict.Reason,
		Type:    "moderation",
	}
	if err := s.repo.Notification().Create(ctx, notification); err != nil {
		s.logger.Warn("failed to store moderation notification", "user_id", userID, "error", err)
		return
	}
	s.broadcaster.NotifyUser(ctx, *notification)

	event := events.NewEvent(events.EventNotification, *notification)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish notification event", "error", err)
	}
}

// publishFlagged emits chat.message_flagged on the event bus. Best effort.
func (s *chatService) publishFlagged(ctx context.Context, userID, groupID string, verdict moderation.Verdict, blocked bool) {
	event := events.NewEvent(events.EventMessageFlagged, events.MessageFlaggedEvent{
		GroupID:    groupID,
		UserID:     userID,
		Categories: verdict.FlaggedCategories(),
		Reason:     verdict.Reason,
		Blocked:    blocked,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish moderation event", "error", err)
	}
}
