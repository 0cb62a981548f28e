package services

import (
	"context"

	"github.com/psg-placement/chat-service/internal/leetcode"
	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/repositories"
)

// ===== BROADCASTER =====

// Broadcaster fans realtime events out to connected clients. Implemented by
// the realtime hub; calls are best effort and never fail the operation that
// produced them.
type Broadcaster interface {
	// BroadcastMessage delivers a persisted message to the group's channel
	BroadcastMessage(ctx context.Context, message models.ChatMessage)

	// BroadcastTyping relays a typing indicator to the group's channel
	BroadcastTyping(ctx context.Context, groupID, userID string, isTyping bool)

	// NotifyUser delivers a notification on the user's direct channel
	NotifyUser(ctx context.Context, notification models.Notification)
}

// ===== CHAT SERVICE =====

// ChatService covers group messaging: history paging, moderated sends,
// typing relay and notification acknowledgement. All operations enforce
// group access before touching data.
type ChatService interface {
	// Authorize checks whether the user may perform the action on the group.
	// Returns ErrGroupNotFound or ErrAccessDenied on refusal.
	Authorize(ctx context.Context, userID, groupID string, action models.GroupAction) error

	// GetMessages returns one page of group history, oldest first
	GetMessages(ctx context.Context, userID, groupID string, filters repositories.MessageFilters) (*models.MessagePage, error)

	// SendMessage moderates, persists and broadcasts a message. A blocked
	// message returns *ModerationBlockedError and is never stored.
	SendMessage(ctx context.Context, userID, groupID, content string) (*models.ChatMessage, error)

	// Typing relays a typing indicator to the group's other members
	Typing(ctx context.Context, userID, groupID string, isTyping bool) error

	// ListGroups returns the groups the user belongs to
	ListGroups(ctx context.Context, userID string) ([]models.Group, error)

	// MarkNotificationRead acknowledges one of the user's notifications
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error

	// UnreadNotifications returns the user's pending notifications
	UnreadNotifications(ctx context.Context, userID string) ([]models.Notification, error)
}

// ===== LEETCODE SERVICE =====

// LeetCodeService covers profile linking, stat queries and the batch sync
// engine.
type LeetCodeService interface {
	// SyncProfile stores the profile URL on the user and refreshes their
	// stats immediately.
	SyncProfile(ctx context.Context, userID, profileURL string) (*models.LeetCodeProfile, error)

	// GetStats returns one student's synced stats
	GetStats(ctx context.Context, userID string) (*models.LeetCodeProfile, error)

	// Leaderboard ranks students by total solved, optionally per cohort
	Leaderboard(ctx context.Context, scope *models.CohortScope, limit int) ([]models.LeaderboardEntry, error)

	// SyncAll refreshes every linked profile in rate-limited batches and
	// publishes a completion event.
	SyncAll(ctx context.Context, scope *models.CohortScope) (*leetcode.SyncResult, error)

	// ExportStats renders the synced stats as an xlsx workbook
	ExportStats(ctx context.Context, scope *models.CohortScope) ([]byte, error)
}

// ===== SERVICE MANAGER =====

// ServiceManager wires and owns all service instances
type ServiceManager interface {
	Chat() ChatService
	LeetCode() LeetCodeService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
