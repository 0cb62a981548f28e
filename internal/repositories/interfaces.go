package repositories

import (
	"context"

	"github.com/psg-placement/chat-service/internal/models"
)

// ===== FILTERS =====

// MessageFilters drives cursor paging over group history. Before, when set,
// restricts the page to messages with id strictly less than the cursor.
type MessageFilters struct {
	Limit  int   `json:"limit"`
	Before *uint `json:"before"`
}

// ===== REPOSITORY INTERFACES =====

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListWithLeetCodeURL(ctx context.Context, scope *models.CohortScope) ([]models.User, error)
	UpdateLeetCodeURL(ctx context.Context, userID, url string) error
}

type GroupRepository interface {
	GetByID(ctx context.Context, id string) (*models.Group, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)
	ListForUser(ctx context.Context, userID string) ([]models.Group, error)
	AddMember(ctx context.Context, groupID, userID string) error
}

type MessageRepository interface {
	// Create persists an immutable message; the store assigns the id
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	// Page returns one page of group history ordered oldest first
	Page(ctx context.Context, groupID string, filters MessageFilters) (*models.MessagePage, error)
	CountForGroup(ctx context.Context, groupID string) (int64, error)
}

type LeetCodeRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.LeetCodeProfile, error)
	// Upsert stores a successful sync and clears any previous sync error
	Upsert(ctx context.Context, profile *models.LeetCodeProfile) error
	// MarkSyncError records a failed sync without touching stored counts
	MarkSyncError(ctx context.Context, userID, username, reason string) error
	List(ctx context.Context, scope *models.CohortScope) ([]models.LeetCodeProfile, error)
	Leaderboard(ctx context.Context, scope *models.CohortScope, limit int) ([]models.LeaderboardEntry, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, notificationID, userID string) error
	ListUnread(ctx context.Context, userID string) ([]models.Notification, error)
}

type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType models.AuditEntityType, entityID string, limit int) ([]models.AuditLog, error)
}
