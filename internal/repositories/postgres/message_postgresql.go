package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/repositories"
)

const defaultMessagePageSize = 50

// MessagePostgreSQL implements MessageRepository. Messages are append-only;
// there is no update or delete path.
type MessagePostgreSQL struct {
	db *gorm.DB
}

func NewMessagePostgreSQL(db *gorm.DB) repositories.MessageRepository {
	return &MessagePostgreSQL{db: db}
}

func (r *MessagePostgreSQL) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *MessagePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).Preload("User").First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// Page returns one page of group history, oldest first. The query walks the
// (group_id, id) index newest first with id < cursor, fetches one extra row
// to detect more pages, then reverses into chronological order.
func (r *MessagePostgreSQL) Page(ctx context.Context, groupID string, filters repositories.MessageFilters) (*models.MessagePage, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultMessagePageSize
	}

	query := r.db.WithContext(ctx).Where("group_id = ?", groupID)
	if filters.Before != nil {
		query = query.Where("id < ?", *filters.Before)
	}

	var rows []models.Message
	if err := query.Order("id DESC").Limit(limit + 1).Preload("User").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to page messages: %w", err)
	}

	return buildMessagePage(rows, limit), nil
}

// buildMessagePage turns a newest-first window of limit+1 rows into a
// chronological page. The extra row only signals that older messages exist;
// the cursor is the oldest id actually returned, so the next call's
// strictly-less-than filter can never repeat a message.
func buildMessagePage(rows []models.Message, limit int) *models.MessagePage {
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	page := &models.MessagePage{
		Messages: make([]models.ChatMessage, len(rows)),
		HasMore:  hasMore,
	}
	if hasMore && len(rows) > 0 {
		cursor := rows[len(rows)-1].ID
		page.NextCursor = &cursor
	}
	for i := range rows {
		page.Messages[len(rows)-1-i] = models.NewChatMessage(&rows[i])
	}

	return page
}

func (r *MessagePostgreSQL) CountForGroup(ctx context.Context, groupID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("group_id = ?", groupID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
