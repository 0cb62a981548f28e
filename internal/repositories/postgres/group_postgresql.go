package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/psg-placement/chat-service/internal/cache"
	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/repositories"
)

// GroupPostgreSQL implements GroupRepository. Group rows are cached;
// membership checks go to the database on every call so a revocation takes
// effect on the next send, not after a TTL.
type GroupPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewGroupPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.GroupRepository {
	return &GroupPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *GroupPostgreSQL) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	err := r.cacheManager.Group.CacheOrExecute(ctx, fmt.Sprintf("id:%s", id), &group,
		cache.GroupCacheConfig.TTL, func() (interface{}, error) {
			var g models.Group
			if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
				return nil, err
			}
			return &g, nil
		})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// IsMember is deliberately uncached. Membership can change between join and
// send, and revocations happen outside this service, so there is no
// invalidation path a cache could rely on.
func (r *GroupPostgreSQL) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (r *GroupPostgreSQL) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	return ids, nil
}

func (r *GroupPostgreSQL) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ? AND groups.is_active = ?", userID, true).
		Order("groups.group_number").
		Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups for user: %w", err)
	}
	return groups, nil
}

func (r *GroupPostgreSQL) AddMember(ctx context.Context, groupID, userID string) error {
	member := models.GroupMember{GroupID: groupID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(&member).Error; err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}

	cache.InvalidateGroupCache(ctx, r.cacheManager, groupID)
	return nil
}
