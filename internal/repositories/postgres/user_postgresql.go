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

// UserPostgreSQL implements UserRepository with read-through caching
type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.cacheManager.User.CacheOrExecute(ctx, fmt.Sprintf("id:%s", id), &user,
		cache.UserCacheConfig.TTL, func() (interface{}, error) {
			var u models.User
			if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
				return nil, err
			}
			return &u, nil
		})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListWithLeetCodeURL returns active students that have a stored profile URL,
// optionally narrowed to one cohort.
func (r *UserPostgreSQL) ListWithLeetCodeURL(ctx context.Context, scope *models.CohortScope) ([]models.User, error) {
	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("leet_code_url IS NOT NULL AND leet_code_url <> ''")

	if scope != nil {
		if scope.BatchStartYear != 0 {
			query = query.Where("batch_start_year = ?", scope.BatchStartYear)
		}
		if scope.ClassSection != "" {
			query = query.Where("class_section = ?", scope.ClassSection)
		}
	}

	var users []models.User
	if err := query.Order("register_number").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users with leetcode url: %w", err)
	}
	return users, nil
}

func (r *UserPostgreSQL) UpdateLeetCodeURL(ctx context.Context, userID, url string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("leet_code_url", url)
	if result.Error != nil {
		return fmt.Errorf("failed to update leetcode url: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateUserCache(ctx, r.cacheManager, userID)
	return nil
}
