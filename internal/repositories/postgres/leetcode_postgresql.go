package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/psg-placement/chat-service/internal/cache"
	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/repositories"
)

// LeetCodePostgreSQL implements LeetCodeRepository
type LeetCodePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewLeetCodePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.LeetCodeRepository {
	return &LeetCodePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *LeetCodePostgreSQL) GetByUserID(ctx context.Context, userID string) (*models.LeetCodeProfile, error) {
	var profile models.LeetCodeProfile
	err := r.cacheManager.LeetCode.CacheOrExecute(ctx, fmt.Sprintf("stats:%s", userID), &profile,
		cache.LeetCodeCacheConfig.TTL, func() (interface{}, error) {
			var p models.LeetCodeProfile
			if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
				return nil, err
			}
			return &p, nil
		})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert stores a successful sync. All stat columns are replaced and any
// previous sync error is cleared.
func (r *LeetCodePostgreSQL) Upsert(ctx context.Context, profile *models.LeetCodeProfile) error {
	profile.SyncError = nil
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "total_solved", "easy_solved", "medium_solved", "hard_solved",
			"ranking", "reputation", "profile_data", "last_synced_at", "sync_error", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return fmt.Errorf("failed to upsert leetcode profile: %w", err)
	}

	cache.SafeDelete(ctx, r.cacheManager.LeetCode, fmt.Sprintf("stats:%s", profile.UserID))
	return nil
}

// MarkSyncError records a failed sync. Existing rows keep their previously
// synced counts; only the error and sync time move.
func (r *LeetCodePostgreSQL) MarkSyncError(ctx context.Context, userID, username, reason string) error {
	now := time.Now()
	row := &models.LeetCodeProfile{
		UserID:       userID,
		Username:     username,
		SyncError:    &reason,
		LastSyncedAt: now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"sync_error":     reason,
			"last_synced_at": now,
			"updated_at":     now,
		}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to mark sync error: %w", err)
	}

	cache.SafeDelete(ctx, r.cacheManager.LeetCode, fmt.Sprintf("stats:%s", userID))
	return nil
}

func (r *LeetCodePostgreSQL) List(ctx context.Context, scope *models.CohortScope) ([]models.LeetCodeProfile, error) {
	query := r.db.WithContext(ctx).Preload("User")
	query = r.applyScope(query, scope)

	var profiles []models.LeetCodeProfile
	if err := query.Order("total_solved DESC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list leetcode profiles: %w", err)
	}
	return profiles, nil
}

func (r *LeetCodePostgreSQL) Leaderboard(ctx context.Context, scope *models.CohortScope, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 25
	}

	query := r.db.WithContext(ctx).Preload("User").Where("sync_error IS NULL")
	query = r.applyScope(query, scope)

	var profiles []models.LeetCodeProfile
	if err := query.Order("total_solved DESC").Limit(limit).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	entries := make([]models.LeaderboardEntry, len(profiles))
	for i, p := range profiles {
		entries[i] = models.LeaderboardEntry{
			Rank:         i + 1,
			UserID:       p.UserID,
			Username:     p.Username,
			TotalSolved:  p.TotalSolved,
			EasySolved:   p.EasySolved,
			MediumSolved: p.MediumSolved,
			HardSolved:   p.HardSolved,
		}
		if p.User != nil {
			entries[i].FullName = p.User.FullName
			entries[i].RegisterNumber = p.User.RegisterNumber
		}
	}
	return entries, nil
}

func (r *LeetCodePostgreSQL) applyScope(query *gorm.DB, scope *models.CohortScope) *gorm.DB {
	if scope == nil || (scope.BatchStartYear == 0 && scope.ClassSection == "") {
		return query
	}

	query = query.Joins("JOIN users ON users.id = leetcode_profiles.user_id")
	if scope.BatchStartYear != 0 {
		query = query.Where("users.batch_start_year = ?", scope.BatchStartYear)
	}
	if scope.ClassSection != "" {
		query = query.Where("users.class_section = ?", scope.ClassSection)
	}
	return query
}
