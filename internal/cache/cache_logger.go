package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateUserCache drops the cached user row and their leetcode stats
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%s", userID))
	SafeDelete(ctx, cm.LeetCode, fmt.Sprintf("stats:%s", userID))
}

// InvalidateGroupCache drops the cached group row
func InvalidateGroupCache(ctx context.Context, cm *CacheManager, groupID string) {
	SafeDelete(ctx, cm.Group, fmt.Sprintf("id:%s", groupID))
}
