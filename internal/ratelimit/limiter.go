package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule is a fixed-window limit. Key prefixes the redis counter so that
// different actions count independently.
type Rule struct {
	Key    string
	Limit  int
	Window time.Duration
}

// Default rules for the chat service
var (
	// RuleSendMessage caps message sends per principal
	RuleSendMessage = Rule{Key: "rl:send:", Limit: 30, Window: time.Minute}

	// RuleConnect caps websocket connection attempts per principal
	RuleConnect = Rule{Key: "rl:conn:", Limit: 10, Window: time.Minute}

	// RuleSyncTrigger caps manual profile sync requests per principal
	RuleSyncTrigger = Rule{Key: "rl:sync:", Limit: 3, Window: time.Hour}
)

// Limiter is a redis-backed fixed-window rate limiter. It fails open: when
// redis is unreachable the action is allowed and the error logged, so a
// cache outage degrades protection rather than availability.
type Limiter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewLimiter creates a rate limiter on an existing redis client
func NewLimiter(client *redis.Client, logger *slog.Logger) *Limiter {
	return &Limiter{client: client, logger: logger}
}

// Allow reports whether id may perform the action covered by rule. The
// first increment of a window sets the expiry.
func (l *Limiter) Allow(ctx context.Context, id string, rule Rule) bool {
	if l.client == nil {
		return true
	}

	key := rule.Key + id
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", "key", rule.Key, "error", err)
		return true
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			l.logger.Warn("failed to set rate limit window", "key", rule.Key, "error", err)
		}
	}

	return count <= int64(rule.Limit)
}

// Remaining returns how many actions are left in the current window
func (l *Limiter) Remaining(ctx context.Context, id string, rule Rule) (int, error) {
	if l.client == nil {
		return rule.Limit, nil
	}

	count, err := l.client.Get(ctx, rule.Key+id).Int()
	if err == redis.Nil {
		return rule.Limit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
