package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLimiter(client, logger), mr
}

func TestLimiterAllow(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	rule := Rule{Key: "rl:test:", Limit: 30, Window: time.Minute}

	for i := 0; i < 30; i++ {
		if !limiter.Allow(ctx, "user-1", rule) {
			t.Fatalf("send %d should be allowed", i+1)
		}
	}
	if limiter.Allow(ctx, "user-1", rule) {
		t.Error("31st send in the window should be denied")
	}

	// Other principals have their own window
	if !limiter.Allow(ctx, "user-2", rule) {
		t.Error("different principal should not be affected")
	}
}

func TestLimiterWindowExpiry(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	rule := Rule{Key: "rl:test:", Limit: 2, Window: time.Minute}

	limiter.Allow(ctx, "user-1", rule)
	limiter.Allow(ctx, "user-1", rule)
	if limiter.Allow(ctx, "user-1", rule) {
		t.Fatal("third call should be denied")
	}

	mr.FastForward(time.Minute + time.Second)

	if !limiter.Allow(ctx, "user-1", rule) {
		t.Error("new window should allow again")
	}
}

func TestLimiterRemaining(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	rule := Rule{Key: "rl:test:", Limit: 5, Window: time.Minute}

	remaining, err := limiter.Remaining(ctx, "user-1", rule)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 5 {
		t.Errorf("fresh window remaining = %d, want 5", remaining)
	}

	limiter.Allow(ctx, "user-1", rule)
	limiter.Allow(ctx, "user-1", rule)

	remaining, err = limiter.Remaining(ctx, "user-1", rule)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 3 {
		t.Errorf("remaining = %d, want 3", remaining)
	}
}

func TestLimiterFailsOpen(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	mr.Close()

	if !limiter.Allow(ctx, "user-1", RuleSendMessage) {
		t.Error("limiter should allow when redis is down")
	}
}

func TestLimiterNilClientAllows(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := NewLimiter(nil, logger)

	if !limiter.Allow(context.Background(), "user-1", RuleSendMessage) {
		t.Error("limiter without redis should allow everything")
	}
}
