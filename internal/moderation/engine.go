package moderation

import (
	"context"
	"log/slog"
)

// Moderator classifies text and may fail
type Moderator interface {
	Moderate(ctx context.Context, content string) (Verdict, error)
}

// EngineConfig tunes the moderation engine
type EngineConfig struct {
	// Enabled false skips the external client entirely and uses only the
	// keyword filter.
	Enabled bool

	// BlockThreshold is the confidence above which an unsafe verdict blocks
	// delivery.
	BlockThreshold float64
}

// Engine is the single entry point for moderation decisions. It consults the
// external moderator and falls back to the keyword filter when that fails,
// so Classify is total.
type Engine struct {
	client    Moderator
	threshold float64
	enabled   bool
	logger    *slog.Logger
}

// NewEngine creates a moderation engine. client may be nil when no external
// moderator is configured.
func NewEngine(client Moderator, cfg EngineConfig, logger *slog.Logger) *Engine {
	threshold := cfg.BlockThreshold
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Engine{
		client:    client,
		threshold: threshold,
		enabled:   cfg.Enabled,
		logger:    logger,
	}
}

// BlockThreshold returns the configured blocking confidence
func (e *Engine) BlockThreshold() float64 {
	return e.threshold
}

// Classify returns a verdict for the text. Never errors: external failures
// degrade to the keyword filter.
func (e *Engine) Classify(ctx context.Context, content string) Verdict {
	if !e.enabled || e.client == nil {
		return FallbackModerate(content)
	}

	verdict, err := e.client.Moderate(ctx, content)
	if err != nil {
		e.logger.Warn("external moderation failed, using keyword filter", "error", err)
		return FallbackModerate(content)
	}
	return verdict
}

// ShouldBlock classifies and applies the configured threshold in one call
func (e *Engine) ShouldBlock(ctx context.Context, content string) (Verdict, bool) {
	verdict := e.Classify(ctx, content)
	return verdict, verdict.Blocks(e.threshold)
}
