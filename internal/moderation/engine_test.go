package moderation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type stubModerator struct {
	verdict Verdict
	err     error
	calls   int
}

func (s *stubModerator) Moderate(ctx context.Context, content string) (Verdict, error) {
	s.calls++
	return s.verdict, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEngineClassify(t *testing.T) {
	t.Run("uses external verdict when client succeeds", func(t *testing.T) {
		client := &stubModerator{verdict: Verdict{
			IsSafe:     false,
			Flagged:    true,
			Categories: Categories{Hate: true},
			Scores:     Scores{Hate: 0.95},
			Reason:     "hate speech",
		}}
		engine := NewEngine(client, EngineConfig{Enabled: true, BlockThreshold: 0.7}, testLogger())

		got := engine.Classify(context.Background(), "anything")
		if got.IsSafe {
			t.Error("expected unsafe verdict from client")
		}
		if got.Reason != "hate speech" {
			t.Errorf("Reason = %q, want client reason", got.Reason)
		}
		if client.calls != 1 {
			t.Errorf("client calls = %d, want 1", client.calls)
		}
	})

	t.Run("falls back to keyword filter on client error", func(t *testing.T) {
		client := &stubModerator{err: errors.New("upstream 502")}
		engine := NewEngine(client, EngineConfig{Enabled: true, BlockThreshold: 0.7}, testLogger())

		got := engine.Classify(context.Background(), "you stupid loser")
		if got.IsSafe {
			t.Error("keyword fallback should flag harassment")
		}
		if got.Reason != fallbackReason {
			t.Errorf("Reason = %q, want fallback reason", got.Reason)
		}
	})

	t.Run("clean text passes through fallback on client error", func(t *testing.T) {
		client := &stubModerator{err: errors.New("timeout")}
		engine := NewEngine(client, EngineConfig{Enabled: true, BlockThreshold: 0.7}, testLogger())

		got := engine.Classify(context.Background(), "see you at the mock interview")
		if !got.IsSafe {
			t.Errorf("clean text should be safe, got %+v", got)
		}
	})

	t.Run("disabled engine never calls the client", func(t *testing.T) {
		client := &stubModerator{verdict: Safe()}
		engine := NewEngine(client, EngineConfig{Enabled: false, BlockThreshold: 0.7}, testLogger())

		engine.Classify(context.Background(), "hello")
		if client.calls != 0 {
			t.Errorf("client calls = %d, want 0 when disabled", client.calls)
		}
	})

	t.Run("nil client uses keyword filter", func(t *testing.T) {
		engine := NewEngine(nil, EngineConfig{Enabled: true, BlockThreshold: 0.7}, testLogger())
		got := engine.Classify(context.Background(), "porn link")
		if got.IsSafe {
			t.Error("keyword filter should flag sexual content")
		}
	})
}

func TestEngineShouldBlock(t *testing.T) {
	tests := []struct {
		name      string
		verdict   Verdict
		threshold float64
		want      bool
	}{
		{
			name:      "unsafe above threshold blocks",
			verdict:   Verdict{IsSafe: false, Scores: Scores{Violence: 0.9}},
			threshold: 0.7,
			want:      true,
		},
		{
			name:      "unsafe below threshold passes",
			verdict:   Verdict{IsSafe: false, Scores: Scores{Violence: 0.5}},
			threshold: 0.7,
			want:      false,
		},
		{
			name:      "unsafe exactly at threshold passes",
			verdict:   Verdict{IsSafe: false, Scores: Scores{Violence: 0.7}},
			threshold: 0.7,
			want:      false,
		},
		{
			name:      "safe with high score passes",
			verdict:   Verdict{IsSafe: true, Scores: Scores{Violence: 0.99}},
			threshold: 0.7,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubModerator{verdict: tt.verdict}
			engine := NewEngine(client, EngineConfig{Enabled: true, BlockThreshold: tt.threshold}, testLogger())

			_, blocked := engine.ShouldBlock(context.Background(), "whatever")
			if blocked != tt.want {
				t.Errorf("ShouldBlock = %v, want %v", blocked, tt.want)
			}
		})
	}
}
