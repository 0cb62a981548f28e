package moderation

import "testing"

func TestFallbackModerate(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantSafe     bool
		wantCategory string
	}{
		{
			name:     "clean text",
			content:  "Has everyone finished the aptitude round prep?",
			wantSafe: true,
		},
		{
			name:         "violence keyword",
			content:      "I will KILL this interview tomorrow",
			wantSafe:     false,
			wantCategory: "violence",
		},
		{
			name:         "harassment keyword",
			content:      "you are such an idiot",
			wantSafe:     false,
			wantCategory: "harassment",
		},
		{
			name:         "self harm phrase",
			content:      "thinking about suicide",
			wantSafe:     false,
			wantCategory: "selfHarm",
		},
		{
			name:         "case insensitive match",
			content:      "RACIST remarks are not ok",
			wantSafe:     false,
			wantCategory: "hate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackModerate(tt.content)

			if got.IsSafe != tt.wantSafe {
				t.Errorf("IsSafe = %v, want %v", got.IsSafe, tt.wantSafe)
			}
			if got.Flagged == tt.wantSafe {
				t.Errorf("Flagged = %v, want %v", got.Flagged, !tt.wantSafe)
			}

			if tt.wantSafe {
				if got.MaxScore() != 0 {
					t.Errorf("MaxScore = %v, want 0 for clean text", got.MaxScore())
				}
				if got.Reason != "" {
					t.Errorf("Reason = %q, want empty for clean text", got.Reason)
				}
				return
			}

			found := false
			for _, c := range got.FlaggedCategories() {
				if c == tt.wantCategory {
					found = true
				}
			}
			if !found {
				t.Errorf("FlaggedCategories = %v, want to include %q", got.FlaggedCategories(), tt.wantCategory)
			}
			if got.MaxScore() != fallbackScore {
				t.Errorf("MaxScore = %v, want %v", got.MaxScore(), fallbackScore)
			}
			if got.Reason != fallbackReason {
				t.Errorf("Reason = %q, want %q", got.Reason, fallbackReason)
			}
		})
	}
}

func TestFallbackVerdictBlocksAtDefaultThreshold(t *testing.T) {
	v := FallbackModerate("what a loser")
	if !v.Blocks(0.7) {
		t.Errorf("keyword verdict with score %v should block at threshold 0.7", v.MaxScore())
	}
	if v.Blocks(0.9) {
		t.Errorf("keyword verdict with score %v should not block at threshold 0.9", v.MaxScore())
	}
}
