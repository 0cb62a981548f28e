package moderation

import "strings"

// Keyword lists for the offline filter. Substring match on the lower-cased
// text, same lists the portal has always shipped.
var (
	sexualKeywords     = []string{"sex", "porn", "xxx", "nude", "explicit"}
	hateKeywords       = []string{"hate", "racist", "nigger", "faggot", "retard"}
	violenceKeywords   = []string{"kill", "murder", "bomb", "terrorist", "weapon"}
	harassmentKeywords = []string{"stupid", "idiot", "loser", "ugly", "die"}
	selfHarmKeywords   = []string{"suicide", "kill myself"}
)

const (
	fallbackScore  = 0.8
	fallbackReason = "Content flagged by keyword filter"
)

// FallbackModerate classifies text with the keyword filter. It is total: it
// never errors, so it can always stand in when the external moderator is
// down or returns garbage.
func FallbackModerate(content string) Verdict {
	lower := strings.ToLower(content)

	categories := Categories{
		Sexual:     containsAny(lower, sexualKeywords),
		Hate:       containsAny(lower, hateKeywords),
		Violence:   containsAny(lower, violenceKeywords),
		Harassment: containsAny(lower, harassmentKeywords),
		SelfHarm:   containsAny(lower, selfHarmKeywords),
	}

	flagged := categories.Sexual || categories.Hate || categories.Violence ||
		categories.Harassment || categories.SelfHarm

	v := Verdict{
		IsSafe:     !flagged,
		Flagged:    flagged,
		Categories: categories,
	}
	if categories.Sexual {
		v.Scores.Sexual = fallbackScore
	}
	if categories.Hate {
		v.Scores.Hate = fallbackScore
	}
	if categories.Violence {
		v.Scores.Violence = fallbackScore
	}
	if categories.Harassment {
		v.Scores.Harassment = fallbackScore
	}
	if categories.SelfHarm {
		v.Scores.SelfHarm = fallbackScore
	}
	if flagged {
		v.Reason = fallbackReason
	}
	return v
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
