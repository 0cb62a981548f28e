package moderation

// Categories marks which policy categories a text violates
type Categories struct {
	Sexual     bool `json:"sexual"`
	Hate       bool `json:"hate"`
	Violence   bool `json:"violence"`
	Harassment bool `json:"harassment"`
	SelfHarm   bool `json:"selfHarm"`
}

// Scores holds per-category confidence in [0,1]
type Scores struct {
	Sexual     float64 `json:"sexual"`
	Hate       float64 `json:"hate"`
	Violence   float64 `json:"violence"`
	Harassment float64 `json:"harassment"`
	SelfHarm   float64 `json:"selfHarm"`
}

// Verdict is the moderation result for one piece of text
type Verdict struct {
	IsSafe     bool       `json:"isSafe"`
	Flagged    bool       `json:"flagged"`
	Categories Categories `json:"categories"`
	Scores     Scores     `json:"scores"`
	Reason     string     `json:"reason,omitempty"`
}

// MaxScore returns the highest per-category confidence
func (v Verdict) MaxScore() float64 {
	max := v.Scores.Sexual
	for _, s := range []float64{v.Scores.Hate, v.Scores.Violence, v.Scores.Harassment, v.Scores.SelfHarm} {
		if s > max {
			max = s
		}
	}
	return max
}

// Blocks reports whether the verdict should stop delivery: the text must be
// unsafe and at least one category confidence must exceed the threshold.
func (v Verdict) Blocks(threshold float64) bool {
	return !v.IsSafe && v.MaxScore() > threshold
}

// FlaggedCategories lists the names of the violated categories
func (v Verdict) FlaggedCategories() []string {
	var out []string
	if v.Categories.Sexual {
		out = append(out, "sexual")
	}
	if v.Categories.Hate {
		out = append(out, "hate")
	}
	if v.Categories.Violence {
		out = append(out, "violence")
	}
	if v.Categories.Harassment {
		out = append(out, "harassment")
	}
	if v.Categories.SelfHarm {
		out = append(out, "selfHarm")
	}
	return out
}

// Safe is the verdict for text that raised no concerns
func Safe() Verdict {
	return Verdict{IsSafe: true}
}
