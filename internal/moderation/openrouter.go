package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const moderationPrompt = `You are a content moderation AI. Analyze the following message for inappropriate content.
Check for:
1. Sexual content or explicit material
2. Hate speech, racism, or discrimination
3. Violence or threats
4. Harassment or bullying
5. Self-harm content

Respond ONLY with a valid JSON object in this exact format:
{
  "isSafe": true/false,
  "flagged": true/false,
  "categories": {
    "sexual": true/false,
    "hate": true/false,
    "violence": true/false,
    "harassment": true/false,
    "selfHarm": true/false
  },
  "scores": {
    "sexual": 0.0-1.0,
    "hate": 0.0-1.0,
    "violence": 0.0-1.0,
    "harassment": 0.0-1.0,
    "selfHarm": 0.0-1.0
  },
  "reason": "explanation if flagged"
}

Message to analyze: `

// ClientConfig holds the settings for the OpenRouter completion client
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenRouter-compatible chat completion API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// NewClient creates an OpenRouter client
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete sends a chat completion request and returns the first choice text
func (c *Client) Complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", "PSG Placement Portal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion request returned %d: %s", resp.StatusCode, string(payload))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

// Moderate classifies the text through the completion API. Parse failures and
// transport errors are returned to the caller; the engine decides the
// fallback.
func (c *Client) Moderate(ctx context.Context, content string) (Verdict, error) {
	messages := []chatMessage{
		{Role: "system", Content: "You are a content moderation assistant. Always respond with valid JSON only."},
		{Role: "user", Content: moderationPrompt + `"` + content + `"`},
	}

	raw, err := c.Complete(ctx, messages)
	if err != nil {
		return Verdict{}, err
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		c.logger.Warn("unparseable moderation response", "error", err)
		return Verdict{}, err
	}
	return verdict, nil
}

// rawVerdict mirrors the model output with pointer fields so that absent
// values can be told apart from explicit false/zero.
type rawVerdict struct {
	IsSafe     *bool `json:"isSafe"`
	Flagged    *bool `json:"flagged"`
	Categories struct {
		Sexual     *bool `json:"sexual"`
		Hate       *bool `json:"hate"`
		Violence   *bool `json:"violence"`
		Harassment *bool `json:"harassment"`
		SelfHarm   *bool `json:"selfHarm"`
	} `json:"categories"`
	Scores struct {
		Sexual     *float64 `json:"sexual"`
		Hate       *float64 `json:"hate"`
		Violence   *float64 `json:"violence"`
		Harassment *float64 `json:"harassment"`
		SelfHarm   *float64 `json:"selfHarm"`
	} `json:"scores"`
	Reason string `json:"reason"`
}

// parseVerdict decodes the model's JSON reply. Missing fields default to the
// permissive side: isSafe true, category flags false, scores zero.
func parseVerdict(raw string) (Verdict, error) {
	raw = strings.TrimSpace(raw)
	// Some models wrap the JSON in a markdown fence despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed rawVerdict
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Verdict{}, fmt.Errorf("invalid verdict JSON: %w", err)
	}

	v := Verdict{
		IsSafe:  boolOr(parsed.IsSafe, true),
		Flagged: boolOr(parsed.Flagged, false),
		Categories: Categories{
			Sexual:     boolOr(parsed.Categories.Sexual, false),
			Hate:       boolOr(parsed.Categories.Hate, false),
			Violence:   boolOr(parsed.Categories.Violence, false),
			Harassment: boolOr(parsed.Categories.Harassment, false),
			SelfHarm:   boolOr(parsed.Categories.SelfHarm, false),
		},
		Scores: Scores{
			Sexual:     floatOr(parsed.Scores.Sexual, 0),
			Hate:       floatOr(parsed.Scores.Hate, 0),
			Violence:   floatOr(parsed.Scores.Violence, 0),
			Harassment: floatOr(parsed.Scores.Harassment, 0),
			SelfHarm:   floatOr(parsed.Scores.SelfHarm, 0),
		},
		Reason: parsed.Reason,
	}
	return v, nil
}

func boolOr(p *bool, fallback bool) bool {
	if p != nil {
		return *p
	}
	return fallback
}

func floatOr(p *float64, fallback float64) float64 {
	if p != nil {
		return *p
	}
	return fallback
}
