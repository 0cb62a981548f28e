package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("got %d messages, want system + user", len(req.Messages))
		}

		resp := map[string]any{
			"id":    "gen-1",
			"model": req.Model,
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "google/gemini-2.0-flash-exp:free",
		Timeout: 2 * time.Second,
	}, testLogger())
}

func TestClientModerate(t *testing.T) {
	t.Run("full verdict", func(t *testing.T) {
		reply := `{
			"isSafe": false,
			"flagged": true,
			"categories": {"sexual": false, "hate": true, "violence": false, "harassment": true, "selfHarm": false},
			"scores": {"sexual": 0, "hate": 0.92, "violence": 0, "harassment": 0.81, "selfHarm": 0},
			"reason": "targeted abuse"
		}`
		client := newTestClient(t, completionHandler(t, reply))

		got, err := client.Moderate(context.Background(), "some text")
		if err != nil {
			t.Fatalf("Moderate: %v", err)
		}
		if got.IsSafe || !got.Flagged {
			t.Errorf("verdict = %+v, want unsafe and flagged", got)
		}
		if got.Scores.Hate != 0.92 {
			t.Errorf("hate score = %v, want 0.92", got.Scores.Hate)
		}
		if got.Reason != "targeted abuse" {
			t.Errorf("reason = %q", got.Reason)
		}
	})

	t.Run("missing fields default to permissive", func(t *testing.T) {
		client := newTestClient(t, completionHandler(t, `{"flagged": false}`))

		got, err := client.Moderate(context.Background(), "hello")
		if err != nil {
			t.Fatalf("Moderate: %v", err)
		}
		if !got.IsSafe {
			t.Error("missing isSafe should default to true")
		}
		if got.MaxScore() != 0 {
			t.Errorf("missing scores should default to 0, got %v", got.MaxScore())
		}
	})

	t.Run("markdown fenced reply", func(t *testing.T) {
		client := newTestClient(t, completionHandler(t, "```json\n{\"isSafe\": true}\n```"))

		got, err := client.Moderate(context.Background(), "hello")
		if err != nil {
			t.Fatalf("Moderate: %v", err)
		}
		if !got.IsSafe {
			t.Error("expected safe verdict from fenced JSON")
		}
	})

	t.Run("non JSON reply errors", func(t *testing.T) {
		client := newTestClient(t, completionHandler(t, "I cannot help with that."))

		if _, err := client.Moderate(context.Background(), "hello"); err == nil {
			t.Fatal("expected parse error for prose reply")
		}
	})

	t.Run("upstream error status errors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		})

		if _, err := client.Moderate(context.Background(), "hello"); err == nil {
			t.Fatal("expected error for non-200 response")
		}
	})
}
