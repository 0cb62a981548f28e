package leetcode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// profileServer answers the GraphQL endpoint with a fixed matchedUser per
// username; unknown usernames get a null matchedUser.
func profileServer(t *testing.T, known map[string]*UserData) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		username, _ := req.Variables["username"].(string)

		resp := profileResponse{}
		resp.Data.MatchedUser = known[username]
		json.NewEncoder(w).Encode(resp)
	}))
}

func sampleUser(username string) *UserData {
	data := &UserData{Username: username}
	data.Profile.Ranking = 15000
	data.Profile.Reputation = 42
	data.SubmitStats.ACSubmissionNum = []struct {
		Difficulty  string `json:"difficulty"`
		Count       int    `json:"count"`
		Submissions int    `json:"submissions"`
	}{
		{Difficulty: "All", Count: 310, Submissions: 500},
		{Difficulty: "Easy", Count: 150, Submissions: 200},
		{Difficulty: "Medium", Count: 120, Submissions: 220},
		{Difficulty: "Hard", Count: 40, Submissions: 80},
	}
	return data
}

func TestFetchProfile(t *testing.T) {
	server := profileServer(t, map[string]*UserData{"asha": sampleUser("asha")})
	defer server.Close()

	client := NewClient(server.URL, testLogger())

	data, err := client.FetchProfile(context.Background(), "asha")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if data.Username != "asha" {
		t.Errorf("Username = %q", data.Username)
	}
	if data.Profile.Ranking != 15000 {
		t.Errorf("Ranking = %d", data.Profile.Ranking)
	}
}

func TestFetchProfileNotFound(t *testing.T) {
	server := profileServer(t, nil)
	defer server.Close()

	client := NewClient(server.URL, testLogger())

	_, err := client.FetchProfile(context.Background(), "nobody")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("want ErrProfileNotFound, got %v", err)
	}
}

func TestFetchProfileServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, testLogger())

	_, err := client.FetchProfile(context.Background(), "asha")
	if err == nil {
		t.Fatal("want error on non-200 response")
	}
	if errors.Is(err, ErrProfileNotFound) {
		t.Error("server error should not look like a missing profile")
	}
}

func TestParseStats(t *testing.T) {
	stats := ParseStats(sampleUser("asha"))

	if stats.EasySolved != 150 || stats.MediumSolved != 120 || stats.HardSolved != 40 {
		t.Errorf("per-difficulty counts = %+v", stats)
	}
	// Total is recomputed from the difficulty buckets, not taken from "All"
	if stats.TotalSolved != 310 {
		t.Errorf("TotalSolved = %d, want 310", stats.TotalSolved)
	}
	if stats.Ranking != 15000 || stats.Reputation != 42 {
		t.Errorf("profile fields = %+v", stats)
	}
}

func TestExtractUsername(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://leetcode.com/u/asha", "asha", true},
		{"https://leetcode.com/asha", "asha", true},
		{"https://leetcode.com/u/asha/", "asha", true},
		{"leetcode.com/u/asha?tab=progress", "asha", true},
		{"https://www.leetcode.com/dev_kumar", "dev_kumar", true},
		{"https://github.com/asha", "", false},
		{"https://leetcode.com/", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := ExtractUsername(tt.url)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ExtractUsername(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.ok)
			}
		})
	}
}
