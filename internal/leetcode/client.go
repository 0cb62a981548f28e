package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ErrProfileNotFound is returned when the GraphQL API knows no such user
var ErrProfileNotFound = errors.New("leetcode profile not found")

const profileQuery = `
query getUserProfile($username: String!) {
  matchedUser(username: $username) {
    username
    profile {
      realName
      ranking
      reputation
    }
    submitStats {
      acSubmissionNum {
        difficulty
        count
        submissions
      }
    }
  }
}`

// UserData is the matchedUser payload from the LeetCode GraphQL API
type UserData struct {
	Username string `json:"username"`
	Profile  struct {
		RealName   string `json:"realName"`
		Ranking    int    `json:"ranking"`
		Reputation int    `json:"reputation"`
	} `json:"profile"`
	SubmitStats struct {
		ACSubmissionNum []struct {
			Difficulty  string `json:"difficulty"`
			Count       int    `json:"count"`
			Submissions int    `json:"submissions"`
		} `json:"acSubmissionNum"`
	} `json:"submitStats"`
}

// Stats is the flattened solved-count view of a profile
type Stats struct {
	TotalSolved  int `json:"totalSolved"`
	EasySolved   int `json:"easySolved"`
	MediumSolved int `json:"mediumSolved"`
	HardSolved   int `json:"hardSolved"`
	Ranking      int `json:"ranking"`
	Reputation   int `json:"reputation"`
}

// Client fetches public profiles from the LeetCode GraphQL API
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a LeetCode API client. baseURL is the site root, for
// example https://leetcode.com.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type profileResponse struct {
	Data struct {
		MatchedUser *UserData `json:"matchedUser"`
	} `json:"data"`
}

// FetchProfile returns the public profile for a username, or
// ErrProfileNotFound when the username does not exist.
func (c *Client) FetchProfile(ctx context.Context, username string) (*UserData, error) {
	body, err := json.Marshal(graphqlRequest{
		Query:     profileQuery,
		Variables: map[string]any{"username": username},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile request returned %d", resp.StatusCode)
	}

	var decoded profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	if decoded.Data.MatchedUser == nil {
		return nil, ErrProfileNotFound
	}

	return decoded.Data.MatchedUser, nil
}

// ParseStats flattens the per-difficulty submission counts
func ParseStats(data *UserData) Stats {
	stats := Stats{
		Ranking:    data.Profile.Ranking,
		Reputation: data.Profile.Reputation,
	}
	for _, entry := range data.SubmitStats.ACSubmissionNum {
		switch entry.Difficulty {
		case "Easy":
			stats.EasySolved = entry.Count
		case "Medium":
			stats.MediumSolved = entry.Count
		case "Hard":
			stats.HardSolved = entry.Count
		}
	}
	stats.TotalSolved = stats.EasySolved + stats.MediumSolved + stats.HardSolved
	return stats
}

// Accepts leetcode.com/<username> and leetcode.com/u/<username>, with or
// without scheme and trailing path.
var usernamePattern = regexp.MustCompile(`leetcode\.com/(?:u/)?([^/?#]+)`)

// ExtractUsername pulls the username out of a profile URL
func ExtractUsername(url string) (string, bool) {
	match := usernamePattern.FindStringSubmatch(url)
	if match == nil || match[1] == "" {
		return "", false
	}
	return match[1], true
}
