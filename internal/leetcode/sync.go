package leetcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/repositories"
)

// SyncError records one failed profile during a batch run
type SyncError struct {
	Username string `json:"username"`
	Error    string `json:"error"`
}

// SyncResult accumulates the outcome of a batch run
type SyncResult struct {
	Success int         `json:"success"`
	Failed  int         `json:"failed"`
	Errors  []SyncError `json:"errors"`
}

// SyncConfig tunes the batch engine
type SyncConfig struct {
	// BatchSize is the number of profiles fetched concurrently per batch
	BatchSize int

	// BatchDelay is the pause between consecutive batches
	BatchDelay time.Duration
}

// Syncer pulls LeetCode stats for students in rate-limited batches. A run is
// idempotent: re-running over the same users converges on the same rows.
type Syncer struct {
	repo   repositories.Repository
	client *Client
	logger *slog.Logger
	cfg    SyncConfig
}

// NewSyncer creates a batch sync engine
func NewSyncer(repo repositories.Repository, client *Client, cfg SyncConfig, logger *slog.Logger) *Syncer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = 1500 * time.Millisecond
	}
	return &Syncer{repo: repo, client: client, logger: logger, cfg: cfg}
}

// SyncUser refreshes a single student's profile from their stored URL.
// Returns false without error when the user has no profile URL.
func (s *Syncer) SyncUser(ctx context.Context, userID string) (bool, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if user.LeetCodeURL == nil || *user.LeetCodeURL == "" {
		return false, nil
	}

	username, ok := ExtractUsername(*user.LeetCodeURL)
	if !ok {
		if err := s.repo.LeetCode().MarkSyncError(ctx, userID, "", "Invalid LeetCode URL"); err != nil {
			s.logger.Error("failed to record sync error", "user_id", userID, "error", err)
		}
		return false, nil
	}

	synced, _, err := s.syncUsername(ctx, userID, username)
	return synced, err
}

// syncUsername fetches and stores one profile. On fetch failure the reason is
// returned and recorded on the row; previously synced counts are left
// untouched.
func (s *Syncer) syncUsername(ctx context.Context, userID, username string) (bool, string, error) {
	data, err := s.client.FetchProfile(ctx, username)
	if err != nil {
		reason := "Profile not found"
		if !errors.Is(err, ErrProfileNotFound) {
			reason = err.Error()
		}
		if markErr := s.repo.LeetCode().MarkSyncError(ctx, userID, username, reason); markErr != nil {
			s.logger.Error("failed to record sync error", "user_id", userID, "error", markErr)
		}
		return false, reason, nil
	}

	stats := ParseStats(data)
	raw, _ := json.Marshal(data)

	profile := &models.LeetCodeProfile{
		UserID:       userID,
		Username:     username,
		TotalSolved:  stats.TotalSolved,
		EasySolved:   stats.EasySolved,
		MediumSolved: stats.MediumSolved,
		HardSolved:   stats.HardSolved,
		Ranking:      stats.Ranking,
		Reputation:   stats.Reputation,
		ProfileData:  datatypes.JSON(raw),
		LastSyncedAt: time.Now(),
	}
	if err := s.repo.LeetCode().Upsert(ctx, profile); err != nil {
		return false, "", fmt.Errorf("failed to store profile for %s: %w", username, err)
	}

	s.audit(ctx, userID, username, stats)
	return true, "", nil
}

// SyncAll refreshes every active student with a stored profile URL,
// optionally narrowed to one cohort. Failures are isolated per profile: one
// bad username never aborts the run.
func (s *Syncer) SyncAll(ctx context.Context, scope *models.CohortScope) (*SyncResult, error) {
	users, err := s.repo.User().ListWithLeetCodeURL(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync candidates: %w", err)
	}

	s.logger.Info("starting leetcode sync", "candidates", len(users))

	type candidate struct {
		userID   string
		username string
	}

	result := &SyncResult{}
	var candidates []candidate
	for _, user := range users {
		if user.LeetCodeURL == nil {
			continue
		}
		username, ok := ExtractUsername(*user.LeetCodeURL)
		if !ok {
			result.Failed++
			result.Errors = append(result.Errors, SyncError{Username: *user.LeetCodeURL, Error: "Invalid LeetCode URL"})
			if err := s.repo.LeetCode().MarkSyncError(ctx, user.ID, "", "Invalid LeetCode URL"); err != nil {
				s.logger.Error("failed to record sync error", "user_id", user.ID, "error", err)
			}
			continue
		}
		candidates = append(candidates, candidate{userID: user.ID, username: username})
	}

	var mu sync.Mutex
	for start := 0; start < len(candidates); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + s.cfg.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		for _, cand := range candidates[start:end] {
			wg.Add(1)
			go func(cand candidate) {
				defer wg.Done()

				ok, reason, err := s.syncUsername(ctx, cand.userID, cand.username)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					result.Failed++
					result.Errors = append(result.Errors, SyncError{Username: cand.username, Error: err.Error()})
				case !ok:
					result.Failed++
					result.Errors = append(result.Errors, SyncError{Username: cand.username, Error: reason})
				default:
					result.Success++
				}
			}(cand)
		}
		wg.Wait()

		if end < len(candidates) {
			select {
			case <-time.After(s.cfg.BatchDelay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	s.logger.Info("leetcode sync completed", "success", result.Success, "failed", result.Failed)
	return result, nil
}

func (s *Syncer) audit(ctx context.Context, userID, username string, stats Stats) {
	details, _ := json.Marshal(map[string]any{"username": username, "stats": stats})
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionUpdate,
		EntityType: models.AuditEntityLeetCodeProfile,
		EntityID:   &userID,
		Details:    datatypes.JSON(details),
	}
	if err := s.repo.Audit().Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", "user_id", userID, "error", err)
	}
}
