package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/psg-placement/chat-service/internal/events"
	"github.com/psg-placement/chat-service/internal/leetcode"
	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/repositories"
	"github.com/psg-placement/chat-service/internal/validator"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 200
)

// leetCodeService implements LeetCodeService
type leetCodeService struct {
	repo      repositories.Repository
	syncer    *leetcode.Syncer
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
}

// NewLeetCodeService creates the profile sync service
func NewLeetCodeService(
	repo repositories.Repository,
	syncer *leetcode.Syncer,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
) LeetCodeService {
	return &leetCodeService{
		repo:      repo,
		syncer:    syncer,
		publisher: publisher,
		validator: v,
		logger:    logger,
	}
}

func (s *leetCodeService) SyncProfile(ctx context.Context, userID, profileURL string) (*models.LeetCodeProfile, error) {
	req := validator.SyncProfileRequest{ProfileURL: profileURL}
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}
	if _, ok := leetcode.ExtractUsername(profileURL); !ok {
		return nil, validator.ValidationErrors{{
			Field:   "profile_url",
			Message: "must be a leetcode.com profile URL",
			Rule:    "leetcode_url",
		}}
	}

	if err := s.repo.User().UpdateLeetCodeURL(ctx, userID, profileURL); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to store profile url: %w", err)
	}

	if _, err := s.syncer.SyncUser(ctx, userID); err != nil {
		return nil, err
	}

	profile, err := s.repo.LeetCode().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load synced profile: %w", err)
	}
	return profile, nil
}

func (s *leetCodeService) GetStats(ctx context.Context, userID string) (*models.LeetCodeProfile, error) {
	profile, err := s.repo.LeetCode().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return profile, nil
}

func (s *leetCodeService) Leaderboard(ctx context.Context, scope *models.CohortScope, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	entries, err := s.repo.LeetCode().Leaderboard(ctx, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}
	return entries, nil
}

func (s *leetCodeService) SyncAll(ctx context.Context, scope *models.CohortScope) (*leetcode.SyncResult, error) {
	result, err := s.syncer.SyncAll(ctx, scope)
	if result != nil {
		event := events.NewEvent(events.EventSyncCompleted, events.SyncCompletedEvent{
			Success: result.Success,
			Failed:  result.Failed,
		})
		if pubErr := s.publisher.Publish(ctx, event); pubErr != nil {
			s.logger.Warn("failed to publish sync event", "error", pubErr)
		}
	}
	return result, err
}

// exportHeaders is the column order of the stats workbook
var exportHeaders = []interface{}{
	"Register Number", "Full Name", "Class Section", "LeetCode Username",
	"Total Solved", "Easy", "Medium", "Hard", "Ranking", "Last Synced", "Sync Error",
}

func (s *leetCodeService) ExportStats(ctx context.Context, scope *models.CohortScope) ([]byte, error) {
	profiles, err := s.repo.LeetCode().List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "LeetCode Stats"
	f.SetSheetName("Sheet1", sheet)

	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	for i, p := range profiles {
		row := []interface{}{
			"", "", "", p.Username,
			p.TotalSolved, p.EasySolved, p.MediumSolved, p.HardSolved,
			p.Ranking, p.LastSyncedAt.Format("2006-01-02 15:04"), "",
		}
		if p.User != nil {
			row[0] = p.User.RegisterNumber
			row[1] = p.User.FullName
			row[2] = p.User.ClassSection
		}
		if p.SyncError != nil {
			row[10] = *p.SyncError
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
