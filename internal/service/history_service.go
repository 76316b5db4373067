package service

import (
	"context"
	"ssbprep/internal/cache"
	"ssbprep/internal/model"
	"ssbprep/internal/repository"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HistoryService records one summary per scored attempt of a logged-in user.
// Recording is best effort and never delays the report returned to the user.
type HistoryService struct {
	repo        repository.HistoryRepo
	leaderboard cache.LeaderboardCache
	examName    string
	timeout     time.Duration
	log         *zap.Logger

	wg sync.WaitGroup
}

// NewHistoryService creates a new history service. leaderboard may be nil.
func NewHistoryService(repo repository.HistoryRepo, leaderboard cache.LeaderboardCache, examName string, log *zap.Logger) *HistoryService {
	return &HistoryService{
		repo:        repo,
		leaderboard: leaderboard,
		examName:    examName,
		timeout:     5 * time.Second,
		log:         log,
	}
}

// Record persists report for userID in the background. Anonymous attempts are not recorded.
func (s *HistoryService) Record(userID, examName string, report *model.ScoreReport) {
	if userID == "" || report == nil || s.repo == nil {
		return
	}
	if examName == "" {
		examName = s.examName
	}

	score, total, percentage := report.Totals()
	rec := &model.HistoryRecord{
		UserID:          userID,
		ExamName:        examName,
		TestType:        report.TestType,
		Score:           score,
		Total:           total,
		Percentage:      percentage,
		Feedback:        report.Feedback(),
		ResponseDetails: report,
		CreatedAt:       time.Now().UTC(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.persist(ctx, rec, report.Degraded)
	}()
}

func (s *HistoryService) persist(ctx context.Context, rec *model.HistoryRecord, degraded bool) {
	if err := s.repo.Create(ctx, rec); err != nil {
		s.log.Error("failed to save history record",
			zap.String("user", rec.UserID),
			zap.String("testType", string(rec.TestType)),
			zap.Error(err),
		)
		return
	}

	// Neutral reports say nothing about the candidate
	if s.leaderboard == nil || degraded {
		return
	}
	if err := s.leaderboard.Record(ctx, rec.TestType, rec.UserID, rec.Percentage); err != nil {
		s.log.Warn("failed to update leaderboard", zap.String("user", rec.UserID), zap.Error(err))
	}
}

// List returns the user's most recent records, newest first
func (s *HistoryService) List(ctx context.Context, userID string, limit int64) ([]model.HistoryRecord, error) {
	if s.repo == nil {
		return []model.HistoryRecord{}, nil
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// Leaderboard returns the top users by best percentage for t
func (s *HistoryService) Leaderboard(ctx context.Context, t model.TestType, limit int) ([]model.LeaderboardEntry, error) {
	if s.leaderboard == nil {
		return []model.LeaderboardEntry{}, nil
	}
	return s.leaderboard.GetTop(ctx, t, limit)
}

// Rank returns userID's 1-indexed position on the board for t, or 0 when
// the user has no entry
func (s *HistoryService) Rank(ctx context.Context, t model.TestType, userID string) (int64, error) {
	if s.leaderboard == nil || userID == "" {
		return 0, nil
	}
	rank, err := s.leaderboard.GetRank(ctx, t, userID)
	if err != nil {
		return 0, err
	}
	if rank < 0 {
		return 0, nil
	}
	return rank, nil
}

// Wait blocks until in-flight records are written
func (s *HistoryService) Wait() {
	s.wg.Wait()
}
