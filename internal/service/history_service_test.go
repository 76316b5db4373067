package service

import (
	"context"
	"ssbprep/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func watReport(score float64) *model.ScoreReport {
	scores := make(map[string]float64, len(model.WATTraits))
	for _, trait := range model.WATTraits {
		scores[trait] = score
	}
	return &model.ScoreReport{
		TestType: model.TestTypeWAT,
		WAT:      model.AggregateWAT([]model.WATItemScore{{Word: "DUTY", Scores: scores}}),
	}
}

func TestRecordPersistsSummary(t *testing.T) {
	repo := &fakeHistoryRepo{}
	board := &fakeLeaderboard{}
	svc := NewHistoryService(repo, board, "SSB", zap.NewNop())

	svc.Record("user-1", "", watReport(4))
	svc.Wait()

	records := repo.saved()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "SSB", rec.ExamName)
	assert.Equal(t, model.TestTypeWAT, rec.TestType)
	assert.Equal(t, 64.0, rec.Score)
	assert.Equal(t, 80.0, rec.Total)
	assert.Equal(t, 80.0, rec.Percentage)
	assert.NotNil(t, rec.ResponseDetails)
	assert.False(t, rec.CreatedAt.IsZero())

	top, err := svc.Leaderboard(context.Background(), model.TestTypeWAT, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 80.0, top[0].Percentage)
}

func TestRecordSkipsAnonymous(t *testing.T) {
	repo := &fakeHistoryRepo{}
	svc := NewHistoryService(repo, nil, "SSB", zap.NewNop())

	svc.Record("", "SSB", watReport(3))
	svc.Wait()

	assert.Empty(t, repo.saved())
}

func TestRecordDegradedReportSkipsLeaderboard(t *testing.T) {
	repo := &fakeHistoryRepo{}
	board := &fakeLeaderboard{}
	svc := NewHistoryService(repo, board, "SSB", zap.NewNop())

	report := model.NeutralReport(model.TestTypeWAT, nil)
	svc.Record("user-1", "SSB", report)
	svc.Wait()

	assert.Len(t, repo.saved(), 1)
	top, _ := svc.Leaderboard(context.Background(), model.TestTypeWAT, 10)
	assert.Empty(t, top)
}

func TestRecordFailureIsSwallowed(t *testing.T) {
	repo := &fakeHistoryRepo{err: errStoreDown}
	svc := NewHistoryService(repo, &fakeLeaderboard{}, "SSB", zap.NewNop())

	assert.NotPanics(t, func() {
		svc.Record("user-1", "SSB", watReport(3))
		svc.Wait()
	})
}

func TestRankReportsCallerStanding(t *testing.T) {
	board := &fakeLeaderboard{}
	svc := NewHistoryService(&fakeHistoryRepo{}, board, "SSB", zap.NewNop())

	svc.Record("strong", "SSB", watReport(5))
	svc.Record("steady", "SSB", watReport(3))
	svc.Wait()

	ctx := context.Background()
	rank, err := svc.Rank(ctx, model.TestTypeWAT, "steady")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	rank, err = svc.Rank(ctx, model.TestTypeWAT, "newcomer")
	require.NoError(t, err)
	assert.Zero(t, rank)

	rank, err = NewHistoryService(nil, nil, "SSB", zap.NewNop()).Rank(ctx, model.TestTypeWAT, "steady")
	require.NoError(t, err)
	assert.Zero(t, rank)
}
