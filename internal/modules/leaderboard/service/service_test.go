package service

import (
	"context"
	"testing"
	"time"

	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/idlecampus/progress-engine/internal/modules/leaderboard/repository"
	"github.com/idlecampus/progress-engine/internal/testutil"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(db *gorm.DB) Service {
	return NewService(repository.NewRepository(db), nil)
}

func seedRankedUser(t *testing.T, db *gorm.DB, username string, totalXP int64, lastActivity *time.Time) uuid.UUID {
	t.Helper()
	userID := testutil.CreateUser(t, db, username)
	require.NoError(t, db.Create(&model.UserStats{
		UserID:           userID,
		TotalXP:          totalXP,
		CurrentLevel:     1,
		LastActivityDate: lastActivity,
	}).Error)
	return userID
}

func setUpdatedAt(t *testing.T, db *gorm.DB, userID uuid.UUID, at time.Time) {
	t.Helper()
	require.NoError(t, db.Exec(
		"UPDATE user_stats SET updated_at = ? WHERE user_id = ?", at, userID).Error)
}

func TestGetLeaderboard_OrdersByXP(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedRankedUser(t, db, "low", 100, nil)
	seedRankedUser(t, db, "high", 900, nil)
	seedRankedUser(t, db, "mid", 500, nil)

	resp, err := newTestService(db).GetLeaderboard(context.Background(), "all", 10)
	require.NoError(t, err)

	require.Len(t, resp.Entries, 3)
	assert.Equal(t, "high", resp.Entries[0].Username)
	assert.Equal(t, "mid", resp.Entries[1].Username)
	assert.Equal(t, "low", resp.Entries[2].Username)
	assert.Equal(t, int64(1), resp.Entries[0].Rank)
	assert.Equal(t, int64(3), resp.Entries[2].Rank)
}

func TestGetLeaderboard_TieBreaksOnEarlierActivity(t *testing.T) {
	db := testutil.NewTestDB(t)
	earlier := seedRankedUser(t, db, "earlier", 500, nil)
	later := seedRankedUser(t, db, "later", 500, nil)

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	setUpdatedAt(t, db, later, base.Add(time.Hour))
	setUpdatedAt(t, db, earlier, base)

	resp, err := newTestService(db).GetLeaderboard(context.Background(), "all", 10)
	require.NoError(t, err)

	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "earlier", resp.Entries[0].Username)
	assert.Equal(t, "later", resp.Entries[1].Username)
}

func TestGetLeaderboard_PeriodFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	lastWeek := today.AddDate(0, 0, -5)
	lastYear := today.AddDate(-1, 0, 0)

	seedRankedUser(t, db, "active-today", 100, &today)
	seedRankedUser(t, db, "active-week", 200, &lastWeek)
	seedRankedUser(t, db, "dormant", 900, &lastYear)
	svc := newTestService(db)
	ctx := context.Background()

	daily, err := svc.GetLeaderboard(ctx, "daily", 10)
	require.NoError(t, err)
	require.Len(t, daily.Entries, 1)
	assert.Equal(t, "active-today", daily.Entries[0].Username)

	weekly, err := svc.GetLeaderboard(ctx, "weekly", 10)
	require.NoError(t, err)
	assert.Len(t, weekly.Entries, 2)

	all, err := svc.GetLeaderboard(ctx, "all", 10)
	require.NoError(t, err)
	assert.Len(t, all.Entries, 3)
	assert.Equal(t, "dormant", all.Entries[0].Username)
}

func TestGetLeaderboard_InvalidPeriod(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := newTestService(db).GetLeaderboard(context.Background(), "fortnightly", 10)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestGetLeaderboard_RespectsLimit(t *testing.T) {
	db := testutil.NewTestDB(t)
	for i, name := range []string{"a", "b", "c", "d"} {
		seedRankedUser(t, db, name, int64(100*(i+1)), nil)
	}

	resp, err := newTestService(db).GetLeaderboard(context.Background(), "all", 2)
	require.NoError(t, err)
	assert.Len(t, resp.Entries, 2)
}

func TestGetUserRank_Percentile(t *testing.T) {
	db := testutil.NewTestDB(t)
	top := seedRankedUser(t, db, "top", 900, nil)
	mid := seedRankedUser(t, db, "mid", 500, nil)
	seedRankedUser(t, db, "low", 100, nil)
	svc := newTestService(db)
	ctx := context.Background()

	rank, err := svc.GetUserRank(ctx, top, "all")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank.Rank)
	assert.Equal(t, int64(3), rank.TotalUsers)
	assert.InDelta(t, 66.67, rank.Percentile, 0.01)

	rank, err = svc.GetUserRank(ctx, mid, "all")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank.Rank)
	assert.InDelta(t, 33.33, rank.Percentile, 0.01)
}

func TestGetUserRank_PeriodFiltersPopulation(t *testing.T) {
	db := testutil.NewTestDB(t)
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	lastYear := today.AddDate(-1, 0, 0)

	active := seedRankedUser(t, db, "active", 100, &today)
	dormant := seedRankedUser(t, db, "dormant", 900, &lastYear)
	svc := newTestService(db)
	ctx := context.Background()

	// over all time the dormant high scorer leads
	rank, err := svc.GetUserRank(ctx, active, "all")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank.Rank)
	assert.Equal(t, int64(2), rank.TotalUsers)

	// today's board only contains today's activity
	rank, err = svc.GetUserRank(ctx, active, "daily")
	require.NoError(t, err)
	assert.Equal(t, "daily", rank.Period)
	assert.Equal(t, int64(1), rank.Rank)
	assert.Equal(t, int64(1), rank.TotalUsers)

	rank, err = svc.GetUserRank(ctx, dormant, "daily")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rank.Rank)
	assert.Equal(t, int64(1), rank.TotalUsers)
	assert.Equal(t, float64(0), rank.Percentile)

	_, err = svc.GetUserRank(ctx, active, "fortnightly")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestGetUserRank_UserWithoutStats(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedRankedUser(t, db, "someone", 500, nil)
	unranked := testutil.CreateUser(t, db, "newbie")

	rank, err := newTestService(db).GetUserRank(context.Background(), unranked, "all")
	require.NoError(t, err)

	assert.Equal(t, int64(0), rank.Rank)
	assert.Equal(t, int64(1), rank.TotalUsers)
	assert.Equal(t, float64(0), rank.Percentile)
}

func TestRefreshRankPercentiles(t *testing.T) {
	db := testutil.NewTestDB(t)
	top := seedRankedUser(t, db, "top", 900, nil)
	bottom := seedRankedUser(t, db, "bottom", 100, nil)

	require.NoError(t, newTestService(db).RefreshRankPercentiles(context.Background()))

	var stats model.UserStats
	require.NoError(t, db.Where("user_id = ?", top).First(&stats).Error)
	require.NotNil(t, stats.RankPercentile)
	assert.InDelta(t, 50.0, *stats.RankPercentile, 0.01)

	stats = model.UserStats{} // fresh struct so the previous primary key is not reused as a condition
	require.NoError(t, db.Where("user_id = ?", bottom).First(&stats).Error)
	require.NotNil(t, stats.RankPercentile)
	assert.InDelta(t, 0.0, *stats.RankPercentile, 0.01)
}
