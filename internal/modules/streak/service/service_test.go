package service

import (
	"context"
	"testing"
	"time"

	xprepo "github.com/idlecampus/progress-engine/internal/modules/xp/repository"
	"github.com/idlecampus/progress-engine/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 15, 30, 0, 0, time.UTC)
}

func TestTouch_FirstActivityStartsStreak(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "alice")
	svc := NewService(db, xprepo.NewRepository(db))

	info, err := svc.Touch(context.Background(), userID, day(2026, time.March, 10))
	require.NoError(t, err)

	assert.Equal(t, 1, info.CurrentStreak)
	assert.Equal(t, 1, info.LongestStreak)
	assert.True(t, info.IsActiveToday)
}

func TestTouch_SameDayIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "bob")
	svc := NewService(db, xprepo.NewRepository(db))
	ctx := context.Background()

	_, err := svc.Touch(ctx, userID, day(2026, time.March, 10))
	require.NoError(t, err)

	// later the same day
	info, err := svc.Touch(ctx, userID, day(2026, time.March, 10).Add(6*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, info.CurrentStreak)
	assert.Equal(t, 1, info.LongestStreak)
}

func TestTouch_ConsecutiveDaysExtend(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "carol")
	svc := NewService(db, xprepo.NewRepository(db))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		info, err := svc.Touch(ctx, userID, day(2026, time.March, 10+i))
		require.NoError(t, err)
		assert.Equal(t, i+1, info.CurrentStreak)
	}
}

func TestTouch_GapResetsButKeepsLongest(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "dave")
	svc := NewService(db, xprepo.NewRepository(db))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Touch(ctx, userID, day(2026, time.March, 10+i))
		require.NoError(t, err)
	}

	// two day gap
	info, err := svc.Touch(ctx, userID, day(2026, time.March, 15))
	require.NoError(t, err)

	assert.Equal(t, 1, info.CurrentStreak)
	assert.Equal(t, 3, info.LongestStreak)
}

func TestTouch_MidnightBoundaryCountsAsNextDay(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "erin")
	svc := NewService(db, xprepo.NewRepository(db))
	ctx := context.Background()

	_, err := svc.Touch(ctx, userID, time.Date(2026, time.March, 10, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)

	info, err := svc.Touch(ctx, userID, time.Date(2026, time.March, 11, 0, 1, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 2, info.CurrentStreak)
}

func TestGetStreak_NewUserIsZero(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "frank")
	svc := NewService(db, xprepo.NewRepository(db))

	info, err := svc.GetStreak(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 0, info.CurrentStreak)
	assert.Equal(t, 0, info.LongestStreak)
	assert.False(t, info.IsActiveToday)
	assert.Nil(t, info.LastActivityDate)
}
