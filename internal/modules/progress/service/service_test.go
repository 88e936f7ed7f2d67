package service

import (
	"context"
	"sync"
	"testing"

	"github.com/idlecampus/progress-engine/internal/model"
	achievementrepo "github.com/idlecampus/progress-engine/internal/modules/achievement/repository"
	achievementservice "github.com/idlecampus/progress-engine/internal/modules/achievement/service"
	catalogrepo "github.com/idlecampus/progress-engine/internal/modules/catalog/repository"
	notifrepo "github.com/idlecampus/progress-engine/internal/modules/notification/repository"
	notifservice "github.com/idlecampus/progress-engine/internal/modules/notification/service"
	"github.com/idlecampus/progress-engine/internal/modules/progress/dto"
	"github.com/idlecampus/progress-engine/internal/modules/progress/repository"
	skillrepo "github.com/idlecampus/progress-engine/internal/modules/skill/repository"
	skillservice "github.com/idlecampus/progress-engine/internal/modules/skill/service"
	streakservice "github.com/idlecampus/progress-engine/internal/modules/streak/service"
	xprepo "github.com/idlecampus/progress-engine/internal/modules/xp/repository"
	xpservice "github.com/idlecampus/progress-engine/internal/modules/xp/service"
	"github.com/idlecampus/progress-engine/internal/testutil"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(db *gorm.DB) Service {
	statsRepo := xprepo.NewRepository(db)
	xpSvc := xpservice.NewService(db, statsRepo)
	streakSvc := streakservice.NewService(db, statsRepo)
	notifSvc := notifservice.NewService(notifrepo.NewRepository(db), nil)
	achievementSvc := achievementservice.NewService(
		achievementrepo.NewRepository(db), statsRepo, notifrepo.NewRepository(db), xpSvc)
	skillSvc := skillservice.NewService(db, skillrepo.NewRepository(db), statsRepo)

	return NewService(db, repository.NewRepository(db), statsRepo,
		catalogrepo.NewRepository(db), xpSvc, streakSvc, achievementSvc, skillSvc, notifSvc)
}

func TestCompleteLevel_FirstCompletion(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "alice")
	challengeID := testutil.CreateChallenge(t, db, "url-shortener", 100, 150, 200)
	svc := newTestService(db)

	result, err := svc.CompleteLevel(context.Background(), userID, challengeID, 1, dto.CompleteLevelRequest{
		Score:            85,
		TimeSpentMinutes: 30,
		HintsUsed:        1,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100), result.XPEarned)
	assert.Equal(t, int64(100), result.TotalXP)
	assert.True(t, result.LevelUp)
	assert.Equal(t, 2, result.NewLevel)
	assert.Equal(t, 1, result.AttemptNumber)
	assert.False(t, result.ChallengeCompleted)
	assert.Equal(t, 1, result.Streak.CurrentStreak)

	var attempt model.LevelAttempt
	require.NoError(t, db.Where("user_id = ?", userID).First(&attempt).Error)
	assert.Equal(t, 1, attempt.AttemptNumber)
	assert.True(t, attempt.Passed)
	assert.Equal(t, int64(100), attempt.XPEarned)

	var progress model.ChallengeProgress
	require.NoError(t, db.Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&progress).Error)
	assert.Equal(t, model.StatusInProgress, progress.Status)
	assert.Equal(t, []int{1}, progress.LevelsCompleted)
	assert.NotNil(t, progress.StartDate)
	assert.Nil(t, progress.CompletionDate)

	var stats model.UserStats
	require.NoError(t, db.Where("user_id = ?", userID).First(&stats).Error)
	assert.Equal(t, 1, stats.TotalChallengesStarted)
	assert.Equal(t, 0, stats.TotalChallengesCompleted)
	assert.Equal(t, 1, stats.TotalLevelsCompleted)
	assert.Equal(t, 30, stats.TotalTimeSpentMinutes)
}

func TestCompleteLevel_FinalLevelCompletesChallenge(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "bob")
	challengeID := testutil.CreateChallenge(t, db, "rate-limiter", 100, 150)
	svc := newTestService(db)
	ctx := context.Background()

	_, err := svc.CompleteLevel(ctx, userID, challengeID, 1, dto.CompleteLevelRequest{Score: 70})
	require.NoError(t, err)

	result, err := svc.CompleteLevel(ctx, userID, challengeID, 2, dto.CompleteLevelRequest{Score: 90})
	require.NoError(t, err)
	assert.True(t, result.ChallengeCompleted)

	var progress model.ChallengeProgress
	require.NoError(t, db.Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&progress).Error)
	assert.Equal(t, model.StatusCompleted, progress.Status)
	assert.NotNil(t, progress.CompletionDate)
	assert.Equal(t, []int{1, 2}, progress.LevelsCompleted)
	require.NotNil(t, progress.BestScore)
	assert.Equal(t, float64(90), *progress.BestScore)

	var stats model.UserStats
	require.NoError(t, db.Where("user_id = ?", userID).First(&stats).Error)
	assert.Equal(t, 1, stats.TotalChallengesStarted)
	assert.Equal(t, 1, stats.TotalChallengesCompleted)
	assert.Equal(t, 2, stats.TotalLevelsCompleted)
	assert.Equal(t, int64(250), stats.TotalXP)
}

func TestCompleteLevel_UnknownLevel(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "carol")
	challengeID := testutil.CreateChallenge(t, db, "chat-system", 100)

	_, err := newTestService(db).CompleteLevel(context.Background(), userID, challengeID, 7, dto.CompleteLevelRequest{})
	assert.ErrorIs(t, err, apperror.ErrLevelNotFound)

	// nothing was written
	var count int64
	require.NoError(t, db.Model(&model.LevelAttempt{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCompleteLevel_UnknownChallenge(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "dave")

	_, err := newTestService(db).CompleteLevel(context.Background(), userID, uuid.New(), 1, dto.CompleteLevelRequest{})
	assert.ErrorIs(t, err, apperror.ErrChallengeNotFound)
}

func TestCompleteLevel_RepeatIncrementsAttemptOnly(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "erin")
	challengeID := testutil.CreateChallenge(t, db, "url-shortener", 100, 150)
	svc := newTestService(db)
	ctx := context.Background()

	first, err := svc.CompleteLevel(ctx, userID, challengeID, 1, dto.CompleteLevelRequest{Score: 60})
	require.NoError(t, err)
	assert.Equal(t, 1, first.AttemptNumber)

	second, err := svc.CompleteLevel(ctx, userID, challengeID, 1, dto.CompleteLevelRequest{Score: 95})
	require.NoError(t, err)
	assert.Equal(t, 2, second.AttemptNumber)

	var progress model.ChallengeProgress
	require.NoError(t, db.Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&progress).Error)
	// the level set does not grow on a repeat, the counters do
	assert.Equal(t, []int{1}, progress.LevelsCompleted)
	assert.Equal(t, 2, progress.TotalAttempts)
	require.NotNil(t, progress.BestScore)
	assert.Equal(t, float64(95), *progress.BestScore)

	var stats model.UserStats
	require.NoError(t, db.Where("user_id = ?", userID).First(&stats).Error)
	assert.Equal(t, 1, stats.TotalLevelsCompleted)
	// XP is earned on every passing attempt
	assert.Equal(t, int64(200), stats.TotalXP)
}

func TestCompleteLevel_ConcurrentCallsGetDistinctAttempts(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "ivan")
	challengeID := testutil.CreateChallenge(t, db, "url-shortener", 100)
	svc := newTestService(db)
	ctx := context.Background()

	results := make(chan *dto.CompleteLevelResult, 2)
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.CompleteLevel(ctx, userID, challengeID, 1, dto.CompleteLevelRequest{Score: 80})
			if err != nil {
				errs <- err
				return
			}
			results <- result
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := map[int]bool{}
	for result := range results {
		assert.False(t, seen[result.AttemptNumber])
		seen[result.AttemptNumber] = true
	}
	assert.True(t, seen[1])
	assert.True(t, seen[2])

	var attempts []model.LevelAttempt
	require.NoError(t, db.Where("user_id = ?", userID).
		Order("attempt_number asc").Find(&attempts).Error)
	require.Len(t, attempts, 2)
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.Equal(t, 2, attempts[1].AttemptNumber)

	// both passing attempts earned XP, the level set holds one entry
	var stats model.UserStats
	require.NoError(t, db.Where("user_id = ?", userID).First(&stats).Error)
	assert.Equal(t, int64(200), stats.TotalXP)
	assert.Equal(t, 1, stats.TotalLevelsCompleted)
}

func TestCompleteLevel_UnlocksAchievements(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "frank")
	challengeID := testutil.CreateChallenge(t, db, "url-shortener", 100)
	testutil.CreateAchievement(t, db, "first-steps", 50, map[string]interface{}{
		"levels_completed": 1,
	})
	svc := newTestService(db)

	result, err := svc.CompleteLevel(context.Background(), userID, challengeID, 1, dto.CompleteLevelRequest{Score: 80})
	require.NoError(t, err)

	require.Len(t, result.AchievementsUnlocked, 1)
	assert.Equal(t, "first-steps", result.AchievementsUnlocked[0].Slug)
	assert.Equal(t, int64(50), result.AchievementsUnlocked[0].XPAwarded)

	// ledger holds both the level XP and the achievement bonus
	var sum int64
	require.NoError(t, db.Model(&model.XPTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error)
	assert.Equal(t, int64(150), sum)

	var stats model.UserStats
	require.NoError(t, db.Where("user_id = ?", userID).First(&stats).Error)
	assert.Equal(t, int64(150), stats.TotalXP)
}

func TestGetUserProgress_Composite(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "grace")
	challengeID := testutil.CreateChallenge(t, db, "url-shortener", 100, 150)
	testutil.CreateAchievement(t, db, "first-steps", 50, map[string]interface{}{
		"levels_completed": 1,
	})
	testutil.CreateAchievement(t, db, "far-away", 0, map[string]interface{}{
		"levels_completed": 1000,
	})
	testutil.CreateSkill(t, db, "debugging", 5)
	svc := newTestService(db)
	ctx := context.Background()

	_, err := svc.CompleteLevel(ctx, userID, challengeID, 1, dto.CompleteLevelRequest{Score: 75, TimeSpentMinutes: 12})
	require.NoError(t, err)

	view, err := svc.GetUserProgress(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, userID.String(), view.UserID)
	assert.Equal(t, int64(150), view.Level.TotalXP)

	require.Len(t, view.Challenges, 1)
	assert.Equal(t, "url-shortener", view.Challenges[0].ChallengeSlug)
	assert.Equal(t, model.StatusInProgress, view.Challenges[0].Status)

	require.Len(t, view.Achievements, 2)
	bySlug := map[string]bool{}
	for _, a := range view.Achievements {
		bySlug[a.Slug] = a.UnlockedAt != nil
	}
	assert.True(t, bySlug["first-steps"])
	assert.False(t, bySlug["far-away"])

	require.Len(t, view.Skills, 1)
	assert.Equal(t, view.Level.CurrentLevel, view.SkillPointsLeft)

	require.NotNil(t, view.Streak)
	assert.Equal(t, 1, view.Streak.CurrentStreak)
}

func TestGetUserProgress_NewUserIsEmpty(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "heidi")

	view, err := newTestService(db).GetUserProgress(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 1, view.Level.CurrentLevel)
	assert.Empty(t, view.Challenges)
	assert.Empty(t, view.Skills)
	assert.Equal(t, 0, view.Stats.TotalChallengesStarted)
}
