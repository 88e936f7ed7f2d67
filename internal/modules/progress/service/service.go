package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	achievementservice "github.com/idlecampus/progress-engine/internal/modules/achievement/service"
	catalogrepo "github.com/idlecampus/progress-engine/internal/modules/catalog/repository"
	notifservice "github.com/idlecampus/progress-engine/internal/modules/notification/service"
	"github.com/idlecampus/progress-engine/internal/modules/progress/dto"
	"github.com/idlecampus/progress-engine/internal/modules/progress/repository"
	skillservice "github.com/idlecampus/progress-engine/internal/modules/skill/service"
	streakservice "github.com/idlecampus/progress-engine/internal/modules/streak/service"
	xprepo "github.com/idlecampus/progress-engine/internal/modules/xp/repository"
	xpservice "github.com/idlecampus/progress-engine/internal/modules/xp/service"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"gorm.io/gorm"
)

type Service interface {
	// CompleteLevel runs the whole completion flow in one transaction:
	// attempt record, progress rollup, XP award, streak touch and
	// achievement evaluation. Transient conflicts are retried.
	CompleteLevel(ctx context.Context, userID, challengeID uuid.UUID, levelNumber int, req dto.CompleteLevelRequest) (*dto.CompleteLevelResult, error)

	GetUserProgress(ctx context.Context, userID uuid.UUID) (*dto.UserProgressView, error)
}

type progressService struct {
	db          *gorm.DB
	repo        repository.Repository
	statsRepo   xprepo.Repository
	catalogRepo catalogrepo.Repository
	xpService   xpservice.Service
	streak      streakservice.Service
	achievement achievementservice.Service
	skill       skillservice.Service
	notifier    notifservice.Service
}

func NewService(
	db *gorm.DB,
	repo repository.Repository,
	statsRepo xprepo.Repository,
	catalogRepo catalogrepo.Repository,
	xpService xpservice.Service,
	streak streakservice.Service,
	achievement achievementservice.Service,
	skill skillservice.Service,
	notifier notifservice.Service,
) Service {
	return &progressService{
		db:          db,
		repo:        repo,
		statsRepo:   statsRepo,
		catalogRepo: catalogRepo,
		xpService:   xpService,
		streak:      streak,
		achievement: achievement,
		skill:       skill,
		notifier:    notifier,
	}
}

func (s *progressService) CompleteLevel(ctx context.Context, userID, challengeID uuid.UUID, levelNumber int, req dto.CompleteLevelRequest) (*dto.CompleteLevelResult, error) {
	challenge, err := s.catalogRepo.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	level, err := s.catalogRepo.GetLevel(ctx, challengeID, levelNumber)
	if err != nil {
		return nil, err
	}
	maxLevel := 0
	for _, l := range challenge.Levels {
		if l.LevelNumber > maxLevel {
			maxLevel = l.LevelNumber
		}
	}

	var result *dto.CompleteLevelResult
	for attempt := 0; ; attempt++ {
		result, err = s.completeOnce(ctx, userID, challenge, level, maxLevel, req)
		if err == nil {
			break
		}
		if !isRetryable(err) || attempt >= maxCompletionRetries {
			if isRetryable(err) {
				log.Printf("[Internal Error]: completion for user %s kept conflicting: %v", userID, err)
				return nil, apperror.ErrConflict
			}
			return nil, err
		}
		time.Sleep(time.Duration(10*(1<<attempt)) * time.Millisecond)
	}

	// notifications were committed with the transaction; the realtime
	// push happens only after commit
	for _, unlock := range result.AchievementsUnlocked {
		s.notifier.Publish(ctx, unlock.Notification)
	}
	return result, nil
}

func (s *progressService) completeOnce(ctx context.Context, userID uuid.UUID, challenge *model.Challenge, level *model.ChallengeLevel, maxLevel int, req dto.CompleteLevelRequest) (*dto.CompleteLevelResult, error) {
	var result dto.CompleteLevelResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		statsRepo := s.statsRepo.WithTx(tx)

		if err := statsRepo.EnsureStats(ctx, userID); err != nil {
			return err
		}
		if _, err := statsRepo.GetStatsForUpdate(ctx, userID); err != nil {
			return err
		}

		attemptNumber, err := repo.NextAttemptNumber(ctx, userID, challenge.ID, level.LevelNumber)
		if err != nil {
			return err
		}
		if err := repo.CreateAttempt(ctx, &model.LevelAttempt{
			UserID:           userID,
			ChallengeID:      challenge.ID,
			LevelNumber:      level.LevelNumber,
			AttemptNumber:    attemptNumber,
			DesignSnapshot:   req.DesignSnapshot,
			TestResults:      req.TestResults,
			Score:            req.Score,
			Passed:           true,
			XPEarned:         level.XPReward,
			HintsUsed:        req.HintsUsed,
			TimeSpentMinutes: req.TimeSpentMinutes,
		}); err != nil {
			return err
		}

		rollup, err := s.applyRollup(ctx, repo, statsRepo, userID, challenge.ID, level, maxLevel, req)
		if err != nil {
			return err
		}

		award, err := s.xpService.WithTx(tx).AwardXP(ctx, userID, level.XPReward,
			model.SourceChallengeLevel, challenge.Slug,
			fmt.Sprintf("%s, level %d completed", challenge.Title, level.LevelNumber))
		if err != nil {
			return err
		}

		streakInfo, err := s.streak.WithTx(tx).Touch(ctx, userID, time.Now())
		if err != nil {
			return err
		}

		unlocks, err := s.achievement.WithTx(tx).Evaluate(ctx, userID)
		if err != nil {
			return err
		}

		result = dto.CompleteLevelResult{
			XPEarned:             level.XPReward,
			TotalXP:              award.NewTotalXP,
			LevelUp:              award.LeveledUp,
			NewLevel:             award.NewLevel,
			AttemptNumber:        attemptNumber,
			ChallengeCompleted:   rollup.completed,
			Streak:               streakInfo,
			AchievementsUnlocked: unlocks,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type rollupOutcome struct {
	completed bool
}

func (s *progressService) applyRollup(ctx context.Context, repo repository.Repository, statsRepo xprepo.Repository, userID, challengeID uuid.UUID, level *model.ChallengeLevel, maxLevel int, req dto.CompleteLevelRequest) (*rollupOutcome, error) {
	progress, err := repo.GetProgress(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	started := 0
	if progress == nil {
		started = 1
		progress = &model.ChallengeProgress{
			UserID:      userID,
			ChallengeID: challengeID,
			Status:      model.StatusInProgress,
			StartDate:   &now,
		}
		if err := repo.CreateProgress(ctx, progress); err != nil {
			return nil, err
		}
	}

	firstTime := !containsLevel(progress.LevelsCompleted, level.LevelNumber)
	if firstTime {
		progress.LevelsCompleted = appendSorted(progress.LevelsCompleted, level.LevelNumber)
	}
	if level.LevelNumber > progress.CurrentLevel {
		progress.CurrentLevel = level.LevelNumber
	}
	progress.TotalAttempts++
	progress.TotalTimeSpentMinutes += req.TimeSpentMinutes
	if progress.BestScore == nil || req.Score > *progress.BestScore {
		score := req.Score
		progress.BestScore = &score
	}
	progress.XPEarned += level.XPReward

	completedNow := false
	if level.LevelNumber == maxLevel && progress.Status != model.StatusCompleted {
		progress.Status = model.StatusCompleted
		progress.CompletionDate = &now
		completedNow = true
	}

	if err := repo.UpdateProgress(ctx, progress); err != nil {
		return nil, err
	}

	completedDelta := 0
	if completedNow {
		completedDelta = 1
	}
	levelsDelta := 0
	if firstTime {
		levelsDelta = 1
	}
	if err := statsRepo.IncrementActivityCounters(ctx, userID, started, completedDelta, levelsDelta, req.TimeSpentMinutes); err != nil {
		return nil, err
	}

	return &rollupOutcome{completed: progress.Status == model.StatusCompleted}, nil
}

func (s *progressService) GetUserProgress(ctx context.Context, userID uuid.UUID) (*dto.UserProgressView, error) {
	stats, err := s.statsRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	levelStatus := xpservice.BuildLevelStatus(stats.TotalXP, stats.CurrentLevel)

	rows, err := s.repo.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ChallengeID)
	}
	challenges, err := s.catalogRepo.ListChallengesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	labels := make(map[uuid.UUID]model.Challenge, len(challenges))
	for _, c := range challenges {
		labels[c.ID] = c
	}

	challengeViews := make([]dto.ChallengeProgressView, 0, len(rows))
	for _, row := range rows {
		view := dto.ChallengeProgressView{
			ChallengeID:           row.ChallengeID.String(),
			Status:                row.Status,
			CurrentLevel:          row.CurrentLevel,
			LevelsCompleted:       row.LevelsCompleted,
			TotalAttempts:         row.TotalAttempts,
			TotalTimeSpentMinutes: row.TotalTimeSpentMinutes,
			BestScore:             row.BestScore,
			XPEarned:              row.XPEarned,
			StartDate:             row.StartDate,
			CompletionDate:        row.CompletionDate,
		}
		if c, ok := labels[row.ChallengeID]; ok {
			view.ChallengeSlug = c.Slug
			view.ChallengeTitle = c.Title
		}
		challengeViews = append(challengeViews, view)
	}

	achievementViews, err := s.buildAchievementViews(ctx, userID)
	if err != nil {
		return nil, err
	}

	skills, pointsLeft, err := s.skill.ListSkills(ctx, userID)
	if err != nil {
		return nil, err
	}

	streakInfo, err := s.streak.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.UserProgressView{
		UserID:     userID.String(),
		Level:      levelStatus,
		Stats: dto.StatsView{
			TotalChallengesStarted:   stats.TotalChallengesStarted,
			TotalChallengesCompleted: stats.TotalChallengesCompleted,
			TotalLevelsCompleted:     stats.TotalLevelsCompleted,
			TotalTimeSpentMinutes:    stats.TotalTimeSpentMinutes,
			RankPercentile:           stats.RankPercentile,
		},
		Challenges:      challengeViews,
		Achievements:    achievementViews,
		Skills:          skills,
		SkillPointsLeft: pointsLeft,
		Streak:          streakInfo,
	}, nil
}

func (s *progressService) buildAchievementViews(ctx context.Context, userID uuid.UUID) ([]dto.AchievementView, error) {
	catalog, err := s.achievement.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.achievement.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlockedAt := make(map[uuid.UUID]time.Time, len(unlocked))
	for _, ua := range unlocked {
		unlockedAt[ua.AchievementID] = ua.UnlockedAt
	}

	views := make([]dto.AchievementView, 0, len(catalog))
	for _, a := range catalog {
		view := dto.AchievementView{
			Slug:        a.Slug,
			Name:        a.Name,
			Description: a.Description,
			Rarity:      a.Rarity,
			XPReward:    a.XPReward,
		}
		if t, ok := unlockedAt[a.ID]; ok {
			ts := t
			view.UnlockedAt = &ts
		}
		views = append(views, view)
	}
	return views, nil
}

func containsLevel(levels []int, level int) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

func appendSorted(levels []int, level int) []int {
	out := append([]int{}, levels...)
	pos := len(out)
	for i, l := range out {
		if level < l {
			pos = i
			break
		}
	}
	out = append(out, 0)
	copy(out[pos+1:], out[pos:])
	out[pos] = level
	return out
}
