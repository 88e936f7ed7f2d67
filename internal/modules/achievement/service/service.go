package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/idlecampus/progress-engine/internal/modules/achievement/repository"
	notifrepo "github.com/idlecampus/progress-engine/internal/modules/notification/repository"
	xprepo "github.com/idlecampus/progress-engine/internal/modules/xp/repository"
	xpservice "github.com/idlecampus/progress-engine/internal/modules/xp/service"
	"gorm.io/gorm"
)

// Unlock describes one achievement granted during an evaluation pass.
type Unlock struct {
	Slug         string             `json:"slug"`
	Title        string             `json:"title"`
	XPAwarded    int64              `json:"xp_awarded"`
	Notification model.Notification `json:"-"`
}

type Service interface {
	WithTx(tx *gorm.DB) Service

	// Evaluate checks every locked active achievement against the user's
	// current stats and unlocks the ones whose criteria are met. Must run
	// inside the caller's transaction when invoked from the completion
	// flow. Safe to call repeatedly.
	Evaluate(ctx context.Context, userID uuid.UUID) ([]Unlock, error)

	ListCatalog(ctx context.Context) ([]model.Achievement, error)
	ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]model.UserAchievement, error)
}

type achievementService struct {
	repo      repository.Repository
	statsRepo xprepo.Repository
	notifRepo notifrepo.Repository
	xpService xpservice.Service
}

func NewService(repo repository.Repository, statsRepo xprepo.Repository, notifRepo notifrepo.Repository, xpService xpservice.Service) Service {
	return &achievementService{
		repo:      repo,
		statsRepo: statsRepo,
		notifRepo: notifRepo,
		xpService: xpService,
	}
}

func (s *achievementService) WithTx(tx *gorm.DB) Service {
	return &achievementService{
		repo:      s.repo.WithTx(tx),
		statsRepo: s.statsRepo.WithTx(tx),
		notifRepo: s.notifRepo.WithTx(tx),
		xpService: s.xpService.WithTx(tx),
	}
}

func (s *achievementService) Evaluate(ctx context.Context, userID uuid.UUID) ([]Unlock, error) {
	if err := s.statsRepo.EnsureStats(ctx, userID); err != nil {
		return nil, err
	}
	stats, err := s.statsRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.repo.ListCandidates(ctx, userID)
	if err != nil {
		return nil, err
	}

	var unlocks []Unlock
	for _, a := range candidates {
		if !meetsCriteria(stats, a.Criteria) {
			continue
		}

		inserted, err := s.repo.InsertUnlock(ctx, &model.UserAchievement{
			UserID:        userID,
			AchievementID: a.ID,
			Progress:      100,
		})
		if err != nil {
			return nil, err
		}
		if !inserted {
			// lost the race to a concurrent evaluation, which also
			// awarded the XP
			continue
		}

		unlock := Unlock{Slug: a.Slug, Title: a.Name}

		if a.XPReward > 0 {
			res, err := s.xpService.AwardXP(ctx, userID, a.XPReward,
				model.SourceAchievement, a.Slug, "Achievement unlocked: "+a.Name)
			if err != nil {
				return nil, err
			}
			unlock.XPAwarded = res.Amount
			// later candidates in this pass see the bonus XP
			stats.TotalXP = res.NewTotalXP
			stats.CurrentLevel = res.NewLevel
		}

		n := model.Notification{
			ID:         uuid.New(),
			UserID:     userID,
			EntityID:   a.Slug,
			EntityType: "achievement",
			Type:       "achievement_unlocked",
			Title:      "Achievement Unlocked!",
			Message:    fmt.Sprintf("You earned \"%s\" (+%d XP)", a.Name, a.XPReward),
		}
		if err := s.notifRepo.Create(ctx, &n); err != nil {
			return nil, err
		}
		unlock.Notification = n

		unlocks = append(unlocks, unlock)
	}
	return unlocks, nil
}

func (s *achievementService) ListCatalog(ctx context.Context) ([]model.Achievement, error) {
	return s.repo.ListActive(ctx)
}

func (s *achievementService) ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]model.UserAchievement, error) {
	return s.repo.ListUnlocked(ctx, userID)
}
