package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/idlecampus/progress-engine/internal/modules/skill/repository"
	xprepo "github.com/idlecampus/progress-engine/internal/modules/xp/repository"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"gorm.io/gorm"
)

// AllocationResult reports the skill state after spending a point.
type AllocationResult struct {
	SkillID         uuid.UUID  `json:"skill_id"`
	SkillName       string     `json:"skill_name"`
	CurrentLevel    int        `json:"current_level"`
	PointsAllocated int        `json:"points_allocated"`
	PointsRemaining int        `json:"points_remaining"`
	MasteredAt      *time.Time `json:"mastered_at,omitempty"`
}

// SkillView merges the catalog row with the user's allocation, zero for
// skills never invested in.
type SkillView struct {
	Skill           model.Skill `json:"skill"`
	CurrentLevel    int         `json:"current_level"`
	PointsAllocated int         `json:"points_allocated"`
	UnlockedAt      *time.Time  `json:"unlocked_at,omitempty"`
	MasteredAt      *time.Time  `json:"mastered_at,omitempty"`
}

type Service interface {
	AllocatePoint(ctx context.Context, userID, skillID uuid.UUID) (*AllocationResult, error)
	ListSkills(ctx context.Context, userID uuid.UUID) ([]SkillView, int, error)
}

type skillService struct {
	db        *gorm.DB
	repo      repository.Repository
	statsRepo xprepo.Repository
}

func NewService(db *gorm.DB, repo repository.Repository, statsRepo xprepo.Repository) Service {
	return &skillService{db: db, repo: repo, statsRepo: statsRepo}
}

// AllocatePoint spends one earned point on a skill. The user earns one
// point per character level; the stats row lock serializes concurrent
// allocations so the budget check holds.
func (s *skillService) AllocatePoint(ctx context.Context, userID, skillID uuid.UUID) (*AllocationResult, error) {
	var result AllocationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		statsRepo := s.statsRepo.WithTx(tx)

		skill, err := repo.GetSkill(ctx, skillID)
		if err != nil {
			return err
		}

		if err := statsRepo.EnsureStats(ctx, userID); err != nil {
			return err
		}
		stats, err := statsRepo.GetStatsForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		allocated, err := repo.SumPointsAllocated(ctx, userID)
		if err != nil {
			return err
		}
		available := stats.CurrentLevel - allocated
		if available <= 0 {
			return apperror.ErrNoPointsAvailable
		}

		us, err := repo.GetUserSkill(ctx, userID, skillID)
		if err != nil {
			return err
		}
		now := time.Now()
		if us == nil {
			us = &model.UserSkill{
				UserID:     userID,
				SkillID:    skillID,
				UnlockedAt: &now,
			}
		}

		us.PointsAllocated++
		if us.CurrentLevel < skill.MaxLevel {
			us.CurrentLevel++
		}
		if us.CurrentLevel >= skill.MaxLevel && us.MasteredAt == nil {
			us.MasteredAt = &now
		}

		if err := repo.SaveUserSkill(ctx, us); err != nil {
			return err
		}

		result = AllocationResult{
			SkillID:         skillID,
			SkillName:       skill.Name,
			CurrentLevel:    us.CurrentLevel,
			PointsAllocated: us.PointsAllocated,
			PointsRemaining: available - 1,
			MasteredAt:      us.MasteredAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *skillService) ListSkills(ctx context.Context, userID uuid.UUID) ([]SkillView, int, error) {
	skills, err := s.repo.ListSkills(ctx)
	if err != nil {
		return nil, 0, err
	}
	userSkills, err := s.repo.ListUserSkills(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	stats, err := s.statsRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	byID := make(map[uuid.UUID]model.UserSkill, len(userSkills))
	allocated := 0
	for _, us := range userSkills {
		byID[us.SkillID] = us
		allocated += us.PointsAllocated
	}

	views := make([]SkillView, 0, len(skills))
	for _, skill := range skills {
		view := SkillView{Skill: skill}
		if us, ok := byID[skill.ID]; ok {
			view.CurrentLevel = us.CurrentLevel
			view.PointsAllocated = us.PointsAllocated
			view.UnlockedAt = us.UnlockedAt
			view.MasteredAt = us.MasteredAt
		}
		views = append(views, view)
	}

	available := stats.CurrentLevel - allocated
	if available < 0 {
		available = 0
	}
	return views, available, nil
}
