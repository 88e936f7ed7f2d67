package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	xprepo "github.com/idlecampus/progress-engine/internal/modules/xp/repository"
	"gorm.io/gorm"
)

// StreakInfo is the read view of a user's daily streak.
type StreakInfo struct {
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
	IsActiveToday    bool       `json:"is_active_today"`
}

type Service interface {
	WithTx(tx *gorm.DB) Service
	Touch(ctx context.Context, userID uuid.UUID, now time.Time) (*StreakInfo, error)
	GetStreak(ctx context.Context, userID uuid.UUID) (*StreakInfo, error)
}

type streakService struct {
	db        *gorm.DB
	statsRepo xprepo.Repository
}

func NewService(db *gorm.DB, statsRepo xprepo.Repository) Service {
	return &streakService{db: db, statsRepo: statsRepo}
}

func (s *streakService) WithTx(tx *gorm.DB) Service {
	return &streakService{db: tx, statsRepo: s.statsRepo.WithTx(tx)}
}

// Touch advances the streak for an activity happening at now. Calendar
// days, not 24h windows: a second touch on the same day is a no-op, the
// day after extends, anything later resets to 1.
func (s *streakService) Touch(ctx context.Context, userID uuid.UUID, now time.Time) (*StreakInfo, error) {
	today := truncateToDay(now)

	var info StreakInfo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.statsRepo.WithTx(tx)

		if err := repo.EnsureStats(ctx, userID); err != nil {
			return err
		}
		stats, err := repo.GetStatsForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		current := stats.CurrentStreakDays
		switch {
		case stats.LastActivityDate == nil:
			current = 1
		case sameDay(*stats.LastActivityDate, today):
			// already counted today
		case sameDay(*stats.LastActivityDate, today.AddDate(0, 0, -1)):
			current++
		default:
			current = 1
		}

		longest := stats.LongestStreakDays
		if current > longest {
			longest = current
		}

		if err := repo.UpdateStreak(ctx, userID, current, longest, today); err != nil {
			return err
		}

		info = StreakInfo{
			CurrentStreak:    current,
			LongestStreak:    longest,
			LastActivityDate: &today,
			IsActiveToday:    true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *streakService) GetStreak(ctx context.Context, userID uuid.UUID) (*StreakInfo, error) {
	stats, err := s.statsRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	info := &StreakInfo{
		CurrentStreak:    stats.CurrentStreakDays,
		LongestStreak:    stats.LongestStreakDays,
		LastActivityDate: stats.LastActivityDate,
	}
	if stats.LastActivityDate != nil {
		info.IsActiveToday = sameDay(*stats.LastActivityDate, truncateToDay(time.Now()))
	}
	return info, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
