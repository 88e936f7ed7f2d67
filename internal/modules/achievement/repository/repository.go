package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// ListCandidates returns active achievements the user has not
	// unlocked yet.
	ListCandidates(ctx context.Context, userID uuid.UUID) ([]model.Achievement, error)

	// InsertUnlock records an unlock. Returns false when another
	// transaction already inserted the same (user, achievement) pair.
	InsertUnlock(ctx context.Context, unlock *model.UserAchievement) (bool, error)

	ListActive(ctx context.Context) ([]model.Achievement, error)
	ListUnlocked(ctx context.Context, userID uuid.UUID) ([]model.UserAchievement, error)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) WithTx(tx *gorm.DB) Repository {
	return &achievementRepository{db: tx}
}

func (r *achievementRepository) ListCandidates(ctx context.Context, userID uuid.UUID) ([]model.Achievement, error) {
	unlocked := r.db.Model(&model.UserAchievement{}).
		Select("achievement_id").
		Where("user_id = ?", userID)

	var achievements []model.Achievement
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("id NOT IN (?)", unlocked).
		Find(&achievements).Error
	return achievements, err
}

func (r *achievementRepository) InsertUnlock(ctx context.Context, unlock *model.UserAchievement) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(unlock)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *achievementRepository) ListActive(ctx context.Context) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("xp_reward asc, slug asc").
		Find(&achievements).Error
	return achievements, err
}

func (r *achievementRepository) ListUnlocked(ctx context.Context, userID uuid.UUID) ([]model.UserAchievement, error) {
	var unlocks []model.UserAchievement
	err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at desc").
		Find(&unlocks).Error
	return unlocks, err
}
