package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// NextAttemptNumber must run under the user's stats row lock so two
	// transactions cannot pick the same number.
	NextAttemptNumber(ctx context.Context, userID, challengeID uuid.UUID, levelNumber int) (int, error)
	CreateAttempt(ctx context.Context, attempt *model.LevelAttempt) error
	ListAttempts(ctx context.Context, userID, challengeID uuid.UUID, levelNumber int) ([]model.LevelAttempt, error)

	GetProgress(ctx context.Context, userID, challengeID uuid.UUID) (*model.ChallengeProgress, error)
	CreateProgress(ctx context.Context, p *model.ChallengeProgress) error
	UpdateProgress(ctx context.Context, p *model.ChallengeProgress) error
	ListProgress(ctx context.Context, userID uuid.UUID) ([]model.ChallengeProgress, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &progressRepository{db: db}
}

func (r *progressRepository) WithTx(tx *gorm.DB) Repository {
	return &progressRepository{db: tx}
}

func (r *progressRepository) NextAttemptNumber(ctx context.Context, userID, challengeID uuid.UUID, levelNumber int) (int, error) {
	var maxAttempt int
	err := r.db.WithContext(ctx).Model(&model.LevelAttempt{}).
		Select("COALESCE(MAX(attempt_number), 0)").
		Where("user_id = ? AND challenge_id = ? AND level_number = ?", userID, challengeID, levelNumber).
		Scan(&maxAttempt).Error
	if err != nil {
		return 0, err
	}
	return maxAttempt + 1, nil
}

func (r *progressRepository) CreateAttempt(ctx context.Context, attempt *model.LevelAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *progressRepository) ListAttempts(ctx context.Context, userID, challengeID uuid.UUID, levelNumber int) ([]model.LevelAttempt, error) {
	var attempts []model.LevelAttempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND challenge_id = ? AND level_number = ?", userID, challengeID, levelNumber).
		Order("attempt_number asc").
		Find(&attempts).Error
	return attempts, err
}

func (r *progressRepository) GetProgress(ctx context.Context, userID, challengeID uuid.UUID) (*model.ChallengeProgress, error) {
	var p model.ChallengeProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *progressRepository) CreateProgress(ctx context.Context, p *model.ChallengeProgress) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *progressRepository) UpdateProgress(ctx context.Context, p *model.ChallengeProgress) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *progressRepository) ListProgress(ctx context.Context, userID uuid.UUID) ([]model.ChallengeProgress, error) {
	var rows []model.ChallengeProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&rows).Error
	return rows, err
}
