package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	ListChallenges(ctx context.Context, category, trackID string) ([]model.Challenge, error)
	GetChallenge(ctx context.Context, idOrSlug string) (*model.Challenge, error)
	GetChallengeByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	GetLevel(ctx context.Context, challengeID uuid.UUID, levelNumber int) (*model.ChallengeLevel, error)
	ListChallengesByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Challenge, error)

	GetDailyChallenge(ctx context.Context, date time.Time) (*model.DailyChallenge, error)
	CreateDailyChallenge(ctx context.Context, dc *model.DailyChallenge) error
	RandomActiveChallenge(ctx context.Context) (*model.Challenge, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListChallenges(ctx context.Context, category, trackID string) ([]model.Challenge, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if trackID != "" {
		q = q.Where("track_id = ?", trackID)
	}

	var challenges []model.Challenge
	err := q.Order("track_id asc, order_in_track asc, slug asc").Find(&challenges).Error
	return challenges, err
}

// GetChallenge accepts either the challenge UUID or its slug.
func (r *catalogRepository) GetChallenge(ctx context.Context, idOrSlug string) (*model.Challenge, error) {
	q := r.db.WithContext(ctx).Preload("Levels", func(db *gorm.DB) *gorm.DB {
		return db.Order("level_number asc")
	})

	if id, err := uuid.Parse(idOrSlug); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("slug = ?", idOrSlug)
	}

	var challenge model.Challenge
	if err := q.First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrChallengeNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

func (r *catalogRepository) GetChallengeByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	return r.GetChallenge(ctx, id.String())
}

func (r *catalogRepository) GetLevel(ctx context.Context, challengeID uuid.UUID, levelNumber int) (*model.ChallengeLevel, error) {
	var level model.ChallengeLevel
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND level_number = ?", challengeID, levelNumber).
		First(&level).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrLevelNotFound
		}
		return nil, err
	}
	return &level, nil
}

func (r *catalogRepository) ListChallengesByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Challenge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var challenges []model.Challenge
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&challenges).Error
	return challenges, err
}

func (r *catalogRepository) GetDailyChallenge(ctx context.Context, date time.Time) (*model.DailyChallenge, error) {
	var dc model.DailyChallenge
	err := r.db.WithContext(ctx).
		Preload("Challenge").
		Where("date = ?", date).
		First(&dc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dc, nil
}

// CreateDailyChallenge tolerates a concurrent create for the same date.
func (r *catalogRepository) CreateDailyChallenge(ctx context.Context, dc *model.DailyChallenge) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoNothing: true,
		}).
		Create(dc).Error
}

func (r *catalogRepository) RandomActiveChallenge(ctx context.Context) (*model.Challenge, error) {
	var challenge model.Challenge
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("RANDOM()").
		First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &challenge, nil
}
