package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetSkill(ctx context.Context, skillID uuid.UUID) (*model.Skill, error)
	SumPointsAllocated(ctx context.Context, userID uuid.UUID) (int, error)
	GetUserSkill(ctx context.Context, userID, skillID uuid.UUID) (*model.UserSkill, error)
	SaveUserSkill(ctx context.Context, us *model.UserSkill) error
	ListUserSkills(ctx context.Context, userID uuid.UUID) ([]model.UserSkill, error)
	ListSkills(ctx context.Context) ([]model.Skill, error)
}

type skillRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &skillRepository{db: db}
}

func (r *skillRepository) WithTx(tx *gorm.DB) Repository {
	return &skillRepository{db: tx}
}

func (r *skillRepository) GetSkill(ctx context.Context, skillID uuid.UUID) (*model.Skill, error) {
	var skill model.Skill
	err := r.db.WithContext(ctx).Where("id = ?", skillID).First(&skill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrSkillNotFound
		}
		return nil, err
	}
	return &skill, nil
}

func (r *skillRepository) SumPointsAllocated(ctx context.Context, userID uuid.UUID) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).Model(&model.UserSkill{}).
		Select("COALESCE(SUM(points_allocated), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum, err
}

func (r *skillRepository) GetUserSkill(ctx context.Context, userID, skillID uuid.UUID) (*model.UserSkill, error) {
	var us model.UserSkill
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		First(&us).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &us, nil
}

func (r *skillRepository) SaveUserSkill(ctx context.Context, us *model.UserSkill) error {
	return r.db.WithContext(ctx).Save(us).Error
}

func (r *skillRepository) ListUserSkills(ctx context.Context, userID uuid.UUID) ([]model.UserSkill, error) {
	var skills []model.UserSkill
	err := r.db.WithContext(ctx).
		Preload("Skill").
		Where("user_id = ?", userID).
		Find(&skills).Error
	return skills, err
}

func (r *skillRepository) ListSkills(ctx context.Context) ([]model.Skill, error) {
	var skills []model.Skill
	err := r.db.WithContext(ctx).Order("category asc, name asc").Find(&skills).Error
	return skills, err
}
