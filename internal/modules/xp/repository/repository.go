package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository owns the xp_transactions ledger and the user_stats aggregate.
// The streak tracker and progress tracker write their user_stats field
// groups through this repository so every mutation goes through one place.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	EnsureStats(ctx context.Context, userID uuid.UUID) error
	GetStats(ctx context.Context, userID uuid.UUID) (*model.UserStats, error)
	GetStatsForUpdate(ctx context.Context, userID uuid.UUID) (*model.UserStats, error)

	CreateTransaction(ctx context.Context, txn *model.XPTransaction) error
	ApplyXP(ctx context.Context, userID uuid.UUID, amount int64, newLevel int) error
	SumTransactions(ctx context.Context, userID uuid.UUID) (int64, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]model.XPTransaction, error)

	IncrementActivityCounters(ctx context.Context, userID uuid.UUID, started, completed, levels, minutes int) error
	UpdateStreak(ctx context.Context, userID uuid.UUID, current, longest int, lastActivity time.Time) error
}

type xpRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &xpRepository{db: db}
}

func (r *xpRepository) WithTx(tx *gorm.DB) Repository {
	return &xpRepository{db: tx}
}

// EnsureStats lazily creates the per-user aggregate with zero defaults.
func (r *xpRepository) EnsureStats(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&model.UserStats{UserID: userID, CurrentLevel: 1}).Error
}

func (r *xpRepository) GetStats(ctx context.Context, userID uuid.UUID) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Zero stats for users who never earned XP
			return &model.UserStats{UserID: userID, CurrentLevel: 1}, nil
		}
		return nil, err
	}
	return &stats, nil
}

// GetStatsForUpdate reads the aggregate under a row lock so concurrent
// transactions for the same user serialize. Call EnsureStats first so the
// row exists. sqlite has no FOR UPDATE; its single-writer engine already
// serializes the test path.
func (r *xpRepository) GetStatsForUpdate(ctx context.Context, userID uuid.UUID) (*model.UserStats, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var stats model.UserStats
	if err := q.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *xpRepository) CreateTransaction(ctx context.Context, txn *model.XPTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// ApplyXP moves the cached total and the derived level in one statement,
// in the same transaction as the ledger insert.
func (r *xpRepository) ApplyXP(ctx context.Context, userID uuid.UUID, amount int64, newLevel int) error {
	return r.db.WithContext(ctx).Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_xp":      gorm.Expr("total_xp + ?", amount),
			"current_level": newLevel,
		}).Error
}

func (r *xpRepository) SumTransactions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&model.XPTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum, err
}

func (r *xpRepository) History(ctx context.Context, userID uuid.UUID, limit int) ([]model.XPTransaction, error) {
	var txns []model.XPTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

func (r *xpRepository) IncrementActivityCounters(ctx context.Context, userID uuid.UUID, started, completed, levels, minutes int) error {
	return r.db.WithContext(ctx).Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_challenges_started":    gorm.Expr("total_challenges_started + ?", started),
			"total_challenges_completed":  gorm.Expr("total_challenges_completed + ?", completed),
			"total_levels_completed":      gorm.Expr("total_levels_completed + ?", levels),
			"total_time_spent_minutes":    gorm.Expr("total_time_spent_minutes + ?", minutes),
		}).Error
}

func (r *xpRepository) UpdateStreak(ctx context.Context, userID uuid.UUID, current, longest int, lastActivity time.Time) error {
	return r.db.WithContext(ctx).Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"current_streak_days": current,
			"longest_streak_days": longest,
			"last_activity_date":  lastActivity,
		}).Error
}
