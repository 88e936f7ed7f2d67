package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/idlecampus/progress-engine/internal/modules/xp/repository"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"gorm.io/gorm"
)

// AwardResult reports what an award did to the user's level.
type AwardResult struct {
	Amount     int64 `json:"amount"`
	NewTotalXP int64 `json:"new_total_xp"`
	NewLevel   int   `json:"new_level"`
	LeveledUp  bool  `json:"leveled_up"`
}

type Service interface {
	WithTx(tx *gorm.DB) Service
	AwardXP(ctx context.Context, userID uuid.UUID, amount int64, sourceType, sourceID, description string) (*AwardResult, error)
	GetUserLevel(ctx context.Context, userID uuid.UUID) (*LevelStatus, error)
	GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.XPTransaction, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (int64, error)
}

type xpService struct {
	db   *gorm.DB
	repo repository.Repository
}

func NewService(db *gorm.DB, repo repository.Repository) Service {
	return &xpService{db: db, repo: repo}
}

func (s *xpService) WithTx(tx *gorm.DB) Service {
	return &xpService{db: tx, repo: s.repo.WithTx(tx)}
}

// AwardXP appends a ledger row and moves the cached aggregate in one
// transaction. Inside an outer transaction gorm turns this into a
// savepoint, so a failed award never leaves a half-applied state.
func (s *xpService) AwardXP(ctx context.Context, userID uuid.UUID, amount int64, sourceType, sourceID, description string) (*AwardResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidInput
	}

	var result AwardResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.EnsureStats(ctx, userID); err != nil {
			return err
		}
		stats, err := repo.GetStatsForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		txn := &model.XPTransaction{
			UserID:      userID,
			Amount:      amount,
			SourceType:  sourceType,
			SourceID:    sourceID,
			Description: description,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		newTotal := stats.TotalXP + amount
		newLevel := LevelFromXP(newTotal)
		if err := repo.ApplyXP(ctx, userID, amount, newLevel); err != nil {
			return err
		}

		result = AwardResult{
			Amount:     amount,
			NewTotalXP: newTotal,
			NewLevel:   newLevel,
			LeveledUp:  newLevel > stats.CurrentLevel,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *xpService) GetUserLevel(ctx context.Context, userID uuid.UUID) (*LevelStatus, error) {
	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := BuildLevelStatus(stats.TotalXP, stats.CurrentLevel)
	return &status, nil
}

func (s *xpService) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.XPTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.History(ctx, userID, limit)
}

// Reconcile recomputes the ledger sum and repairs the cached aggregate if
// it drifted. Returns the drift (cached - ledger), zero when consistent.
func (s *xpService) Reconcile(ctx context.Context, userID uuid.UUID) (int64, error) {
	var drift int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.EnsureStats(ctx, userID); err != nil {
			return err
		}
		stats, err := repo.GetStatsForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		sum, err := repo.SumTransactions(ctx, userID)
		if err != nil {
			return err
		}

		drift = stats.TotalXP - sum
		if drift == 0 {
			return nil
		}
		return repo.ApplyXP(ctx, userID, -drift, LevelFromXP(sum))
	})
	return drift, err
}
