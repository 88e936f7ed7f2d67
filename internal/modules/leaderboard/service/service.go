package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/modules/leaderboard/dto"
	"github.com/idlecampus/progress-engine/internal/modules/leaderboard/repository"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAll     = "all"

	cacheTTL = 60 * time.Second
)

type Service interface {
	GetLeaderboard(ctx context.Context, period string, limit int) (*dto.LeaderboardResponse, error)
	GetUserRank(ctx context.Context, userID uuid.UUID, period string) (*dto.UserRankResponse, error)
	RefreshRankPercentiles(ctx context.Context) error
}

type leaderboardService struct {
	repo  repository.Repository
	redis *redis.Client
}

func NewService(repo repository.Repository, redisClient *redis.Client) Service {
	return &leaderboardService{repo: repo, redis: redisClient}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, period string, limit int) (*dto.LeaderboardResponse, error) {
	if period == "" {
		period = PeriodAll
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	cutoff, exact, err := periodCutoff(period, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%d", period, limit)
	if cached := s.readCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	entries, err := s.repo.GetLeaderboard(ctx, cutoff, exact, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.LeaderboardResponse{Period: period, Entries: entries}

	s.writeCache(ctx, cacheKey, resp)
	return resp, nil
}

func (s *leaderboardService) GetUserRank(ctx context.Context, userID uuid.UUID, period string) (*dto.UserRankResponse, error) {
	if period == "" {
		period = PeriodAll
	}
	cutoff, exact, err := periodCutoff(period, time.Now())
	if err != nil {
		return nil, err
	}

	row, err := s.repo.GetUserRank(ctx, userID, cutoff, exact)
	if err != nil {
		return nil, err
	}
	row.Period = period
	if row.Rank > 0 && row.TotalUsers > 0 {
		row.Percentile = 100 * float64(row.TotalUsers-row.Rank) / float64(row.TotalUsers)
	}
	return row, nil
}

func (s *leaderboardService) RefreshRankPercentiles(ctx context.Context) error {
	return s.repo.RefreshRankPercentiles(ctx)
}

// periodCutoff maps a period name to a last_activity_date filter.
func periodCutoff(period string, now time.Time) (*time.Time, bool, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodDaily:
		return &today, true, nil
	case PeriodWeekly:
		cutoff := today.AddDate(0, 0, -7)
		return &cutoff, false, nil
	case PeriodMonthly:
		cutoff := today.AddDate(0, 0, -30)
		return &cutoff, false, nil
	case PeriodAll:
		return nil, false, nil
	default:
		return nil, false, apperror.ErrInvalidInput
	}
}

func (s *leaderboardService) readCache(ctx context.Context, key string) *dto.LeaderboardResponse {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var resp dto.LeaderboardResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *leaderboardService) writeCache(ctx context.Context, key string, resp *dto.LeaderboardResponse) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.redis.SetEx(ctx, key, payload, cacheTTL).Err(); err != nil {
		log.Printf("⚠️ Failed to cache leaderboard: %v", err)
	}
}
