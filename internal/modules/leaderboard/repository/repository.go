package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/modules/leaderboard/dto"
	"gorm.io/gorm"
)

// rankOrder is the canonical ordering: XP first, earlier activity wins
// ties, user id as the final deterministic tiebreaker.
const rankOrder = "us.total_xp DESC, us.updated_at ASC, us.user_id ASC"

type Repository interface {
	GetLeaderboard(ctx context.Context, cutoff *time.Time, exact bool, limit int) ([]dto.LeaderboardEntry, error)
	GetUserRank(ctx context.Context, userID uuid.UUID, cutoff *time.Time, exact bool) (*dto.UserRankResponse, error)
	RefreshRankPercentiles(ctx context.Context) error
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &leaderboardRepository{db: db}
}

// GetLeaderboard ranks users by the canonical order. cutoff filters on
// last_activity_date: nil means all time, exact means the single day.
func (r *leaderboardRepository) GetLeaderboard(ctx context.Context, cutoff *time.Time, exact bool, limit int) ([]dto.LeaderboardEntry, error) {
	query := `
		SELECT
			ROW_NUMBER() OVER (ORDER BY ` + rankOrder + `) AS rank,
			us.user_id,
			u.username,
			u.display_name,
			u.avatar_url,
			us.total_xp,
			us.current_level,
			us.total_challenges_completed,
			us.current_streak_days
		FROM user_stats us
		JOIN users u ON u.id = us.user_id`

	args := []interface{}{}
	if cutoff != nil {
		if exact {
			query += " WHERE us.last_activity_date = ?"
		} else {
			query += " WHERE us.last_activity_date >= ?"
		}
		args = append(args, *cutoff)
	}
	query += " ORDER BY " + rankOrder + " LIMIT ?"
	args = append(args, limit)

	var entries []dto.LeaderboardEntry
	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&entries).Error
	return entries, err
}

// GetUserRank ranks the same population GetLeaderboard shows: cutoff
// filters the ranked CTE on last_activity_date before ranking.
func (r *leaderboardRepository) GetUserRank(ctx context.Context, userID uuid.UUID, cutoff *time.Time, exact bool) (*dto.UserRankResponse, error) {
	activityFilter := ""
	args := []interface{}{}
	if cutoff != nil {
		if exact {
			activityFilter = " WHERE us.last_activity_date = ?"
		} else {
			activityFilter = " WHERE us.last_activity_date >= ?"
		}
		args = append(args, *cutoff)
	}

	query := `
		WITH ranked AS (
			SELECT
				us.user_id,
				us.total_xp,
				us.current_level,
				ROW_NUMBER() OVER (ORDER BY ` + rankOrder + `) AS rank
			FROM user_stats us` + activityFilter + `
		)
		SELECT
			r.rank,
			r.total_xp,
			r.current_level,
			(SELECT COUNT(*) FROM ranked) AS total_users
		FROM ranked r
		WHERE r.user_id = ?`
	args = append(args, userID)

	var row dto.UserRankResponse
	result := r.db.WithContext(ctx).Raw(query, args...).Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// outside the ranked population; still report its size
		countQuery := "SELECT COUNT(*) FROM user_stats us" + activityFilter
		var total int64
		if err := r.db.WithContext(ctx).Raw(countQuery, args[:len(args)-1]...).Scan(&total).Error; err != nil {
			return nil, err
		}
		return &dto.UserRankResponse{TotalUsers: total, CurrentLevel: 1}, nil
	}
	return &row, nil
}

// RefreshRankPercentiles recomputes the advisory percentile column for
// every user in one statement. Ranks by XP alone; ties share a rank.
func (r *leaderboardRepository) RefreshRankPercentiles(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE user_stats
		SET rank_percentile = 100.0 * (
			(SELECT COUNT(*) FROM user_stats) - (
				(SELECT COUNT(*) FROM user_stats s2 WHERE s2.total_xp > user_stats.total_xp) + 1
			)
		) / (SELECT COUNT(*) FROM user_stats)`).Error
}
