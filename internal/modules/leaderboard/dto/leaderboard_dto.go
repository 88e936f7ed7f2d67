package dto

import "github.com/google/uuid"

type LeaderboardEntry struct {
	Rank                     int64     `json:"rank"`
	UserID                   uuid.UUID `json:"user_id"`
	Username                 string    `json:"username"`
	DisplayName              *string   `json:"display_name,omitempty"`
	AvatarURL                *string   `json:"avatar_url,omitempty"`
	TotalXP                  int64     `json:"total_xp"`
	CurrentLevel             int       `json:"current_level"`
	TotalChallengesCompleted int       `json:"total_challenges_completed"`
	CurrentStreakDays        int       `json:"current_streak_days"`
}

type LeaderboardResponse struct {
	Period  string             `json:"period"`
	Entries []LeaderboardEntry `json:"entries"`
}

type UserRankResponse struct {
	Period       string  `json:"period" gorm:"-"`
	Rank         int64   `json:"rank"` // 0 when the user is outside the ranked population
	TotalUsers   int64   `json:"total_users"`
	TotalXP      int64   `json:"total_xp"`
	CurrentLevel int     `json:"current_level"`
	Percentile   float64 `json:"percentile"`
}
