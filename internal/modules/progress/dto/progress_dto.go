package dto

import (
	"time"

	achievementservice "github.com/idlecampus/progress-engine/internal/modules/achievement/service"
	skillservice "github.com/idlecampus/progress-engine/internal/modules/skill/service"
	streakservice "github.com/idlecampus/progress-engine/internal/modules/streak/service"
	xpservice "github.com/idlecampus/progress-engine/internal/modules/xp/service"
)

// CompleteLevelRequest carries the performance data of a passing attempt.
type CompleteLevelRequest struct {
	Score            float64                `json:"score" binding:"gte=0,lte=100"`
	TimeSpentMinutes int                    `json:"time_spent_minutes" binding:"gte=0"`
	HintsUsed        int                    `json:"hints_used" binding:"gte=0"`
	DesignSnapshot   map[string]interface{} `json:"design_snapshot,omitempty"`
	TestResults      map[string]interface{} `json:"test_results,omitempty"`
}

// CompleteLevelResult aggregates everything a completion changed.
type CompleteLevelResult struct {
	XPEarned             int64                       `json:"xp_earned"`
	TotalXP              int64                       `json:"total_xp"`
	LevelUp              bool                        `json:"level_up"`
	NewLevel             int                         `json:"new_level"`
	AttemptNumber        int                         `json:"attempt_number"`
	ChallengeCompleted   bool                        `json:"challenge_completed"`
	Streak               *streakservice.StreakInfo   `json:"streak"`
	AchievementsUnlocked []achievementservice.Unlock `json:"achievements_unlocked"`
}

// ChallengeProgressView is one challenge's rollup enriched with catalog
// labels.
type ChallengeProgressView struct {
	ChallengeID           string     `json:"challenge_id"`
	ChallengeSlug         string     `json:"challenge_slug"`
	ChallengeTitle        string     `json:"challenge_title"`
	Status                string     `json:"status"`
	CurrentLevel          int        `json:"current_level"`
	LevelsCompleted       []int      `json:"levels_completed"`
	TotalAttempts         int        `json:"total_attempts"`
	TotalTimeSpentMinutes int        `json:"total_time_spent_minutes"`
	BestScore             *float64   `json:"best_score,omitempty"`
	XPEarned              int64      `json:"xp_earned"`
	StartDate             *time.Time `json:"start_date,omitempty"`
	CompletionDate        *time.Time `json:"completion_date,omitempty"`
}

// AchievementView pairs a catalog achievement with the user's unlock
// state, UnlockedAt nil while still locked.
type AchievementView struct {
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Rarity      string     `json:"rarity"`
	XPReward    int64      `json:"xp_reward"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// UserProgressView is the composite dashboard payload.
type UserProgressView struct {
	UserID          string                    `json:"user_id"`
	Level           xpservice.LevelStatus     `json:"level"`
	Stats           StatsView                 `json:"stats"`
	Challenges      []ChallengeProgressView   `json:"challenges"`
	Achievements    []AchievementView         `json:"achievements"`
	Skills          []skillservice.SkillView  `json:"skills"`
	SkillPointsLeft int                       `json:"skill_points_available"`
	Streak          *streakservice.StreakInfo `json:"streak"`
}

type StatsView struct {
	TotalChallengesStarted   int      `json:"total_challenges_started"`
	TotalChallengesCompleted int      `json:"total_challenges_completed"`
	TotalLevelsCompleted     int      `json:"total_levels_completed"`
	TotalTimeSpentMinutes    int      `json:"total_time_spent_minutes"`
	RankPercentile           *float64 `json:"rank_percentile,omitempty"`
}
