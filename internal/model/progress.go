package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Challenge progress status values. The state machine is forward-only:
// not_started -> in_progress -> completed.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// XP transaction source types.
const (
	SourceChallengeLevel = "challenge_level"
	SourceAchievement    = "achievement"
	SourceOther          = "other"
)

// UserStats is the per-user aggregate. TotalXP is a materialized view over
// xp_transactions and must equal SUM(amount) after every commit; the
// reconciliation job repairs any drift.
type UserStats struct {
	UserID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	User                     User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TotalXP                  int64      `gorm:"default:0" json:"total_xp"`
	CurrentLevel             int        `gorm:"default:1" json:"current_level"`
	TotalChallengesStarted   int        `gorm:"default:0" json:"total_challenges_started"`
	TotalChallengesCompleted int        `gorm:"default:0" json:"total_challenges_completed"`
	TotalLevelsCompleted     int        `gorm:"default:0" json:"total_levels_completed"`
	TotalTimeSpentMinutes    int        `gorm:"default:0" json:"total_time_spent_minutes"`
	CurrentStreakDays        int        `gorm:"default:0" json:"current_streak_days"`
	LongestStreakDays        int        `gorm:"default:0" json:"longest_streak_days"`
	LastActivityDate         *time.Time `gorm:"type:date" json:"last_activity_date,omitempty"`
	RankPercentile           *float64   `json:"rank_percentile,omitempty"` // advisory, refreshed by a background job
	CreatedAt                time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ChallengeProgress is the per-user-per-challenge rollup.
// Invariant: CompletionDate is set iff Status == completed.
type ChallengeProgress struct {
	UserID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	ChallengeID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"challenge_id"`
	Status                string     `gorm:"size:20;default:not_started" json:"status"`
	CurrentLevel          int        `gorm:"default:0" json:"current_level"`
	LevelsCompleted       []int      `gorm:"serializer:json" json:"levels_completed"`
	TotalAttempts         int        `gorm:"default:0" json:"total_attempts"`
	TotalTimeSpentMinutes int        `gorm:"default:0" json:"total_time_spent_minutes"`
	BestScore             *float64   `json:"best_score,omitempty"`
	XPEarned              int64      `gorm:"default:0" json:"xp_earned"`
	StartDate             *time.Time `json:"start_date,omitempty"`
	CompletionDate        *time.Time `json:"completion_date,omitempty"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// LevelAttempt is an immutable record of one submission. AttemptNumber is
// strictly increasing per (user, challenge, level); the unique index turns
// a concurrent duplicate into a constraint violation the orchestrator
// retries.
type LevelAttempt struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	UserID           uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_attempt,priority:1;not null" json:"user_id"`
	ChallengeID      uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_attempt,priority:2;not null" json:"challenge_id"`
	LevelNumber      int               `gorm:"uniqueIndex:idx_attempt,priority:3;not null" json:"level_number"`
	AttemptNumber    int               `gorm:"uniqueIndex:idx_attempt,priority:4;not null" json:"attempt_number"`
	DesignSnapshot   datatypes.JSONMap `json:"design_snapshot,omitempty"`
	TestResults      datatypes.JSONMap `json:"test_results,omitempty"`
	Score            float64           `json:"score"`
	Passed           bool              `json:"passed"`
	XPEarned         int64             `json:"xp_earned"`
	HintsUsed        int               `json:"hints_used"`
	TimeSpentMinutes int               `json:"time_spent_minutes"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// XPTransaction is the append-only ledger, the source of truth for TotalXP.
type XPTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index:idx_xp_user;not null" json:"user_id"`
	Amount      int64     `gorm:"not null" json:"amount"` // always > 0; negative amounts are not modeled
	SourceType  string    `gorm:"size:30;not null" json:"source_type"`
	SourceID    string    `gorm:"size:100" json:"source_id"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_xp_created" json:"created_at"`
}

// UserAchievement records a permanent unlock. The composite primary key is
// the uniqueness guard that makes concurrent evaluation idempotent.
type UserAchievement struct {
	UserID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"user_id"`
	AchievementID uuid.UUID   `gorm:"type:uuid;primaryKey" json:"achievement_id"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement"`
	UnlockedAt    time.Time   `gorm:"autoCreateTime" json:"unlocked_at"`
	Progress      int         `gorm:"default:100" json:"progress"`
}

// UserSkill tracks discretionary point allocation.
// Invariant: SUM(points_allocated) over a user's skills never exceeds the
// user's character level (1 point earned per level).
type UserSkill struct {
	UserID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	SkillID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"skill_id"`
	Skill           Skill      `gorm:"foreignKey:SkillID" json:"skill"`
	CurrentLevel    int        `gorm:"default:0" json:"current_level"`
	PointsAllocated int        `gorm:"default:0" json:"points_allocated"`
	UnlockedAt      *time.Time `json:"unlocked_at,omitempty"`
	MasteredAt      *time.Time `json:"mastered_at,omitempty"` // set when CurrentLevel reaches the skill's MaxLevel
}
