package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Catalog entities are authored outside this engine and treated as
// read-only reference data here.

type Challenge struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Slug             string            `gorm:"size:150;uniqueIndex;not null" json:"slug"`
	Title            string            `gorm:"size:255;not null" json:"title"`
	Description      *string           `gorm:"type:text" json:"description,omitempty"`
	Category         *string           `gorm:"size:100" json:"category,omitempty"`
	TrackID          *string           `gorm:"size:100;index" json:"track_id,omitempty"`
	OrderInTrack     int               `gorm:"default:0" json:"order_in_track"`
	DifficultyBase   string            `gorm:"size:20;default:beginner" json:"difficulty_base"` // 'beginner', 'intermediate', 'advanced'
	XPBase           int64             `gorm:"default:0" json:"xp_base"`
	EstimatedMinutes int               `gorm:"default:0" json:"estimated_minutes"`
	Prerequisites    []string          `gorm:"serializer:json" json:"prerequisites"` // challenge IDs that must be completed first
	Tags             []string          `gorm:"serializer:json" json:"tags"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty"`
	IsActive         bool              `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`

	Levels []ChallengeLevel `gorm:"foreignKey:ChallengeID" json:"levels,omitempty"`
}

type ChallengeLevel struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ChallengeID      uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_challenge_level,priority:1;not null" json:"challenge_id"`
	LevelNumber      int               `gorm:"uniqueIndex:idx_challenge_level,priority:2;not null" json:"level_number"`
	LevelName        string            `gorm:"size:255" json:"level_name"`
	Description      *string           `gorm:"type:text" json:"description,omitempty"`
	Requirements     datatypes.JSONMap `json:"requirements,omitempty"`
	PassingCriteria  datatypes.JSONMap `json:"passing_criteria,omitempty"`
	XPReward         int64             `gorm:"not null" json:"xp_reward"`
	EstimatedMinutes int               `gorm:"default:0" json:"estimated_minutes"`
}

// Achievement criteria holds named numeric thresholds, any subset of:
// challenges_completed, levels_completed, streak_days, level, total_xp.
type Achievement struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string            `gorm:"size:150;uniqueIndex;not null" json:"slug"`
	Name        string            `gorm:"size:255;not null" json:"name"`
	Description *string           `gorm:"type:text" json:"description,omitempty"`
	IconURL     *string           `json:"icon_url,omitempty"`
	Category    *string           `gorm:"size:100" json:"category,omitempty"`
	Rarity      string            `gorm:"size:20;default:common" json:"rarity"` // 'common', 'rare', 'epic', 'legendary'
	XPReward    int64             `gorm:"default:0" json:"xp_reward"`
	Criteria    datatypes.JSONMap `json:"criteria"`
	IsActive    bool              `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

type Skill struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug     string    `gorm:"size:150;uniqueIndex;not null" json:"slug"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Category *string   `gorm:"size:100" json:"category,omitempty"`
	MaxLevel int       `gorm:"default:5" json:"max_level"`
}

type DailyChallenge struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ChallengeID       uuid.UUID `gorm:"type:uuid;not null" json:"challenge_id"`
	Challenge         Challenge `gorm:"foreignKey:ChallengeID" json:"challenge"`
	Date              time.Time `gorm:"type:date;uniqueIndex;not null" json:"date"`
	XPMultiplier      float64   `gorm:"default:1.0" json:"xp_multiplier"`
	ParticipantsCount int       `gorm:"default:0" json:"participants_count"`
}
