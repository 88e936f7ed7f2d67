package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the fire-and-forget record handed to downstream delivery
// when an achievement unlocks.
type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	EntityID   string    `gorm:"size:100" json:"entity_id"`             // e.g. achievement slug
	EntityType string    `gorm:"size:50;not null" json:"entity_type"`   // 'achievement'
	Type       string    `gorm:"size:50;not null" json:"type"`          // 'achievement_unlocked'
	Title      string    `gorm:"size:255" json:"title"`
	Message    string    `gorm:"type:text" json:"message"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
