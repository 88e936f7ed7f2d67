package model

import (
	"time"

	"github.com/google/uuid"
)

// User is reference data mirrored from the identity service. This engine
// never creates or mutates users; it only joins them for display fields.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username    string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	DisplayName *string   `gorm:"size:150" json:"display_name,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
