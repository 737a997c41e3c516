package models

import (
	"time"
)

// Identity is an anonymous poster as known to the moderation engine.
// The ID is whatever opaque subject the campus auth bridge hands us.
type Identity struct {
	ID              string     `gorm:"primaryKey;type:varchar(128)" json:"id"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	ModerationLevel int        `gorm:"not null;default:0" json:"moderationLevel"`
	Suspended       bool       `gorm:"not null;default:false" json:"suspended"`
	SuspendedAt     *time.Time `json:"suspendedAt,omitempty"`
}
