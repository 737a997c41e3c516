package models

import (
	"time"
)

const (
	ActivityPostCreated       = "post_created"
	ActivityReportFiled       = "report_filed"
	ActivityPostHidden        = "post_hidden"
	ActivityPostDeleted       = "post_deleted"
	ActivityIdentitySuspended = "identity_suspended"
	ActivityModerationReset   = "moderation_reset"
)

type ActivityLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	IdentityID string    `json:"identityId" gorm:"not null;index;type:varchar(128)"`
	PostID     *uint     `json:"postId,omitempty" gorm:"index"`
	Activity   string    `json:"activity" gorm:"not null;type:varchar(50)"`
	Detail     string    `json:"detail,omitempty" gorm:"type:varchar(255)"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
}
