package models

import (
	"time"
)

// Report is one reporter's flag against one post. The unique index is what
// makes a second report from the same reporter a no-op.
type Report struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReporterID string    `gorm:"not null;type:varchar(128);uniqueIndex:idx_reports_reporter_post" json:"reporterId"`
	PostID     uint      `gorm:"not null;uniqueIndex:idx_reports_reporter_post;index" json:"postId"`
	CreatedAt  time.Time `json:"createdAt"`
}
