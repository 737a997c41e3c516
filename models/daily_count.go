package models

// DailyCount tracks how many posts an identity created on one server-local day.
type DailyCount struct {
	IdentityID string `gorm:"primaryKey;type:varchar(128)"`
	Day        string `gorm:"primaryKey;type:varchar(10)"` // YYYY-MM-DD
	PostCount  int    `gorm:"not null;default:0"`
}
