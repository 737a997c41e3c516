package models

import (
	"fmt"
	"time"
)

type Mood string

const (
	MoodHyped    Mood = "HYPED"
	MoodVibing   Mood = "VIBING"
	MoodMid      Mood = "MID"
	MoodStressed Mood = "STRESSED"
	MoodTired    Mood = "TIRED"
)

// Moods lists every mood a pin can carry, in display order.
var Moods = []Mood{MoodHyped, MoodVibing, MoodMid, MoodStressed, MoodTired}

func (m Mood) Valid() bool {
	for _, known := range Moods {
		if m == known {
			return true
		}
	}
	return false
}

// Visibility is ordered: a post only ever moves to a larger value.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
	Deleted
)

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Post is a single mood pin dropped on the campus map.
type Post struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID    string     `gorm:"not null;index;type:varchar(128)" json:"-"`
	Mood        Mood       `gorm:"not null;type:varchar(16)" json:"mood"`
	Note        string     `gorm:"type:varchar(1024)" json:"message,omitempty"`
	Latitude    float64    `gorm:"not null" json:"lat"`
	Longitude   float64    `gorm:"not null" json:"lng"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"-"`
	ReportCount int        `gorm:"not null;default:0" json:"-"`
	Visibility  Visibility `gorm:"not null;default:0;index" json:"-"`
	HiddenAt    *time.Time `json:"-"`
	RetiredAt   *time.Time `json:"-"`
	Distance    float64    `gorm:"-" json:"distance,omitempty"`
}
