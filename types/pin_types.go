package types

import (
	"time"

	"github.com/mood-map/api-go/models"
)

type CreatePinRequest struct {
	Mood      string   `json:"mood" binding:"required,mood"`
	Message   string   `json:"message" binding:"max=1024"`
	Latitude  *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"lng" binding:"required,min=-180,max=180"`
}

// PinListQuery filters the map. Radius is in kilometers and needs both coordinates.
type PinListQuery struct {
	Latitude  *float64   `form:"lat" binding:"omitempty,min=-90,max=90"`
	Longitude *float64   `form:"lng" binding:"omitempty,min=-180,max=180"`
	Radius    float64    `form:"radius" binding:"omitempty,gt=0,max=50"`
	Since     *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit     int        `form:"limit" binding:"omitempty,min=1,max=500"`
}

type PinListResponse struct {
	Pins  []models.Post `json:"pins"`
	Count int           `json:"count"`
}

type CheckTextRequest struct {
	Text string `json:"text" binding:"max=1024"`
}

type StreakResponse struct {
	Streak int `json:"streak"`
}
