package controllers

import (
	"context"
	"time"

	"github.com/mood-map/api-go/models"
	"github.com/mood-map/api-go/screener"
	"github.com/mood-map/api-go/services"
)

type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ModerationEngine is what the handlers need from services.Engine.
type ModerationEngine interface {
	ScreenText(text string) screener.Result
	SubmitPost(ctx context.Context, in services.SubmitPostInput, now time.Time) (*services.SubmitResult, error)
	FileReport(ctx context.Context, reporterID string, postID uint, now time.Time) (*services.ReportResult, error)
	ComputeStreak(ctx context.Context, identityID string, now time.Time) (int, error)
	Status(ctx context.Context, identityID string, now time.Time) (*services.IdentityStatus, error)
	VisiblePins(ctx context.Context, q services.PinQuery) ([]models.Post, error)
	Pin(ctx context.Context, postID uint) (*models.Post, error)
	ResetModeration(ctx context.Context, identityID, actorID string, now time.Time) error
}

var _ ModerationEngine = (*services.Engine)(nil)
