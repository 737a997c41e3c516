package services

import (
	"context"
	"errors"
	"time"

	"github.com/mood-map/api-go/apperrors"
	"github.com/mood-map/api-go/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IdentityService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewIdentityService(db *gorm.DB, logger *zap.Logger) *IdentityService {
	return &IdentityService{db: db, logger: logger}
}

// Ensure creates the identity row on first sight. Existing rows are left untouched.
func (s *IdentityService) Ensure(ctx context.Context, identityID string, now time.Time) error {
	return ensureIdentity(s.db.WithContext(ctx), identityID, now)
}

func ensureIdentity(tx *gorm.DB, identityID string, now time.Time) error {
	if identityID == "" {
		return apperrors.New(apperrors.ErrValidation, "identity id is required")
	}
	identity := models.Identity{ID: identityID, CreatedAt: now, UpdatedAt: now}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&identity).Error; err != nil {
		return apperrors.Storage("ensure identity", err)
	}
	return nil
}

func (s *IdentityService) Get(ctx context.Context, identityID string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.WithContext(ctx).Where("id = ?", identityID).Take(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrNotFound, "identity not found")
	}
	if err != nil {
		return nil, apperrors.Storage("load identity", err)
	}
	return &identity, nil
}

// ResetModeration is the manual-review path: it clears the moderation level and
// lifts a suspension in one statement. Nothing in the engine calls it on its own.
func (s *IdentityService) ResetModeration(ctx context.Context, identityID, actorID string, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Identity{}).Where("id = ?", identityID).Updates(map[string]interface{}{
			"moderation_level": 0,
			"suspended":        false,
			"suspended_at":     nil,
			"updated_at":       now,
		})
		if res.Error != nil {
			return apperrors.Storage("reset moderation", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.ErrNotFound, "identity not found")
		}

		entry := models.ActivityLog{
			IdentityID: identityID,
			Activity:   models.ActivityModerationReset,
			Detail:     "reset by " + actorID,
			CreatedAt:  now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return apperrors.Storage("log moderation reset", err)
		}

		s.logger.Info("Moderation reset", zap.String("identity_id", identityID), zap.String("actor_id", actorID))
		return nil
	})
}
