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

type QuotaResult struct {
	Allowed   bool `json:"allowed"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
}

// QuotaService enforces the per-identity daily post limit.
type QuotaService struct {
	db     *gorm.DB
	limit  int
	loc    *time.Location
	logger *zap.Logger
}

func NewQuotaService(db *gorm.DB, limit int, loc *time.Location, logger *zap.Logger) *QuotaService {
	return &QuotaService{db: db, limit: limit, loc: loc, logger: logger}
}

func (s *QuotaService) Limit() int {
	return s.limit
}

// TryConsume takes one slot of today's quota if one is left.
func (s *QuotaService) TryConsume(ctx context.Context, identityID string, now time.Time) (QuotaResult, error) {
	var result QuotaResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.consume(tx, identityID, now)
		return err
	})
	return result, err
}

// consume runs inside the caller's transaction. The increment is a single
// conditional UPDATE, so two racing callers can never both take the last slot.
func (s *QuotaService) consume(tx *gorm.DB, identityID string, now time.Time) (QuotaResult, error) {
	day := DayKey(now, s.loc)

	row := models.DailyCount{IdentityID: identityID, Day: day}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return QuotaResult{}, apperrors.Storage("init daily count", err)
	}

	res := s.increment(tx, identityID, day)
	if res.Error != nil {
		return QuotaResult{}, apperrors.Storage("consume quota", res.Error)
	}
	if res.RowsAffected == 0 {
		s.logger.Info("Daily quota exhausted", zap.String("identity_id", identityID), zap.String("day", day))
		return QuotaResult{Allowed: false, Used: s.limit, Remaining: 0}, nil
	}

	used, err := s.used(tx, identityID, day)
	if err != nil {
		return QuotaResult{}, err
	}
	return QuotaResult{Allowed: true, Used: used, Remaining: remaining(s.limit, used)}, nil
}

// increment is the only write to post_count. The limit check lives in the
// WHERE clause so the store, not the caller, decides who gets the last slot.
func (s *QuotaService) increment(tx *gorm.DB, identityID, day string) *gorm.DB {
	return tx.Model(&models.DailyCount{}).
		Where("identity_id = ? AND day = ? AND post_count < ?", identityID, day, s.limit).
		UpdateColumn("post_count", gorm.Expr("post_count + ?", 1))
}

// Remaining reports today's unused slots without touching anything.
func (s *QuotaService) Remaining(ctx context.Context, identityID string, now time.Time) (int, error) {
	used, err := s.used(s.db.WithContext(ctx), identityID, DayKey(now, s.loc))
	if err != nil {
		return 0, err
	}
	return remaining(s.limit, used), nil
}

func (s *QuotaService) used(db *gorm.DB, identityID, day string) (int, error) {
	var row models.DailyCount
	err := db.Where("identity_id = ? AND day = ?", identityID, day).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Storage("load daily count", err)
	}
	return row.PostCount, nil
}

func remaining(limit, used int) int {
	if used >= limit {
		return 0
	}
	return limit - used
}
