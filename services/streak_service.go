package services

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mood-map/api-go/apperrors"
	"github.com/mood-map/api-go/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StreakService computes consecutive posting days. Results are display-only,
// so a short-lived cache is acceptable.
type StreakService struct {
	db     *gorm.DB
	loc    *time.Location
	cache  *expirable.LRU[string, int]
	logger *zap.Logger
}

func NewStreakService(db *gorm.DB, loc *time.Location, size int, ttl time.Duration, logger *zap.Logger) *StreakService {
	s := &StreakService{db: db, loc: loc, logger: logger}
	if size > 0 && ttl > 0 {
		s.cache = expirable.NewLRU[string, int](size, nil, ttl)
	}
	return s
}

func streakKey(identityID, day string) string {
	return identityID + "|" + day
}

// Compute returns the streak ending today. Deleted posts do not count.
func (s *StreakService) Compute(ctx context.Context, identityID string, now time.Time) (int, error) {
	key := streakKey(identityID, DayKey(now, s.loc))
	if s.cache != nil {
		if streak, ok := s.cache.Get(key); ok {
			return streak, nil
		}
	}

	var times []time.Time
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("author_id = ? AND visibility < ?", identityID, models.Deleted).
		Order("created_at DESC").
		Pluck("created_at", &times).Error
	if err != nil {
		return 0, apperrors.Storage("load post times", err)
	}

	streak := StreakFromTimes(times, now, s.loc)
	if s.cache != nil {
		s.cache.Add(key, streak)
	}
	return streak, nil
}

// Invalidate drops today's cached value for the identity.
func (s *StreakService) Invalidate(identityID string, now time.Time) {
	if s.cache == nil {
		return
	}
	s.cache.Remove(streakKey(identityID, DayKey(now, s.loc)))
}

// StreakFromTimes counts consecutive local days with at least one timestamp,
// walking back from now's day. No post today means 0.
func StreakFromTimes(times []time.Time, now time.Time, loc *time.Location) int {
	days := make(map[string]struct{}, len(times))
	for _, t := range times {
		days[DayKey(t, loc)] = struct{}{}
	}

	streak := 0
	for day := now; ; day = previousDay(day, loc) {
		if _, ok := days[DayKey(day, loc)]; !ok {
			return streak
		}
		streak++
	}
}
