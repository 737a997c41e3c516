package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mood-map/api-go/apperrors"
	"github.com/mood-map/api-go/archive"
	"github.com/mood-map/api-go/config"
	"github.com/mood-map/api-go/models"
	"github.com/mood-map/api-go/screener"
	"github.com/mood-map/api-go/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultPinLimit = 200
	MaxPinLimit     = 500
)

type EngineConfig struct {
	Moderation      config.ModerationConfig
	Location        *time.Location
	StreakCacheTTL  time.Duration
	StreakCacheSize int
	CrisisMessage   string
}

// EngineConfigFrom picks the engine settings out of the service config.
func EngineConfigFrom(cfg *config.Config) EngineConfig {
	return EngineConfig{
		Moderation:      cfg.Moderation,
		Location:        cfg.Location,
		StreakCacheTTL:  cfg.StreakCacheTTL,
		StreakCacheSize: cfg.StreakCacheSize,
		CrisisMessage:   cfg.CrisisMessage,
	}
}

// Engine is the single entry point the HTTP layer talks to. It enforces the
// ordering screen → quota → persist.
type Engine struct {
	db         *gorm.DB
	cfg        EngineConfig
	screener   *screener.Screener
	identities *IdentityService
	quota      *QuotaService
	reports    *ReportService
	streaks    *StreakService
	archiver   archive.Archiver
	logger     *zap.Logger
}

func NewEngine(db *gorm.DB, cfg EngineConfig, archiver archive.Archiver, logger *zap.Logger) *Engine {
	logger = utils.OrNop(logger)
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if archiver == nil {
		archiver = archive.Nop{}
	}
	return &Engine{
		db:         db,
		cfg:        cfg,
		screener:   screener.New(screener.WithCrisisMessage(cfg.CrisisMessage)),
		identities: NewIdentityService(db, logger),
		quota:      NewQuotaService(db, cfg.Moderation.DailyLimit, cfg.Location, logger),
		reports:    NewReportService(db, cfg.Moderation, logger),
		streaks:    NewStreakService(db, cfg.Location, cfg.StreakCacheSize, cfg.StreakCacheTTL, logger),
		archiver:   archiver,
		logger:     logger,
	}
}

func (e *Engine) ScreenText(text string) screener.Result {
	return e.screener.Quick(text)
}

func (e *Engine) TryConsumeQuota(ctx context.Context, identityID string, now time.Time) (QuotaResult, error) {
	return e.quota.TryConsume(ctx, identityID, now)
}

func (e *Engine) ComputeStreak(ctx context.Context, identityID string, now time.Time) (int, error) {
	return e.streaks.Compute(ctx, identityID, now)
}

func (e *Engine) EnsureIdentity(ctx context.Context, identityID string, now time.Time) error {
	return e.identities.Ensure(ctx, identityID, now)
}

func (e *Engine) ResetModeration(ctx context.Context, identityID, actorID string, now time.Time) error {
	return e.identities.ResetModeration(ctx, identityID, actorID, now)
}

// FileReport records a report and, when it retires the post, archives a
// snapshot for manual review. Archive failures are logged and never undo the
// deletion.
func (e *Engine) FileReport(ctx context.Context, reporterID string, postID uint, now time.Time) (*ReportResult, error) {
	result, err := e.reports.FileReport(ctx, reporterID, postID, now)
	if err != nil {
		return nil, err
	}
	if result.PostDeleted {
		e.streaks.Invalidate(result.AuthorID, now)
		e.archiveRetired(ctx, result, now)
	}
	return result, nil
}

func (e *Engine) archiveRetired(ctx context.Context, result *ReportResult, now time.Time) {
	var post models.Post
	if err := e.db.WithContext(ctx).Where("id = ?", result.PostID).Take(&post).Error; err != nil {
		e.logger.Error("Failed to load retired post for archive", zap.Uint("post_id", result.PostID), zap.Error(err))
		return
	}
	reporters, err := e.reports.Reporters(ctx, result.PostID)
	if err != nil {
		e.logger.Error("Failed to list reporters for archive", zap.Uint("post_id", result.PostID), zap.Error(err))
		return
	}

	retiredAt := now
	if post.RetiredAt != nil {
		retiredAt = *post.RetiredAt
	}
	snap := archive.PostSnapshot{
		PostID:      post.ID,
		AuthorID:    post.AuthorID,
		Mood:        string(post.Mood),
		Note:        post.Note,
		Latitude:    post.Latitude,
		Longitude:   post.Longitude,
		CreatedAt:   post.CreatedAt,
		RetiredAt:   retiredAt,
		ReportCount: post.ReportCount,
		Reporters:   reporters,
	}
	if err := e.archiver.ArchivePost(ctx, snap); err != nil {
		e.logger.Error("Failed to archive retired post", zap.Uint("post_id", post.ID), zap.Error(err))
	}
}

type SubmitPostInput struct {
	AuthorID  string
	Mood      models.Mood
	Note      string
	Latitude  float64
	Longitude float64
}

type SubmitResult struct {
	Post      *models.Post `json:"pin"`
	Remaining int          `json:"remaining"`
}

func (e *Engine) validatePost(in *SubmitPostInput) error {
	if in.AuthorID == "" {
		return apperrors.New(apperrors.ErrValidation, "author id is required")
	}
	if !in.Mood.Valid() {
		return apperrors.New(apperrors.ErrValidation, "mood must be one of HYPED, VIBING, MID, STRESSED, TIRED")
	}
	if math.IsNaN(in.Latitude) || in.Latitude < -90 || in.Latitude > 90 {
		return apperrors.New(apperrors.ErrValidation, "latitude must be between -90 and 90")
	}
	if math.IsNaN(in.Longitude) || in.Longitude < -180 || in.Longitude > 180 {
		return apperrors.New(apperrors.ErrValidation, "longitude must be between -180 and 180")
	}
	in.Note = strings.TrimSpace(in.Note)
	if utf8.RuneCountInString(in.Note) > e.cfg.Moderation.MaxNoteLength {
		return apperrors.New(apperrors.ErrValidation, "note is too long")
	}
	return nil
}

// SubmitPost validates and screens the post before anything is written, then
// consumes quota and inserts the post in one transaction.
func (e *Engine) SubmitPost(ctx context.Context, in SubmitPostInput, now time.Time) (*SubmitResult, error) {
	if err := e.validatePost(&in); err != nil {
		return nil, err
	}

	switch e.screener.Screen(in.Note) {
	case screener.PolicyViolation:
		return nil, apperrors.New(apperrors.ErrPolicyViolation, screener.PolicyViolationMessage)
	case screener.CrisisFlag:
		e.logger.Info("Crisis content screened", zap.String("identity_id", in.AuthorID))
		return nil, apperrors.New(apperrors.ErrCrisisFlag, e.screener.Message(screener.CrisisFlag))
	}

	post := &models.Post{
		AuthorID:  in.AuthorID,
		Mood:      in.Mood,
		Note:      in.Note,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var quota QuotaResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureIdentity(tx, in.AuthorID, now); err != nil {
			return err
		}

		var author models.Identity
		if err := tx.Select("id", "suspended").Where("id = ?", in.AuthorID).Take(&author).Error; err != nil {
			return apperrors.Storage("load author", err)
		}
		if author.Suspended {
			return apperrors.New(apperrors.ErrIdentitySuspended, "Your account is suspended")
		}

		var err error
		quota, err = e.quota.consume(tx, in.AuthorID, now)
		if err != nil {
			return err
		}
		if !quota.Allowed {
			return apperrors.New(apperrors.ErrQuotaExceeded, "Daily pin limit reached. Try again tomorrow.")
		}

		if err := tx.Create(post).Error; err != nil {
			return apperrors.Storage("create post", err)
		}

		entry := models.ActivityLog{
			IdentityID: in.AuthorID,
			PostID:     &post.ID,
			Activity:   models.ActivityPostCreated,
			Detail:     string(in.Mood),
			Latitude:   in.Latitude,
			Longitude:  in.Longitude,
			CreatedAt:  now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return apperrors.Storage("log post", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.streaks.Invalidate(in.AuthorID, now)
	e.logger.Info("Pin created",
		zap.Uint("post_id", post.ID),
		zap.String("identity_id", in.AuthorID),
		zap.String("mood", string(in.Mood)),
		zap.Int("remaining", quota.Remaining))
	return &SubmitResult{Post: post, Remaining: quota.Remaining}, nil
}

type IdentityStatus struct {
	IdentityID      string `json:"identityId"`
	ModerationLevel int    `json:"moderationLevel"`
	Suspended       bool   `json:"suspended"`
	Streak          int    `json:"streak"`
	DailyLimit      int    `json:"dailyLimit"`
	Remaining       int    `json:"remaining"`
}

func (e *Engine) Status(ctx context.Context, identityID string, now time.Time) (*IdentityStatus, error) {
	identity, err := e.identities.Get(ctx, identityID)
	if err != nil {
		return nil, err
	}
	streak, err := e.streaks.Compute(ctx, identityID, now)
	if err != nil {
		return nil, err
	}
	remaining, err := e.quota.Remaining(ctx, identityID, now)
	if err != nil {
		return nil, err
	}
	return &IdentityStatus{
		IdentityID:      identity.ID,
		ModerationLevel: identity.ModerationLevel,
		Suspended:       identity.Suspended,
		Streak:          streak,
		DailyLimit:      e.quota.Limit(),
		Remaining:       remaining,
	}, nil
}

// PinQuery selects visible pins. A zero RadiusKm means no distance filter.
type PinQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Since     *time.Time
	Limit     int
}

// VisiblePins returns visible pins, newest first. Hidden and deleted pins are
// never returned.
func (e *Engine) VisiblePins(ctx context.Context, q PinQuery) ([]models.Post, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPinLimit
	}
	if q.Limit > MaxPinLimit {
		q.Limit = MaxPinLimit
	}
	if q.RadiusKm < 0 {
		return nil, apperrors.New(apperrors.ErrValidation, "radius must not be negative")
	}

	query := e.db.WithContext(ctx).Model(&models.Post{}).Where("visibility = ?", models.Visible)
	if q.Since != nil {
		query = query.Where("created_at >= ?", *q.Since)
	}
	if q.RadiusKm > 0 {
		query = withinBox(query, q.Latitude, q.Longitude, q.RadiusKm)
	}

	var posts []models.Post
	if err := query.Order("created_at DESC, id DESC").Limit(q.Limit).Find(&posts).Error; err != nil {
		return nil, apperrors.Storage("list pins", err)
	}
	if q.RadiusKm == 0 {
		return posts, nil
	}

	radius := q.RadiusKm * 1000
	nearby := posts[:0]
	for _, p := range posts {
		p.Distance = calculateDistance(q.Latitude, q.Longitude, p.Latitude, p.Longitude)
		if p.Distance <= radius {
			nearby = append(nearby, p)
		}
	}
	return nearby, nil
}

// withinBox narrows the query to a bounding box around the point; the exact
// distance check happens afterwards. Near a pole every longitude is in range,
// and a box crossing the antimeridian is split in two.
func withinBox(query *gorm.DB, lat, lng, radiusKm float64) *gorm.DB {
	latDelta := radiusKm / 111.0
	query = query.Where("latitude BETWEEN ? AND ?", lat-latDelta, lat+latDelta)
	if lat+latDelta >= 90 || lat-latDelta <= -90 {
		return query
	}

	lngDelta := latDelta / math.Cos(lat*math.Pi/180)
	if lngDelta >= 180 {
		return query
	}
	minLng, maxLng := lng-lngDelta, lng+lngDelta
	switch {
	case minLng < -180:
		return query.Where("(longitude >= ? OR longitude <= ?)", minLng+360, maxLng)
	case maxLng > 180:
		return query.Where("(longitude >= ? OR longitude <= ?)", minLng, maxLng-360)
	default:
		return query.Where("longitude BETWEEN ? AND ?", minLng, maxLng)
	}
}

// Pin loads a single visible pin.
func (e *Engine) Pin(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := e.db.WithContext(ctx).Where("id = ? AND visibility = ?", postID, models.Visible).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrNotFound, "pin not found")
	}
	if err != nil {
		return nil, apperrors.Storage("load pin", err)
	}
	return &post, nil
}

// calculateDistance is the haversine distance in meters.
func calculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000

	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	Δφ := (lat2 - lat1) * math.Pi / 180
	Δλ := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*
			math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}
