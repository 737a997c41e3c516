package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mood-map/api-go/apperrors"
	"github.com/mood-map/api-go/config"
	"github.com/mood-map/api-go/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportResult describes an accepted report. The transition flags are true
// only when this very report caused the transition.
type ReportResult struct {
	PostID          uint              `json:"postId"`
	AuthorID        string            `json:"-"`
	ReportCount     int               `json:"reportCount"`
	Visibility      models.Visibility `json:"visibility"`
	PostHidden      bool              `json:"postHidden"`
	PostDeleted     bool              `json:"pinDeleted"`
	AuthorSuspended bool              `json:"userSuspended"`
	AuthorLevel     int               `json:"-"`
}

// ReportService runs the report → hide → delete → suspend state machine.
type ReportService struct {
	db     *gorm.DB
	cfg    config.ModerationConfig
	logger *zap.Logger
}

func NewReportService(db *gorm.DB, cfg config.ModerationConfig, logger *zap.Logger) *ReportService {
	return &ReportService{db: db, cfg: cfg, logger: logger}
}

// TargetVisibility is where a post with reportCount reports should be.
func (s *ReportService) TargetVisibility(reportCount int) models.Visibility {
	switch {
	case reportCount >= s.cfg.DeleteThreshold:
		return models.Deleted
	case reportCount >= s.cfg.HideThreshold:
		return models.Hidden
	default:
		return models.Visible
	}
}

// FileReport records one report and applies whatever transitions it triggers,
// all in a single transaction. Rejections leave the store untouched.
func (s *ReportService) FileReport(ctx context.Context, reporterID string, postID uint, now time.Time) (*ReportResult, error) {
	if reporterID == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "reporter id is required")
	}

	result := &ReportResult{PostID: postID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReporter(tx, reporterID); err != nil {
			return err
		}

		var post models.Post
		err := tx.Select("id", "author_id").
			Where("id = ? AND visibility < ?", postID, models.Deleted).
			Take(&post).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.ErrNotFound, "pin not found")
		}
		if err != nil {
			return apperrors.Storage("load post", err)
		}
		result.AuthorID = post.AuthorID

		report := models.Report{ReporterID: reporterID, PostID: postID, CreatedAt: now}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&report)
		if res.Error != nil {
			return apperrors.Storage("insert report", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.ErrDuplicateReport, "You have already reported this pin")
		}

		res = tx.Model(&models.Post{}).
			Where("id = ? AND visibility < ?", postID, models.Deleted).
			UpdateColumn("report_count", gorm.Expr("report_count + ?", 1))
		if res.Error != nil {
			return apperrors.Storage("increment report count", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.ErrNotFound, "pin not found")
		}

		// The row is locked by the increment above; this read sees our own write.
		var current models.Post
		if err := tx.Select("report_count", "visibility").Where("id = ?", postID).Take(&current).Error; err != nil {
			return apperrors.Storage("reload post", err)
		}
		result.ReportCount = current.ReportCount
		result.Visibility = current.Visibility

		if err := logActivity(tx, reporterID, &postID, models.ActivityReportFiled, "", now); err != nil {
			return err
		}

		target := s.TargetVisibility(current.ReportCount)
		if target <= current.Visibility {
			return nil
		}
		return s.transition(tx, result, current.Visibility, target, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Report accepted",
		zap.String("reporter_id", reporterID),
		zap.Uint("post_id", postID),
		zap.Int("report_count", result.ReportCount),
		zap.Stringer("visibility", result.Visibility),
		zap.Bool("post_deleted", result.PostDeleted),
		zap.Bool("author_suspended", result.AuthorSuspended))
	return result, nil
}

func (s *ReportService) checkReporter(tx *gorm.DB, reporterID string) error {
	var reporter models.Identity
	err := tx.Select("id", "suspended").Where("id = ?", reporterID).Take(&reporter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Storage("load reporter", err)
	}
	if reporter.Suspended {
		return apperrors.New(apperrors.ErrReporterSuspended, "Suspended accounts cannot report pins")
	}
	return nil
}

// transition moves the post forward with a compare-and-set on visibility, so a
// given threshold fires for exactly one report even under concurrency.
func (s *ReportService) transition(tx *gorm.DB, result *ReportResult, from, to models.Visibility, now time.Time) error {
	updates := map[string]interface{}{"visibility": to, "updated_at": now}
	if from < models.Hidden {
		updates["hidden_at"] = now
	}
	if to == models.Deleted {
		updates["retired_at"] = now
	}

	res := advanceVisibility(tx, result.PostID, to, updates)
	if res.Error != nil {
		return apperrors.Storage("update visibility", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	result.Visibility = to

	if from < models.Hidden {
		result.PostHidden = true
		if err := logActivity(tx, result.AuthorID, &result.PostID, models.ActivityPostHidden,
			fmt.Sprintf("%d reports", result.ReportCount), now); err != nil {
			return err
		}
	}
	if to != models.Deleted {
		return nil
	}

	result.PostDeleted = true
	if err := logActivity(tx, result.AuthorID, &result.PostID, models.ActivityPostDeleted,
		fmt.Sprintf("%d reports", result.ReportCount), now); err != nil {
		return err
	}
	return s.escalateAuthor(tx, result, now)
}

// advanceVisibility is a compare-and-set: it only matches while the post is
// still below the target state.
func advanceVisibility(tx *gorm.DB, postID uint, to models.Visibility, updates map[string]interface{}) *gorm.DB {
	return tx.Model(&models.Post{}).
		Where("id = ? AND visibility < ?", postID, to).
		Updates(updates)
}

// escalateAuthor bumps the author's moderation level and suspends them once
// the level reaches the threshold. The level is never capped.
func (s *ReportService) escalateAuthor(tx *gorm.DB, result *ReportResult, now time.Time) error {
	if err := ensureIdentity(tx, result.AuthorID, now); err != nil {
		return err
	}

	res := tx.Model(&models.Identity{}).
		Where("id = ?", result.AuthorID).
		Updates(map[string]interface{}{
			"moderation_level": gorm.Expr("moderation_level + ?", 1),
			"updated_at":       now,
		})
	if res.Error != nil {
		return apperrors.Storage("increment moderation level", res.Error)
	}

	res = tx.Model(&models.Identity{}).
		Where("id = ? AND suspended = ? AND moderation_level >= ?", result.AuthorID, false, s.cfg.SuspendThreshold).
		Updates(map[string]interface{}{
			"suspended":    true,
			"suspended_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return apperrors.Storage("suspend author", res.Error)
	}
	result.AuthorSuspended = res.RowsAffected == 1

	var author models.Identity
	if err := tx.Select("moderation_level").Where("id = ?", result.AuthorID).Take(&author).Error; err != nil {
		return apperrors.Storage("reload author", err)
	}
	result.AuthorLevel = author.ModerationLevel

	if result.AuthorSuspended {
		s.logger.Warn("Identity suspended",
			zap.String("identity_id", result.AuthorID),
			zap.Int("moderation_level", author.ModerationLevel))
		return logActivity(tx, result.AuthorID, &result.PostID, models.ActivityIdentitySuspended,
			fmt.Sprintf("moderation level %d", author.ModerationLevel), now)
	}
	return nil
}

// Reporters lists who reported a post, oldest first.
func (s *ReportService) Reporters(ctx context.Context, postID uint) ([]string, error) {
	var reporters []string
	err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Pluck("reporter_id", &reporters).Error
	if err != nil {
		return nil, apperrors.Storage("list reporters", err)
	}
	return reporters, nil
}

func logActivity(tx *gorm.DB, identityID string, postID *uint, activity, detail string, now time.Time) error {
	entry := models.ActivityLog{
		IdentityID: identityID,
		PostID:     postID,
		Activity:   activity,
		Detail:     detail,
		CreatedAt:  now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return apperrors.Storage("log "+activity, err)
	}
	return nil
}
