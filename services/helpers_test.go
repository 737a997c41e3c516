package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mood-map/api-go/archive"
	"github.com/mood-map/api-go/config"
	"github.com/mood-map/api-go/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testZone is a fixed offset so day boundaries do not depend on the host's tzdata.
var testZone = time.FixedZone("EST", -5*60*60)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps every goroutine on the same in-memory database, and
	// it also serializes transactions. The concurrency tests therefore check
	// outcomes under interleaved callers, not lock behaviour; the
	// *IsConditional tests pin the guarded UPDATE statements themselves.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func at(day, hour int) time.Time {
	return time.Date(2026, time.October, day, hour, 0, 0, 0, testZone)
}

func seedPost(t *testing.T, db *gorm.DB, authorID string, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		AuthorID:  authorID,
		Mood:      models.MoodVibing,
		Latitude:  39.9522,
		Longitude: -75.1932,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func loadPost(t *testing.T, db *gorm.DB, id uint) models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, db.Where("id = ?", id).Take(&post).Error)
	return post
}

func loadIdentity(t *testing.T, db *gorm.DB, id string) models.Identity {
	t.Helper()
	var identity models.Identity
	require.NoError(t, db.Where("id = ?", id).Take(&identity).Error)
	return identity
}

type recordingArchiver struct {
	mu    sync.Mutex
	snaps []archive.PostSnapshot
	err   error
}

func (r *recordingArchiver) ArchivePost(_ context.Context, snap archive.PostSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return r.err
}

func (r *recordingArchiver) snapshots() []archive.PostSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]archive.PostSnapshot(nil), r.snaps...)
}
