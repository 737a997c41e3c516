// Package archive keeps a copy of every post the report pipeline retires, so
// the external manual-review process can still see what was removed.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/codeGROOVE-dev/retry"
	"github.com/mood-map/api-go/config"
	"go.uber.org/zap"
)

// PostSnapshot is the archived form of a retired post.
type PostSnapshot struct {
	PostID      uint      `json:"postId"`
	AuthorID    string    `json:"authorId"`
	Mood        string    `json:"mood"`
	Note        string    `json:"note,omitempty"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lng"`
	CreatedAt   time.Time `json:"createdAt"`
	RetiredAt   time.Time `json:"retiredAt"`
	ReportCount int       `json:"reportCount"`
	Reporters   []string  `json:"reporters"`
}

type Archiver interface {
	ArchivePost(ctx context.Context, snap PostSnapshot) error
}

// Nop discards snapshots. Used when no bucket is configured.
type Nop struct{}

func (Nop) ArchivePost(context.Context, PostSnapshot) error { return nil }

// Key is the object key a snapshot is stored under.
func Key(prefix string, snap PostSnapshot) string {
	day := snap.RetiredAt.UTC().Format("2006/01/02")
	if prefix == "" {
		return fmt.Sprintf("%s/post-%d.json", day, snap.PostID)
	}
	return fmt.Sprintf("%s/%s/post-%d.json", prefix, day, snap.PostID)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes snapshots as JSON objects to an S3-compatible bucket (Cloudflare R2).
type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
	logger *zap.Logger
}

func NewS3Archiver(cfg config.ArchiveConfig, logger *zap.Logger) *S3Archiver {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		Region: cfg.Region,
	})
	return newS3Archiver(client, cfg.BucketName, cfg.Prefix, logger)
}

func newS3Archiver(client objectPutter, bucket, prefix string, logger *zap.Logger) *S3Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

func (a *S3Archiver) ArchivePost(ctx context.Context, snap PostSnapshot) error {
	key := Key(a.prefix, snap)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	err = retry.Do(
		func() error {
			_, putErr := a.client.PutObject(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(a.bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(data),
				ContentType: aws.String("application/json"),
			})
			if putErr != nil {
				return fmt.Errorf("put object: %w", putErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			a.logger.Warn("Retrying snapshot upload", zap.Uint("attempt", n), zap.String("key", key), zap.Error(retryErr))
		}),
	)
	if err != nil {
		return fmt.Errorf("archive post %d: %w", snap.PostID, err)
	}

	a.logger.Info("Retired post archived", zap.String("bucket", a.bucket), zap.String("key", key))
	return nil
}

// New returns an S3 archiver when the config is complete, otherwise Nop.
func New(cfg config.ArchiveConfig, logger *zap.Logger) Archiver {
	if !cfg.Enabled() {
		return Nop{}
	}
	return NewS3Archiver(cfg, logger)
}
