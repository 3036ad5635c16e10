package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"go.uber.org/zap"
)

// ObjectPutter is the part of the MinIO client used to write objects
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// RunArchive stores each scan's run summary as a JSON object
type RunArchive struct {
	client ObjectPutter
	bucket string
	log    *zap.Logger
}

// Config holds MinIO connection configuration
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinIO connects to MinIO and makes sure the archive bucket exists
func NewMinIO(ctx context.Context, cfg Config, log *zap.Logger) (*RunArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info("📦 Created MinIO bucket", zap.String("bucket", cfg.Bucket))
	}

	return NewRunArchive(client, cfg.Bucket, log), nil
}

func NewRunArchive(client ObjectPutter, bucket string, log *zap.Logger) *RunArchive {
	return &RunArchive{client: client, bucket: bucket, log: log.Named("archive")}
}

// ObjectName returns the key a run summary is stored under
func ObjectName(s *model.RunSummary) string {
	return fmt.Sprintf("runs/%s/%s.json", s.StartedAt.UTC().Format("2006/01/02"), s.RunID)
}

// Archive uploads the run summary and returns its object key
func (a *RunArchive) Archive(ctx context.Context, s *model.RunSummary) (string, error) {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run summary: %w", err)
	}

	key := ObjectName(s)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive run %s: %w", s.RunID, err)
	}

	a.log.Debug("Run summary archived", zap.String("bucket", a.bucket), zap.String("key", key))
	return key, nil
}
