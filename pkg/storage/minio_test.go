package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"go.uber.org/zap"
)

type fakePutter struct {
	bucket, key string
	body        []byte
	contentType string
	err         error
}

func (f *fakePutter) PutObject(_ context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	f.bucket, f.key, f.contentType = bucketName, objectName, opts.ContentType
	f.body, _ = io.ReadAll(reader)
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

func TestArchive(t *testing.T) {
	put := &fakePutter{}
	a := NewRunArchive(put, "runs-bucket", zap.NewNop())

	s := &model.RunSummary{
		RunID:                  "run-1",
		StartedAt:              time.Date(2026, 10, 15, 23, 30, 0, 0, time.FixedZone("IST", 19800)),
		VehiclesChecked:        3,
		EmailNotificationsSent: 1,
		Details:                []string{"sent"},
	}

	key, err := a.Archive(context.Background(), s)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	// 23:30 IST is 18:00 UTC on the same day
	if key != "runs/2026/10/15/run-1.json" || put.key != key || put.bucket != "runs-bucket" {
		t.Errorf("key = %q, stored at %s/%s", key, put.bucket, put.key)
	}
	if put.contentType != "application/json" {
		t.Errorf("content type = %q", put.contentType)
	}

	var got model.RunSummary
	if err := json.Unmarshal(put.body, &got); err != nil {
		t.Fatalf("archived body is not JSON: %v", err)
	}
	if got.RunID != "run-1" || got.VehiclesChecked != 3 || got.EmailNotificationsSent != 1 {
		t.Errorf("unexpected archived summary: %+v", got)
	}
}

func TestArchiveError(t *testing.T) {
	a := NewRunArchive(&fakePutter{err: errors.New("bucket gone")}, "b", zap.NewNop())
	if _, err := a.Archive(context.Background(), &model.RunSummary{RunID: "x"}); err == nil {
		t.Fatal("expected an error")
	}
}
