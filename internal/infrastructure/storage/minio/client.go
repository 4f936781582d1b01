// Package minio archives exported plan files in S3-compatible object storage.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/fieldplan/internal/config"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/pkg/errors"
)

// ObjectAPI is the subset of *minio.Client the archive uses.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// PlanArchive uploads plan files under plans/YYYY/MM/DD/<id>.json[.zst].
type PlanArchive struct {
	client ObjectAPI
	bucket string
	region string
	logger logging.Logger
	now    func() time.Time
}

// NewPlanArchive connects to the configured endpoint and ensures the bucket
// exists.
func NewPlanArchive(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (*PlanArchive, error) {
	applyDefaults(&cfg)
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}

	a := NewPlanArchiveWithClient(client, cfg.Bucket, cfg.Region, log)
	if err := a.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	a.logger.Info("MinIO archive ready",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return a, nil
}

// NewPlanArchiveWithClient builds an archive over an existing client.
func NewPlanArchiveWithClient(client ObjectAPI, bucket, region string, log logging.Logger) *PlanArchive {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &PlanArchive{
		client: client,
		bucket: bucket,
		region: region,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func applyDefaults(cfg *config.MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = config.DefaultBucket
	}
}

// EnsureBucket creates the bucket when it is missing.
func (a *PlanArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, fmt.Sprintf("failed to create bucket %s", a.bucket))
	}
	a.logger.Info("Created bucket", logging.String("bucket", a.bucket))
	return nil
}

// ObjectKey returns the object name for plan id uploaded at t.
func ObjectKey(id string, t time.Time, compressed bool) string {
	ext := ".json"
	if compressed {
		ext = ".json.zst"
	}
	return fmt.Sprintf("plans/%04d/%02d/%02d/%s%s", t.Year(), t.Month(), t.Day(), id, ext)
}

// Upload stores data for plan id and returns its object key.
func (a *PlanArchive) Upload(ctx context.Context, id string, data []byte, compressed bool) (string, error) {
	key := ObjectKey(id, a.now(), compressed)
	opts := minio.PutObjectOptions{
		ContentType:  "application/json",
		UserMetadata: map[string]string{"plan-id": id},
	}
	if compressed {
		opts.ContentType = "application/zstd"
	}
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to upload plan").WithDetail(key)
	}
	a.logger.Debug("Uploaded plan",
		logging.String("key", key),
		logging.Int64("size", info.Size),
		logging.String("etag", info.ETag))
	return key, nil
}

// Exists reports whether an object is stored under key.
func (a *PlanArchive) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.client.StatObject(ctx, a.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat plan object")
}

// Delete removes the object stored under key.
func (a *PlanArchive) Delete(ctx context.Context, key string) error {
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to delete plan object").WithDetail(key)
	}
	return nil
}

// Bucket returns the archive bucket name.
func (a *PlanArchive) Bucket() string { return a.bucket }

//Personal.AI order the ending
