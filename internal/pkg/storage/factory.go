package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by storage.driver.
const (
	DriverS3    = "s3"
	DriverGCS   = "gcs"
	DriverMinIO = "minio"
)

var (
	ErrUnknownDriver  = errors.New("storage: unknown driver")
	ErrBucketRequired = errors.New("storage: bucket is required")
)

// FactoryOptions carries every backend's settings. Only the selected one is
// read; Bucket applies to all of them.
type FactoryOptions struct {
	Bucket string
	S3     S3Options
	GCS    GCSOptions
	MinIO  MinIOOptions
}

// NewFromDriver builds the backend named by driver. "aws" and "google" are
// accepted for s3 and gcs.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, ErrBucketRequired
	}

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverS3, "aws":
		return NewS3(ctx, bucket, opts.S3)
	case DriverGCS, "google":
		return NewGCS(ctx, bucket, opts.GCS)
	case DriverMinIO:
		return NewMinIO(bucket, opts.MinIO)
	default:
		return nil, fmt.Errorf("%w %q, want s3, gcs or minio", ErrUnknownDriver, driver)
	}
}
