package storage

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOAdapter implements Storage using MinIO.
type MinIOAdapter struct {
	client *minio.Client
	bucket string
}

// MinIOOptions configures MinIO client initialization.
type MinIOOptions struct {
	// Endpoint is the MinIO server address.
	Endpoint string
	// AccessKey is the access key ID.
	AccessKey string
	// SecretKey is the secret access key.
	SecretKey string
	// Region is the MinIO region.
	Region string
	// UseSSL toggles TLS for MinIO connections.
	UseSSL bool
	// SessionToken is the optional STS session token.
	SessionToken string
}

// NewMinIO constructs a MinIO adapter writing to bucket.
func NewMinIO(bucket string, opts MinIOOptions) (*MinIOAdapter, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}
	return &MinIOAdapter{client: client, bucket: bucket}, nil
}

// PutObject stores data in MinIO.
func (m *MinIOAdapter) PutObject(ctx context.Context, key string, data []byte, opts PutOptions) (ObjectInfo, error) {
	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Bucket: m.bucket,
		Key:    key,
		Size:   info.Size,
		ETag:   info.ETag,
	}, nil
}

// Close releases MinIO adapter resources.
func (m *MinIOAdapter) Close() error {
	return nil
}
