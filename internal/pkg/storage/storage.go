// Package storage writes objects to S3, GCS or MinIO buckets.
package storage

import (
	"context"
	"io"
)

// Storage defines the object operations used by the service.
type Storage interface {
	io.Closer

	// PutObject stores data under key in the configured bucket.
	PutObject(ctx context.Context, key string, data []byte, opts PutOptions) (ObjectInfo, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	// ContentType is the MIME type for the object.
	ContentType string
	// Metadata includes custom key/value metadata.
	Metadata map[string]string
}

// ObjectInfo describes a written object.
type ObjectInfo struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}
