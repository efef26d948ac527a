package storage

import (
	"context"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client *gcs.Client
	bucket string
}

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	// CredentialsFile points at a service account JSON; empty uses ADC.
	CredentialsFile string
	// ClientOptions are appended after the credentials file (endpoint,
	// emulator auth, user agent).
	ClientOptions []option.ClientOption
}

// NewGCS constructs a GCS adapter writing to bucket.
func NewGCS(ctx context.Context, bucket string, opts GCSOptions) (*GCSAdapter, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &GCSAdapter{client: client, bucket: bucket}, nil
}

// PutObject stores data in GCS.
func (g *GCSAdapter) PutObject(ctx context.Context, key string, data []byte, opts PutOptions) (ObjectInfo, error) {
	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = opts.ContentType
	if len(opts.Metadata) > 0 {
		writer.Metadata = opts.Metadata
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return ObjectInfo{}, err
	}
	if err := writer.Close(); err != nil {
		return ObjectInfo{}, err
	}

	info := ObjectInfo{Bucket: g.bucket, Key: key, Size: int64(len(data))}
	if attrs := writer.Attrs(); attrs != nil {
		info.ETag = attrs.Etag
	}
	return info, nil
}

// Close closes the GCS client.
func (g *GCSAdapter) Close() error {
	return g.client.Close()
}
