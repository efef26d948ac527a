package storage

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Adapter implements Storage using AWS S3.
type S3Adapter struct {
	client *s3.Client
	bucket string
}

// S3Options configures S3 client initialization.
type S3Options struct {
	// Region is the AWS region.
	Region string
	// Endpoint overrides the AWS endpoint (LocalStack, R2, ...).
	Endpoint string
	// AccessKey is the static access key ID.
	AccessKey string
	// SecretKey is the static secret access key.
	SecretKey string
	// SessionToken is the optional session token.
	SessionToken string
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
}

// NewS3 constructs an S3 adapter writing to bucket.
func NewS3(ctx context.Context, bucket string, opts S3Options) (*S3Adapter, error) {
	cfgOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(opts.Region))
	} else if opts.Endpoint != "" {
		cfgOpts = append(cfgOpts, config.WithRegion("us-east-1"))
	}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &S3Adapter{client: client, bucket: bucket}, nil
}

// PutObject stores data in S3.
func (s *S3Adapter) PutObject(ctx context.Context, key string, data []byte, opts PutOptions) (ObjectInfo, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      opts.Metadata,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return ObjectInfo{}, err
	}

	return ObjectInfo{
		Bucket: s.bucket,
		Key:    key,
		Size:   int64(len(data)),
		ETag:   aws.ToString(out.ETag),
	}, nil
}

// Close releases the S3 adapter resources.
func (s *S3Adapter) Close() error {
	return nil
}
