package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/arthurando/fafa-shopify-v2/internal/config"
)

// R2Store stores product videos and the description photo in a Cloudflare R2
// bucket through the S3-compatible API
type R2Store struct {
	client *s3.Client
	bucket string
}

// NewR2Store creates a new R2-backed media store
func NewR2Store(ctx context.Context, cfg config.R2Config) (*R2Store, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("R2 configuration is incomplete")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 credentials: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &R2Store{client: client, bucket: cfg.Bucket}, nil
}

// WithBucket returns a store targeting a different bucket with the same
// credentials
func (s *R2Store) WithBucket(bucket string) *R2Store {
	return &R2Store{client: s.client, bucket: bucket}
}

// VideoKey returns the object key for a product's video
func VideoKey(productCode string) string {
	return productCode + ".mp4"
}

// HangtagKey returns the object key for a product's n-th hangtag photo,
// counted from 1
func HangtagKey(productCode string, n int) string {
	return fmt.Sprintf("%s/hangtag_%d.jpg", productCode, n)
}

// UploadVideo stores a product video under <code>.mp4 and returns the key
func (s *R2Store) UploadVideo(ctx context.Context, productCode string, body io.Reader) (string, error) {
	key := VideoKey(productCode)
	if err := s.Upload(ctx, key, body, "video/mp4"); err != nil {
		return "", err
	}
	return key, nil
}

// Upload stores an object under the given key
func (s *R2Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Get streams an object back; the caller must close the reader
func (s *R2Store) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get %s: %w", key, err)
	}

	contentType := "application/octet-stream"
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return out.Body, contentType, nil
}

// Delete removes an object
func (s *R2Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
