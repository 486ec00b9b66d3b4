package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/mapaction/mapimporter/internal/retry"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig addresses an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	// PublicURL overrides the base of returned URLs, e.g. a CDN in front of the bucket.
	PublicURL string
}

// MinioStore keeps blobs in an S3-compatible bucket.
type MinioStore struct {
	client   *minio.Client
	config   MinioConfig
	executor *retry.Executor
}

// NewMinioStore creates a client for cfg. No request is made until EnsureBucket or Put.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires endpoint and bucket: %w", mapimporter.ErrInvalidConfig)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	executor := retry.NewExecutor(
		retry.NetworkErrorClassifier{},
		retry.NewExponentialBackoff(mapimporter.DefaultRetryMaxAttempts,
			retry.WithInitialDelay(mapimporter.DefaultRetryInitialDelay),
			retry.WithMaxDelay(5*time.Second),
		),
	)

	return &MinioStore{client: client, config: cfg, executor: executor}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	return s.executor.Execute(ctx, func(ctx context.Context) error {
		exists, err := s.client.BucketExists(ctx, s.config.Bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", s.config.Bucket, err)
		}
		if exists {
			return nil
		}
		if err := s.client.MakeBucket(ctx, s.config.Bucket, minio.MakeBucketOptions{Region: s.config.Region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.config.Bucket, err)
		}
		return nil
	})
}

// Put uploads the file at src as object key.
func (s *MinioStore) Put(ctx context.Context, key string, src string) (string, error) {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(src)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		_, err := s.client.FPutObject(ctx, s.config.Bucket, key, src, minio.PutObjectOptions{ContentType: contentType})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes object key.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		return s.client.RemoveObject(ctx, s.config.Bucket, key, minio.RemoveObjectOptions{})
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// URL returns the address of object key.
func (s *MinioStore) URL(key string) string {
	base := s.config.PublicURL
	if base == "" {
		base = s.client.EndpointURL().String() + "/" + s.config.Bucket
	}
	u, err := url.JoinPath(base, strings.Split(key, "/")...)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + key
	}
	return u
}

var _ mapimporter.BlobStore = (*MinioStore)(nil)
