// Package storage archives rendered reports in S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ParadiseToken/solhydra/internal/domain/runs"
)

type Store struct {
	client *minio.Client
	bucket string

	// Presign, when positive, makes Upload return a presigned GET URL valid
	// for that long instead of the plain object URL.
	Presign time.Duration
}

var _ runs.ArtifactStore = (*Store)(nil)

// New connects and creates bucket when it is missing.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	ok, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket %s: %w", bucket, err)
	}
	if !ok {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", bucket, err)
		}
	}
	return &Store{client: cli, bucket: bucket}, nil
}

// Upload stores localPath under key and returns a URL for it.
func (s *Store) Upload(ctx context.Context, localPath, key string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType(localPath)}
	if _, err := s.client.FPutObject(ctx, s.bucket, key, localPath, opts); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if s.Presign > 0 {
		u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.Presign, nil)
		if err != nil {
			return "", fmt.Errorf("presign %s: %w", key, err)
		}
		return u.String(), nil
	}
	return s.client.EndpointURL().JoinPath(s.bucket, key).String(), nil
}

func contentType(localPath string) string {
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
