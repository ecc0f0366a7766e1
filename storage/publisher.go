package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"VerseClash/logger"

	"github.com/minio/minio-go/v7"
)

// MinioPublisher uploads finished mixes to MinIO and mints fetchable URLs.
type MinioPublisher struct {
	client     *minio.Client
	bucket     string
	publicBase string
	urlExpiry  time.Duration
}

// NewMinioPublisher creates a publisher for the given bucket.
// When publicBase is non-empty the bucket is assumed public-read and
// URLs are built directly; otherwise a presigned GET URL with the
// configured expiry is returned.
func NewMinioPublisher(client *minio.Client, bucket, publicBase string, urlExpiry time.Duration) *MinioPublisher {
	return &MinioPublisher{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		urlExpiry:  urlExpiry,
	}
}

// Publish uploads the file at localPath under the given object key and
// returns a URL the client can fetch without further auth calls.
// Repeated publication for the same key overwrites the previous object.
func (p *MinioPublisher) Publish(ctx context.Context, localPath, key, contentType string) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType: contentType,
	}

	info, err := p.client.FPutObject(ctx, p.bucket, key, localPath, opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to %s/%s: %w", localPath, p.bucket, key, err)
	}

	logger.Info("Published object",
		logger.String("bucket", p.bucket),
		logger.String("key", key),
		logger.Int64("size", info.Size))

	if p.publicBase != "" {
		return fmt.Sprintf("%s/%s/%s", p.publicBase, p.bucket, key), nil
	}

	signed, err := p.client.PresignedGetObject(ctx, p.bucket, key, p.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign URL for %s/%s: %w", p.bucket, key, err)
	}
	return signed.String(), nil
}
