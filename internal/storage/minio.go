package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"printdesk/internal/config"
)

// minioStorage keeps originals and artifacts in one S3-compatible bucket.
// It is safe for concurrent use.
type minioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIO connects to the bucket named in cfg, creating it when missing.
// Outgoing S3 calls are traced through otelhttp.
func NewMinIO(cfg config.MinIOConfig) (Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	base, err := minio.DefaultTransport(cfg.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("minio transport: %w", err)
	}
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: otelhttp.NewTransport(base),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ms := &minioStorage{client: cli, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ms.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return ms, nil
}

func (m *minioStorage) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		// Another replica may have won the race.
		if minio.ToErrorResponse(err).Code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Put streams r into the bucket. A negative opt.Size lets the client chunk the upload.
func (m *minioStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	info, err := m.client.PutObject(ctx, m.bucket, key, r, opt.Size, minio.PutObjectOptions{
		ContentType:  opt.ContentType,
		UserMetadata: opt.Metadata,
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("put %s: %w", key, err)
	}
	modified := info.LastModified
	if modified.IsZero() {
		modified = time.Now()
	}
	return ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  opt.ContentType,
		LastModified: modified,
		Metadata:     opt.Metadata,
	}, nil
}

// Get returns the object body. The caller closes it.
func (m *minioStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, translateMinIOError(err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, ObjectInfo{}, translateMinIOError(err)
	}
	return obj, ObjectInfo{
		Key:          key,
		Size:         st.Size,
		ETag:         st.ETag,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
		Metadata:     st.UserMetadata,
	}, nil
}

// Delete removes key. S3 deletes are idempotent, so a missing key is detected
// with a stat first to honour ErrNotFound.
func (m *minioStorage) Delete(ctx context.Context, key string) error {
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		return translateMinIOError(err)
	}
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func translateMinIOError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return ErrNotFound
	}
	return err
}
