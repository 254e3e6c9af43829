package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	cfg "github.com/clauselens/docserver/config"
	"github.com/clauselens/docserver/pkg/logger"
)

type minioStore struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
	logger   logger.Logger
}

// NewMinioStore builds the MinIO-backed blob store from environment
// config, creating the bucket when it does not exist yet.
func NewMinioStore(maxBytes int64, log logger.Logger) (BlobStore, error) {
	minioConfig := cfg.GetMinioConfig()
	if minioConfig.BucketName == "" {
		return nil, fmt.Errorf("missing MINIO_BUCKET_NAME configuration")
	}

	client, err := minio.New(minioConfig.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioConfig.AccessKey, minioConfig.SecretKey, ""),
		Secure: minioConfig.UseSSL,
		Region: minioConfig.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), minioConfig.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		err = client.MakeBucket(context.Background(), minioConfig.BucketName, minio.MakeBucketOptions{
			Region: minioConfig.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &minioStore{
		client:   client,
		bucket:   minioConfig.BucketName,
		maxBytes: maxBytes,
		logger:   log,
	}, nil
}

func (m *minioStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if int64(len(data)) > m.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(data), m.maxBytes)
	}

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		m.logger.Error("Failed to store object in MinIO",
			logger.String("bucket", m.bucket),
			logger.String("key", key),
			logger.Error(err),
		)
		return "", fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
	}

	return Locator(m.bucket, key), nil
}

func (m *minioStore) Get(ctx context.Context, locator string) ([]byte, error) {
	bucket, key, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		m.logger.Error("Failed to read object from MinIO",
			logger.String("bucket", bucket),
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}
	return data, nil
}

func (m *minioStore) Delete(ctx context.Context, locator string) error {
	bucket, key, err := ParseLocator(locator)
	if err != nil {
		return err
	}

	if err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}
