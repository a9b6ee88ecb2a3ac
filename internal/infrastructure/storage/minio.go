package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
	"github.com/johnquangdev/meeting-functions/pkg/config"
)

// MinIOClient wraps MinIO operations for the transcript archive
type MinIOClient struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

// NewMinIOClient creates a new MinIO client and makes sure the bucket exists
func NewMinIOClient(ctx context.Context, cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client: minioClient,
		bucket: cfg.BucketName,
		now:    time.Now,
	}

	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

// ensureBucket creates the bucket when it does not exist. Objects stay private.
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ArchiveTranscript stores the raw gateway transcript and returns its bucket/object location
func (m *MinIOClient) ArchiveTranscript(ctx context.Context, meetingID, transcript string) (string, error) {
	objectName := transcriptObjectName(meetingID, m.now())
	content := []byte(transcript)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentTypeOf(content),
		UserMetadata: map[string]string{
			"meeting-id": meetingID,
		},
	})
	if err != nil {
		return "", apperrors.ErrStorageFailed("archive transcript", err)
	}

	return m.bucket + "/" + objectName, nil
}

// transcriptObjectName keys archives by meeting so every fetch attempt is kept
func transcriptObjectName(meetingID string, at time.Time) string {
	return fmt.Sprintf("transcripts/%s/%s.json", meetingID, at.UTC().Format("20060102T150405.000Z"))
}

func contentTypeOf(content []byte) string {
	if json.Valid(content) {
		return "application/json"
	}
	return "text/plain"
}
