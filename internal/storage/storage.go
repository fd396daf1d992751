package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/config"
)

// Key prefixes for uploaded objects.
const (
	PrefixComplaintAttachments = "complaints/attachments"
	PrefixResolutionImages     = "complaints/resolutions"
	PrefixAnnouncementImages   = "announcements"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

var allowedContentTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object describes a stored file.
type Object struct {
	Key         string
	FileName    string
	ContentType string
	Size        int64
}

// ObjectStore persists uploaded files.
type ObjectStore interface {
	Put(ctx context.Context, prefix string, upload Upload) (Object, error)
	Remove(ctx context.Context, key string) error
}

// MinioStore stores objects in an S3-compatible bucket.
type MinioStore struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
	logger   *zap.Logger
}

// NewMinioStore builds a client for the configured endpoint. It does not
// contact the server; call EnsureBucket for that.
func NewMinioStore(cfg config.StorageConfig, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &MinioStore{
		client:   client,
		bucket:   cfg.Bucket,
		maxBytes: cfg.MaxFileBytes(),
		logger:   logger,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created storage bucket", zap.String("bucket", s.bucket))
	return nil
}

// Put validates and uploads a file under prefix.
func (s *MinioStore) Put(ctx context.Context, prefix string, upload Upload) (Object, error) {
	if err := ValidateUpload(upload, s.maxBytes); err != nil {
		return Object{}, err
	}
	key := ObjectKey(prefix, upload.FileName)
	info, err := s.client.PutObject(ctx, s.bucket, key, upload.Body, upload.Size, minio.PutObjectOptions{
		ContentType: upload.ContentType,
	})
	if err != nil {
		return Object{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return Object{
		Key:         key,
		FileName:    upload.FileName,
		ContentType: upload.ContentType,
		Size:        info.Size,
	}, nil
}

// Remove deletes an object. Missing objects are not an error.
func (s *MinioStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// ValidateUpload checks size and content type.
func ValidateUpload(upload Upload, maxBytes int64) error {
	if upload.Size <= 0 {
		return ErrEmptyFile
	}
	if maxBytes > 0 && upload.Size > maxBytes {
		return ErrFileTooLarge
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(upload.ContentType, ";", 2)[0]))
	if _, ok := allowedContentTypes[contentType]; !ok {
		return ErrUnsupportedType
	}
	return nil
}

// ObjectKey builds a collision-free key that keeps the original extension.
func ObjectKey(prefix, fileName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+ext)
}
