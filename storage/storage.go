package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage archives submitted documents so past evaluations can be
// inspected. Paths returned by Put are opaque keys understood by Get and
// Delete.
type Storage interface {
	// Put stores a document under the evaluation id and returns its archive path.
	Put(ctx context.Context, evaluationID uuid.UUID, filename string, data io.Reader) (string, error)

	// Get retrieves an archived document by path.
	Get(ctx context.Context, archivePath string) (io.ReadCloser, error)

	// Delete removes an archived document by path.
	Delete(ctx context.Context, archivePath string) error
}

// BackendType represents the archive backend type.
type BackendType string

const (
	BackendLocal BackendType = "local"
	BackendS3    BackendType = "s3"
)

// Config holds configuration for the document archive.
type Config struct {
	Backend      BackendType
	LocalPath    string // for local archive
	S3Bucket     string // for S3 archive
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates an archive for the configured backend.
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocalStorage(cfg.LocalPath)
	case BackendS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// NewStorageFromEnv creates an archive from environment variables. The local
// backend is the default for development.
func NewStorageFromEnv() (Storage, error) {
	backend := os.Getenv("STORAGE_BACKEND")
	if backend == "" {
		backend = string(BackendLocal)
	}

	switch BackendType(backend) {
	case BackendLocal:
		localPath := os.Getenv("DOCUMENT_ARCHIVE_PATH")
		if localPath == "" {
			localPath = "./storage/documents"
		}
		return NewLocalStorage(localPath)

	case BackendS3:
		cfg := Config{
			Backend:      BackendS3,
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Region:     os.Getenv("AWS_REGION"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3Storage(cfg)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

// archivePath builds the key for a stored document. The evaluation id keeps
// keys unique, the sanitized filename keeps them readable.
func archivePath(evaluationID uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.ReplaceAll(base, "/", "_")
	base = strings.ReplaceAll(base, "\\", "_")

	return fmt.Sprintf("%s/%s%s", evaluationID.String(), base, ext)
}
