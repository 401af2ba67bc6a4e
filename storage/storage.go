// Package storage persists uploaded contract documents outside the
// database. The backend is chosen by environment at startup; documents are
// addressed by an opaque key recorded on the document row.
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

// ErrNotFound is returned when a storage key resolves to no stored document
var ErrNotFound = errors.New("document not found in storage")

// Storage persists uploaded contract files
type Storage interface {
	// Upload stores a document's contents and returns its storage key
	Upload(ctx context.Context, docID uuid.UUID, filename, mimeType string, data io.Reader) (string, error)

	// Download streams a stored document; the caller closes the reader
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a stored document. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Backend names a storage implementation
type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
)

// Config selects and parameterizes the storage backend
type Config struct {
	Backend      Backend
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// New creates the storage backend described by cfg
func New(cfg Config) (Storage, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocalStorage(cfg.LocalPath)
	case BackendS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// NewStorageFromEnv builds the backend selected by STORAGE_TYPE. Local
// storage is the default so a development deployment needs no configuration.
func NewStorageFromEnv() (Storage, error) {
	backend := Backend(os.Getenv("STORAGE_TYPE"))
	if backend == "" {
		backend = BackendLocal
	}

	switch backend {
	case BackendLocal:
		localPath := os.Getenv("STORAGE_LOCAL_PATH")
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
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		return NewS3Storage(cfg)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

// documentKey derives the object key for a document. The document id keeps
// keys collision-free and its two-character prefix spreads objects across
// directories; only the extension of the client filename is trusted.
func documentKey(docID uuid.UUID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	id := docID.String()
	return fmt.Sprintf("documents/%s/%s%s", id[:2], id, ext)
}
