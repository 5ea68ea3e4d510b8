package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// BlobStore uploads opaque blobs and returns a URL clients can fetch
// them from. The asset mirror is its only producer; implementations may
// be local disk, object storage, or a CDN origin.
type BlobStore interface {
	// Upload stores data under key and returns its public URL.
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Delete removes the blob stored under key.
	Delete(ctx context.Context, key string) error
}

// LocalBlobStore stores blobs on the local filesystem inside a Sandbox
// and serves them from a configured public base URL.
type LocalBlobStore struct {
	sandbox *Sandbox
	baseURL string
}

// NewLocalBlobStore creates a blob store rooted at dir. publicBaseURL is
// the externally reachable prefix returned from Upload.
func NewLocalBlobStore(dir, publicBaseURL string) (*LocalBlobStore, error) {
	sandbox, err := NewSandbox(dir)
	if err != nil {
		return nil, fmt.Errorf("creating asset sandbox: %w", err)
	}
	return &LocalBlobStore{
		sandbox: sandbox,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Upload writes the blob atomically and returns its public URL.
func (s *LocalBlobStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("empty blob key")
	}

	if err := s.sandbox.AtomicWrite(filepath.FromSlash(key), data); err != nil {
		return "", fmt.Errorf("storing blob %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes the blob stored under key.
func (s *LocalBlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.sandbox.Remove(filepath.FromSlash(strings.TrimLeft(key, "/"))); err != nil {
		return fmt.Errorf("deleting blob %s: %w", key, err)
	}
	return nil
}

// ExtensionFromContentType returns the file extension for an image
// content type, empty for unknown types. Parameters after a semicolon
// are ignored.
func ExtensionFromContentType(contentType string) string {
	contentType = strings.Split(contentType, ";")[0]
	contentType = strings.TrimSpace(strings.ToLower(contentType))

	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ""
	}
}

// ContentTypeFromPath guesses the content type from a file path extension.
func ContentTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
