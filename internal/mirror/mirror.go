// Package mirror downloads remote channel artwork and re-uploads it
// through the blob store, yielding an internally served URL.
//
// Mirroring is strictly best-effort: any failure reports a skipped
// outcome and the caller keeps whatever URL it already had. A broken
// logo must never fail the enclosing sync.
package mirror

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guidesync/guidesync/internal/storage"
	"github.com/guidesync/guidesync/pkg/httpclient"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Outcome reports what happened to a mirror attempt.
type Outcome int

const (
	// OutcomeMirrored means the asset was uploaded and an internal URL
	// was produced.
	OutcomeMirrored Outcome = iota
	// OutcomeSkipped means the attempt failed or the content was
	// unsupported; the caller falls back to the remote URL.
	OutcomeSkipped
)

// String returns the outcome name.
func (o Outcome) String() string {
	if o == OutcomeMirrored {
		return "mirrored"
	}
	return "skipped"
}

// Config holds mirror configuration.
type Config struct {
	// Timeout bounds the artwork download.
	Timeout time.Duration

	// MaxBytes caps the downloaded asset size. 0 means no cap.
	MaxBytes int64

	// UserAgent identifies the client on artwork requests.
	UserAgent string

	// Logger for mirror outcomes.
	Logger *slog.Logger
}

// Mirror downloads remote images and uploads them to a BlobStore.
type Mirror struct {
	client *httpclient.Client
	store  storage.BlobStore
	logger *slog.Logger
}

// New creates a Mirror uploading through store.
func New(cfg Config, store storage.BlobStore) *Mirror {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := httpclient.New(httpclient.Config{
		Timeout:             cfg.Timeout,
		UserAgent:           cfg.UserAgent,
		Logger:              cfg.Logger,
		EnableDecompression: true,
		MaxResponseSize:     cfg.MaxBytes,
	})

	return &Mirror{
		client: client,
		store:  store,
		logger: cfg.Logger,
	}
}

// MirrorImage downloads remoteURL and uploads it under prefix, returning
// the internal URL. On any failure it returns an empty URL and
// OutcomeSkipped.
func (m *Mirror) MirrorImage(ctx context.Context, remoteURL, prefix string) (string, Outcome) {
	if strings.TrimSpace(remoteURL) == "" {
		return "", OutcomeSkipped
	}

	data, contentType, err := m.download(ctx, remoteURL)
	if err != nil {
		m.logger.Warn("artwork download failed",
			slog.String("url", remoteURL),
			slog.String("error", err.Error()),
		)
		return "", OutcomeSkipped
	}

	ext := resolveExtension(contentType, remoteURL)
	if ext == "" {
		m.logger.Warn("unsupported artwork content type",
			slog.String("url", remoteURL),
			slog.String("content_type", contentType),
		)
		return "", OutcomeSkipped
	}

	// Dimension probe: informational only, and meaningless for SVG.
	if ext != ".svg" {
		if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			m.logger.Debug("artwork probed",
				slog.String("url", remoteURL),
				slog.String("format", format),
				slog.Int("width", cfg.Width),
				slog.Int("height", cfg.Height),
			)
		}
	}

	key := fmt.Sprintf("%s/%x%s", strings.Trim(prefix, "/"), uuid.New(), ext)
	internalURL, err := m.store.Upload(ctx, key, storage.ContentTypeFromPath(key), data)
	if err != nil {
		m.logger.Warn("artwork upload failed",
			slog.String("url", remoteURL),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return "", OutcomeSkipped
	}

	m.logger.Debug("artwork mirrored",
		slog.String("url", remoteURL),
		slog.String("internal_url", internalURL),
	)
	return internalURL, OutcomeMirrored
}

// download fetches the artwork and returns its bytes and content type.
func (m *Mirror) download(ctx context.Context, remoteURL string) ([]byte, string, error) {
	resp, err := m.client.Get(ctx, remoteURL)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// resolveExtension picks the stored file extension: the content-type
// table first, overridden by a recognized extension in the URL path
// (jpeg normalized to jpg). Empty when neither source yields a known
// image type.
func resolveExtension(contentType, remoteURL string) string {
	ext := storage.ExtensionFromContentType(contentType)

	if u, err := url.Parse(remoteURL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".jpeg", ".jpg":
			ext = ".jpg"
		case ".png":
			ext = ".png"
		case ".gif":
			ext = ".gif"
		case ".webp":
			ext = ".webp"
		case ".svg":
			ext = ".svg"
		}
	}

	return ext
}
