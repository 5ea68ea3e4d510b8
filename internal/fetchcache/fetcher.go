// Package fetchcache downloads EPG documents and caches them on disk.
//
// The cache favors availability over freshness: a failed download falls
// back to any cached copy, however stale, because a source syncs at most
// once per freshness window and an old schedule beats no schedule.
package fetchcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/guidesync/guidesync/pkg/httpclient"
)

// Config holds fetcher configuration.
type Config struct {
	// Dir is the cache directory. Created on first use.
	Dir string

	// Freshness is how long a cached document is reused without
	// refetching.
	Freshness time.Duration

	// Timeout bounds the document download. EPG feeds can be tens of
	// megabytes, so this should be generous.
	Timeout time.Duration

	// UserAgent identifies the client on feed requests.
	UserAgent string

	// Logger for fetch and fallback events.
	Logger *slog.Logger
}

// Fetcher retrieves EPG documents with disk caching.
type Fetcher struct {
	client    *httpclient.Client
	dir       string
	freshness time.Duration
	logger    *slog.Logger

	// now is swappable for freshness tests.
	now func() time.Time
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Freshness <= 0 {
		cfg.Freshness = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := httpclient.New(httpclient.Config{
		Timeout:             cfg.Timeout,
		UserAgent:           cfg.UserAgent,
		Logger:              cfg.Logger,
		EnableDecompression: true,
	})

	return &Fetcher{
		client:    client,
		dir:       cfg.Dir,
		freshness: cfg.Freshness,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// CacheKey derives the cache file name for a URL: every character outside
// [A-Za-z0-9_] becomes an underscore, the result is truncated to its last
// 50 characters, and an .xml suffix is appended. Collisions between very
// long URLs sharing a tail are tolerated; sources are keyed by URL, not by
// the derived name.
func CacheKey(url string) string {
	mapped := make([]byte, 0, len(url))
	for i := 0; i < len(url); i++ {
		c := url[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			mapped = append(mapped, c)
		default:
			mapped = append(mapped, '_')
		}
	}
	if len(mapped) > 50 {
		mapped = mapped[len(mapped)-50:]
	}
	return string(mapped) + ".xml"
}

// Fetch returns a local path to the document for url. A cached copy
// younger than the freshness window is reused unless force is set. On any
// download error an existing cached copy, even a stale one, is returned;
// with no cached copy the download error is terminal.
func (f *Fetcher) Fetch(ctx context.Context, url string, force bool) (path string, fromCache bool, err error) {
	path = filepath.Join(f.dir, CacheKey(url))

	if info, statErr := os.Stat(path); statErr == nil {
		age := f.now().Sub(info.ModTime())
		if !force && age < f.freshness {
			f.logger.Debug("using cached EPG document",
				slog.String("url", url),
				slog.String("path", path),
				slog.Duration("age", age),
			)
			return path, true, nil
		}
	}

	if err := f.download(ctx, url, path); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			f.logger.Warn("EPG download failed, falling back to stale cache",
				slog.String("url", url),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return path, true, nil
		}
		return "", false, fmt.Errorf("downloading %s: %w", url, err)
	}

	return path, false, nil
}

// download fetches url and writes the body to path. The body lands in a
// temp file first and is renamed into place only once fully read, so a
// download that dies mid-body never clobbers a previously cached copy.
func (f *Fetcher) download(ctx context.Context, url, path string) error {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	file, err := os.CreateTemp(f.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tempPath := file.Name()

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("committing cache file: %w", err)
	}

	f.logger.Info("EPG document downloaded",
		slog.String("url", url),
		slog.String("path", path),
		slog.Int64("bytes", written),
	)
	return nil
}

// Open opens a fetched document for reading.
func (f *Fetcher) Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cached document: %w", err)
	}
	return file, nil
}
