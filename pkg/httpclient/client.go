// Package httpclient provides an HTTP client with transparent response
// decompression, response size limits, and structured logging.
//
// The client wraps the standard http.Client and adds:
//   - Transparent decompression (gzip, deflate, brotli)
//   - A post-decompression response size limit
//   - Structured request logging
//
// There is deliberately no retry or circuit-breaker layer: callers treat a
// failed fetch as terminal and rely on their own cadence (scheduled runs,
// cached copies) for recovery.
package httpclient

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// ErrResponseTooLarge is returned when a response body exceeds the
// configured maximum size.
var ErrResponseTooLarge = errors.New("response body exceeds maximum size limit")

// Default configuration values.
const (
	DefaultTimeout              = 30 * time.Second
	DefaultMaxResponseSize      = 0 // 0 means no limit
	DefaultAcceptEncodingHeader = "gzip, deflate, br"
	DefaultUserAgentHeader      = "guidesync-httpclient/1.0"
)

// HTTP header constants.
const (
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderContentEncoding = "Content-Encoding"
	HeaderUserAgent       = "User-Agent"

	EncodingGzip    = "gzip"
	EncodingDeflate = "deflate"
	EncodingBrotli  = "br"
)

// Config holds the configuration for the HTTP client.
type Config struct {
	// Timeout is the overall request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// Logger is the structured logger for request/response logging.
	Logger *slog.Logger

	// EnableDecompression enables automatic response decompression.
	EnableDecompression bool

	// MaxResponseSize is the maximum allowed response body size in bytes.
	// The limit is applied AFTER decompression to protect against zip
	// bombs. Set to 0 to disable the limit (default).
	MaxResponseSize int64

	// BaseClient is the underlying http.Client to use.
	// If nil, a default client is created.
	BaseClient *http.Client
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:             DefaultTimeout,
		UserAgent:           DefaultUserAgentHeader,
		Logger:              slog.Default(),
		EnableDecompression: true,
		MaxResponseSize:     DefaultMaxResponseSize,
	}
}

// Client is an HTTP client with transparent decompression and size limits.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new Client with the given configuration.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgentHeader
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	base := cfg.BaseClient
	if base == nil {
		// Compression is negotiated explicitly so the transport's
		// automatic gzip handling must be off.
		base = &http.Client{
			Transport: &http.Transport{DisableCompression: true},
		}
	}
	base.Timeout = cfg.Timeout

	return &Client{
		config: cfg,
		client: base,
		logger: cfg.Logger,
	}
}

// Do executes an HTTP request, decorating it with the configured headers
// and wrapping the response body with decompression and size limiting.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderUserAgent) == "" {
		req.Header.Set(HeaderUserAgent, c.config.UserAgent)
	}
	if c.config.EnableDecompression && req.Header.Get(HeaderAcceptEncoding) == "" {
		req.Header.Set(HeaderAcceptEncoding, DefaultAcceptEncodingHeader)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Debug("request failed",
			slog.String("url", req.URL.String()),
			slog.String("method", req.Method),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Debug("request completed",
		slog.String("url", req.URL.String()),
		slog.String("method", req.Method),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
		slog.Int64("content_length", resp.ContentLength),
	)

	if c.config.EnableDecompression {
		resp.Body = c.wrapDecompression(resp)
	}

	if c.config.MaxResponseSize > 0 {
		resp.Body = newLimitedReader(resp.Body, c.config.MaxResponseSize)
	}

	return resp, nil
}

// Get performs a GET request to the specified URL.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.Do(req)
}

// StandardClient returns a standard *http.Client that routes through this
// client, for code that only accepts an *http.Client.
func (c *Client) StandardClient() *http.Client {
	return &http.Client{
		Transport: &clientTransport{client: c},
		Timeout:   c.config.Timeout,
	}
}

// clientTransport implements http.RoundTripper using the wrapping client.
type clientTransport struct {
	client *Client
}

// RoundTrip implements http.RoundTripper.
func (t *clientTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.client.Do(req)
}

var _ http.RoundTripper = (*clientTransport)(nil)

// wrapDecompression wraps the response body with appropriate decompression.
func (c *Client) wrapDecompression(resp *http.Response) io.ReadCloser {
	encoding := resp.Header.Get(HeaderContentEncoding)
	if encoding == "" {
		return resp.Body
	}

	switch strings.ToLower(encoding) {
	case EncodingGzip:
		reader, err := gzip.NewReader(resp.Body)
		if err != nil {
			c.logger.Warn("failed to create gzip reader, returning raw body",
				slog.String("error", err.Error()),
			)
			return resp.Body
		}
		return &decompressReader{reader: reader, closer: resp.Body}

	case EncodingDeflate:
		reader := flate.NewReader(resp.Body)
		return &decompressReader{reader: reader, closer: resp.Body}

	case EncodingBrotli:
		reader := brotli.NewReader(resp.Body)
		return &decompressReader{reader: reader, closer: resp.Body}

	default:
		c.logger.Debug("unknown content encoding, returning raw body",
			slog.String("encoding", encoding),
		)
		return resp.Body
	}
}

// decompressReader wraps a decompression reader with the original body closer.
type decompressReader struct {
	reader io.Reader
	closer io.Closer
}

func (d *decompressReader) Read(p []byte) (int, error) {
	return d.reader.Read(p)
}

func (d *decompressReader) Close() error {
	if closer, ok := d.reader.(io.Closer); ok {
		closer.Close()
	}
	return d.closer.Close()
}

// limitedReader wraps a reader with a maximum size limit.
// It returns ErrResponseTooLarge when the limit is exceeded.
type limitedReader struct {
	reader    io.Reader
	closer    io.Closer
	remaining int64
	exceeded  bool
}

func newLimitedReader(r io.ReadCloser, limit int64) *limitedReader {
	return &limitedReader{
		reader:    r,
		closer:    r,
		remaining: limit,
	}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, ErrResponseTooLarge
	}

	n, err := l.reader.Read(p)
	l.remaining -= int64(n)

	if l.remaining < 0 {
		l.exceeded = true
		return n, ErrResponseTooLarge
	}

	return n, err
}

func (l *limitedReader) Close() error {
	return l.closer.Close()
}
