package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/guidesync/guidesync/internal/ingest"
	"github.com/guidesync/guidesync/internal/repository"
	"github.com/guidesync/guidesync/pkg/httpclient"
	"github.com/guidesync/guidesync/pkg/m3u"
)

// PlaylistImportResult summarizes a playlist import.
type PlaylistImportResult struct {
	EntriesParsed int                     `json:"entries_parsed"`
	Upserted      int                     `json:"upserted"`
	Previews      []ingest.ChannelPreview `json:"previews"`
	// Errors collects skipped malformed lines; the import still runs.
	Errors []string `json:"errors,omitempty"`
}

// PlaylistService ingests M3U playlists into the channel catalog.
type PlaylistService struct {
	channelRepo repository.ChannelRepository
	client      *httpclient.Client
	listCache   *ListCache
	logger      *slog.Logger
}

// NewPlaylistService creates a playlist service. client performs remote
// playlist downloads.
func NewPlaylistService(channelRepo repository.ChannelRepository, client *httpclient.Client) *PlaylistService {
	return &PlaylistService{
		channelRepo: channelRepo,
		client:      client,
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *PlaylistService) WithLogger(logger *slog.Logger) *PlaylistService {
	s.logger = logger
	return s
}

// WithListCache sets the channel list cache invalidated on catalog
// changes.
func (s *PlaylistService) WithListCache(cache *ListCache) *PlaylistService {
	s.listCache = cache
	return s
}

// Preview parses playlist content and returns channel previews without
// touching the catalog. filename gates on the .m3u/.m3u8 extension.
func (s *PlaylistService) Preview(filename string, data []byte) (*PlaylistImportResult, error) {
	if err := ingest.ValidateFilename(filename); err != nil {
		return nil, err
	}
	return s.parse(data)
}

// PreviewURL downloads a remote playlist and returns channel previews.
// The URL path is not required to carry an M3U extension; remote
// playlist endpoints frequently do not.
func (s *PlaylistService) PreviewURL(ctx context.Context, url string) (*PlaylistImportResult, error) {
	data, err := s.download(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.parse(data)
}

// Import parses an uploaded playlist and upserts its channels into a
// tenant's catalog. selection optionally restricts which preview ids are
// imported; nil imports all.
func (s *PlaylistService) Import(ctx context.Context, tenantID, filename string, data []byte, selection []string) (*PlaylistImportResult, error) {
	result, err := s.Preview(filename, data)
	if err != nil {
		return nil, err
	}
	return s.upsert(ctx, tenantID, result, selection)
}

// ImportURL downloads a remote playlist and upserts its channels into a
// tenant's catalog.
func (s *PlaylistService) ImportURL(ctx context.Context, tenantID, url string, selection []string) (*PlaylistImportResult, error) {
	result, err := s.PreviewURL(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.upsert(ctx, tenantID, result, selection)
}

func (s *PlaylistService) parse(data []byte) (*PlaylistImportResult, error) {
	result := &PlaylistImportResult{}

	parser := &m3u.Parser{
		OnError: func(lineNum int, err error) {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
		},
	}

	var entries []*m3u.Entry
	parser.OnEntry = func(entry *m3u.Entry) error {
		entries = append(entries, entry)
		return nil
	}

	if err := parser.Parse(strings.NewReader(ingest.DecodeText(data))); err != nil {
		return nil, fmt.Errorf("parsing playlist: %w", err)
	}

	result.EntriesParsed = len(entries)
	result.Previews = ingest.BuildPreviews(entries)
	return result, nil
}

func (s *PlaylistService) upsert(ctx context.Context, tenantID string, result *PlaylistImportResult, selection []string) (*PlaylistImportResult, error) {
	channels := ingest.ChannelsFromPreviews(tenantID, result.Previews, selection)
	if len(channels) == 0 {
		return result, nil
	}

	if err := s.channelRepo.UpsertBatch(ctx, channels); err != nil {
		return nil, fmt.Errorf("upserting channels: %w", err)
	}
	result.Upserted = len(channels)

	if s.listCache != nil {
		s.listCache.Invalidate(tenantID)
	}

	s.logger.Info("playlist imported",
		"tenant_id", tenantID,
		"entries", result.EntriesParsed,
		"upserted", result.Upserted,
		"skipped_lines", len(result.Errors),
	)

	return result, nil
}

func (s *PlaylistService) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("downloading playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("downloading playlist: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	return data, nil
}
