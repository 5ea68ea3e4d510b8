package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/guidesync/guidesync/internal/config"
	"github.com/guidesync/guidesync/internal/fetchcache"
	"github.com/guidesync/guidesync/internal/mirror"
	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/internal/reconcile"
	"github.com/guidesync/guidesync/internal/repository"
	"github.com/guidesync/guidesync/internal/schedule"
	"github.com/guidesync/guidesync/pkg/xmltv"
)

// logoKeyPrefix is the blob store prefix for mirrored channel logos.
const logoKeyPrefix = "logos"

// SyncRequest describes one sync run.
type SyncRequest struct {
	SourceID models.ULID
	TenantID string
	// Force bypasses the freshness window and refetches the feed.
	Force bool
}

// SyncResult summarizes what one sync run did.
type SyncResult struct {
	ChannelsParsed  int                  `json:"channels_parsed"`
	ProgramsParsed  int                  `json:"programs_parsed"`
	MappingsApplied int                  `json:"mappings_applied"`
	LogosMirrored   int                  `json:"logos_mirrored"`
	FromCache       bool                 `json:"from_cache"`
	Write           schedule.WriteResult `json:"write"`
	// Errors collects non-fatal problems: recoverable parse errors and
	// per-channel mapping failures. The run still completes.
	Errors []string `json:"errors,omitempty"`
}

// SyncService runs the EPG sync pipeline: fetch, parse, reconcile,
// mirror logos, write schedule entries.
type SyncService struct {
	sourceRepo   repository.EpgSourceRepository
	channelRepo  repository.ChannelRepository
	fetcher      *fetchcache.Fetcher
	mirrorer     *mirror.Mirror
	writer       *schedule.Writer
	listCache    *ListCache
	reconcileCfg config.ReconcileConfig
	defaultLang  string
	logger       *slog.Logger
}

// NewSyncService creates a sync service.
func NewSyncService(
	sourceRepo repository.EpgSourceRepository,
	channelRepo repository.ChannelRepository,
	fetcher *fetchcache.Fetcher,
	mirrorer *mirror.Mirror,
	writer *schedule.Writer,
	reconcileCfg config.ReconcileConfig,
	defaultLang string,
) *SyncService {
	return &SyncService{
		sourceRepo:   sourceRepo,
		channelRepo:  channelRepo,
		fetcher:      fetcher,
		mirrorer:     mirrorer,
		writer:       writer,
		reconcileCfg: reconcileCfg,
		defaultLang:  defaultLang,
		logger:       slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *SyncService) WithLogger(logger *slog.Logger) *SyncService {
	s.logger = logger
	return s
}

// WithListCache sets the channel list cache invalidated on mapping
// changes.
func (s *SyncService) WithListCache(cache *ListCache) *SyncService {
	s.listCache = cache
	return s
}

// Sync runs the full pipeline for one EPG source. The returned error is
// a *SyncError identifying the failed step; partial per-channel failures
// are reported in the result instead. The sync outcome is recorded on
// the source either way.
func (s *SyncService) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	source, err := s.sourceRepo.GetByID(ctx, req.SourceID)
	if err != nil {
		return nil, fmt.Errorf("getting EPG source: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("EPG source %s not found", req.SourceID)
	}

	started := time.Now()
	result, err := s.run(ctx, req.TenantID, source.URL, req.Force)
	if err != nil {
		if recErr := s.sourceRepo.RecordSync(ctx, source.ID, 0, err); recErr != nil {
			s.logger.Error("recording sync failure", "source_id", source.ID.String(), "error", recErr)
		}
		return result, err
	}

	if recErr := s.sourceRepo.RecordSync(ctx, source.ID, result.ChannelsParsed, nil); recErr != nil {
		s.logger.Error("recording sync success", "source_id", source.ID.String(), "error", recErr)
	}

	s.logger.Info("sync completed",
		"source_id", source.ID.String(),
		"source", source.Name,
		"channels", result.ChannelsParsed,
		"programs", result.ProgramsParsed,
		"mapped", result.MappingsApplied,
		"inserted", result.Write.Inserted,
		"skipped", result.Write.Skipped,
		"from_cache", result.FromCache,
		"duration", time.Since(started),
	)

	return result, nil
}

// FeedPreview summarizes a feed without touching the catalog or the
// schedule.
type FeedPreview struct {
	Channels     []*xmltv.Channel
	ChannelCount int
	ProgramCount int
	FromCache    bool
}

// InspectFeed fetches and parses a feed read-only. channelLimit caps how
// many channel entries are returned; zero or negative returns them all.
// ChannelCount always reflects the full document.
func (s *SyncService) InspectFeed(ctx context.Context, url string, force bool, channelLimit int) (*FeedPreview, error) {
	path, fromCache, err := s.fetcher.Fetch(ctx, url, force)
	if err != nil {
		return nil, syncErr(StepDownload, err)
	}
	rc, err := s.fetcher.Open(path)
	if err != nil {
		return nil, syncErr(StepParse, err)
	}
	defer rc.Close()

	preview := &FeedPreview{FromCache: fromCache}
	parser := &xmltv.Parser{
		DefaultLang: s.defaultLang,
		OnChannel: func(ch *xmltv.Channel) error {
			preview.ChannelCount++
			if channelLimit <= 0 || len(preview.Channels) < channelLimit {
				preview.Channels = append(preview.Channels, ch)
			}
			return nil
		},
		OnProgramme: func(*xmltv.Programme) error {
			preview.ProgramCount++
			return nil
		},
	}
	if err := parser.ParseCompressed(rc); err != nil {
		return nil, syncErr(StepParse, err)
	}
	return preview, nil
}

// SyncURL runs the pipeline for an ad-hoc feed URL without a stored
// source. Nothing is recorded beyond the schedule and mapping writes.
func (s *SyncService) SyncURL(ctx context.Context, tenantID, url string, force bool) (*SyncResult, error) {
	return s.run(ctx, tenantID, url, force)
}

// SyncUpload runs the parse, reconcile and write stages on an uploaded
// XMLTV document, skipping the fetch cache entirely.
func (s *SyncService) SyncUpload(ctx context.Context, tenantID string, data []byte) (*SyncResult, error) {
	result := &SyncResult{}

	channels, err := s.parseStream(ctx, bytes.NewReader(data), result)
	if err != nil {
		return result, syncErr(StepParse, err)
	}

	if err := s.applyMappings(ctx, tenantID, channels, result); err != nil {
		return result, syncErr(StepReconcile, err)
	}

	return result, nil
}

func (s *SyncService) run(ctx context.Context, tenantID, url string, force bool) (*SyncResult, error) {
	result := &SyncResult{}

	path, fromCache, err := s.fetcher.Fetch(ctx, url, force)
	if err != nil {
		return result, syncErr(StepDownload, err)
	}
	result.FromCache = fromCache

	channels, err := s.parseFeed(ctx, path, result)
	if err != nil {
		return result, syncErr(StepParse, err)
	}

	if err := s.applyMappings(ctx, tenantID, channels, result); err != nil {
		return result, syncErr(StepReconcile, err)
	}

	return result, nil
}

// parseFeed streams the cached document, applying mappings needs the
// channel list in memory while programmes flow straight to the schedule
// writer in batches.
func (s *SyncService) parseFeed(ctx context.Context, path string, result *SyncResult) ([]*xmltv.Channel, error) {
	rc, err := s.fetcher.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return s.parseStream(ctx, rc, result)
}

func (s *SyncService) parseStream(ctx context.Context, r io.Reader, result *SyncResult) ([]*xmltv.Channel, error) {
	var (
		channels []*xmltv.Channel
		batch    []*xmltv.Programme
		writeErr error
	)

	flush := func() {
		if len(batch) == 0 || writeErr != nil {
			return
		}
		wr, err := s.writer.Write(ctx, batch)
		result.Write.Add(wr)
		if err != nil {
			writeErr = err
		}
		batch = batch[:0]
	}

	parser := &xmltv.Parser{
		DefaultLang: s.defaultLang,
		OnChannel: func(ch *xmltv.Channel) error {
			channels = append(channels, ch)
			return nil
		},
		OnProgramme: func(prog *xmltv.Programme) error {
			result.ProgramsParsed++
			batch = append(batch, prog)
			if len(batch) >= s.writer.BatchSize() {
				flush()
			}
			return writeErr
		},
		OnError: func(err error) {
			result.Errors = append(result.Errors, err.Error())
		},
	}

	if err := parser.ParseCompressed(r); err != nil {
		return nil, err
	}
	flush()
	if writeErr != nil {
		return nil, syncErr(StepWrite, writeErr)
	}

	result.ChannelsParsed = len(channels)
	return channels, nil
}

// applyMappings matches the tenant's full catalog against the parsed
// guide channels and persists accepted matches, mirroring a logo for
// each newly mapped channel that has none. Already-mapped channels are
// re-scored too, so a better-matching guide channel in a refreshed feed
// replaces a stale mapping.
func (s *SyncService) applyMappings(ctx context.Context, tenantID string, epgChannels []*xmltv.Channel, result *SyncResult) error {
	catalog, err := s.channelRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if len(catalog) == 0 || len(epgChannels) == 0 {
		return nil
	}

	byID := make(map[string]*models.Channel, len(catalog))
	candidates := make([]reconcile.Candidate, 0, len(catalog))
	for _, ch := range catalog {
		id := ch.ID.String()
		byID[id] = ch
		candidates = append(candidates, reconcile.Candidate{ID: id, Name: ch.Name})
	}

	engine := &reconcile.Engine{Threshold: s.reconcileCfg.SyncThreshold, Strict: true}
	matches := engine.Run(candidates, epgChannels)

	for _, match := range matches {
		channel := byID[match.ChannelID]
		if channel.EpgID == match.EpgID {
			continue
		}

		if err := s.channelRepo.SetEpgID(ctx, channel.ID, match.EpgID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("mapping %s: %v", channel.Slug, err))
			continue
		}
		result.MappingsApplied++

		s.logger.Debug("mapped channel",
			"channel", channel.Slug,
			"epg_id", match.EpgID,
			"score", match.Score,
		)

		if channel.LogoURL != "" {
			continue
		}
		icon := reconcile.IconFor(epgChannels, match.EpgID)
		if icon == "" {
			continue
		}
		logoURL := icon
		if s.mirrorer != nil {
			if mirrored, outcome := s.mirrorer.MirrorImage(ctx, icon, logoKeyPrefix); outcome == mirror.OutcomeMirrored {
				logoURL = mirrored
				result.LogosMirrored++
			}
		}
		if err := s.channelRepo.SetLogoURL(ctx, channel.ID, logoURL); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("setting logo for %s: %v", channel.Slug, err))
		}
	}

	if result.MappingsApplied > 0 && s.listCache != nil {
		s.listCache.Invalidate(tenantID)
	}

	return nil
}
