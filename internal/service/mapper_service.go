package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guidesync/guidesync/internal/config"
	"github.com/guidesync/guidesync/internal/fetchcache"
	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/internal/reconcile"
	"github.com/guidesync/guidesync/internal/repository"
	"github.com/guidesync/guidesync/pkg/xmltv"
)

// MappingProposal is a suggested channel-to-guide association,
// pending operator review.
type MappingProposal struct {
	ChannelID   models.ULID `json:"channel_id"`
	ChannelName string      `json:"channel_name"`
	EpgID       string      `json:"epg_id"`
	EpgName     string      `json:"epg_name"`
	Score       float64     `json:"score"`
}

// MapperService suggests and applies channel-to-guide mappings.
type MapperService struct {
	sourceRepo   repository.EpgSourceRepository
	channelRepo  repository.ChannelRepository
	fetcher      *fetchcache.Fetcher
	listCache    *ListCache
	reconcileCfg config.ReconcileConfig
	defaultLang  string
	logger       *slog.Logger
}

// NewMapperService creates a mapper service.
func NewMapperService(
	sourceRepo repository.EpgSourceRepository,
	channelRepo repository.ChannelRepository,
	fetcher *fetchcache.Fetcher,
	reconcileCfg config.ReconcileConfig,
	defaultLang string,
) *MapperService {
	return &MapperService{
		sourceRepo:   sourceRepo,
		channelRepo:  channelRepo,
		fetcher:      fetcher,
		reconcileCfg: reconcileCfg,
		defaultLang:  defaultLang,
		logger:       slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *MapperService) WithLogger(logger *slog.Logger) *MapperService {
	s.logger = logger
	return s
}

// WithListCache sets the channel list cache invalidated on mapping
// changes.
func (s *MapperService) WithListCache(cache *ListCache) *MapperService {
	s.listCache = cache
	return s
}

// ListUnmapped returns a tenant's channels with no guide mapping.
func (s *MapperService) ListUnmapped(ctx context.Context, tenantID string) ([]*models.Channel, error) {
	channels, err := s.channelRepo.ListUnmapped(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing unmapped channels: %w", err)
	}
	return channels, nil
}

// AutoMap scores a tenant's unmapped channels against a source's guide
// and returns proposals above the automap threshold. Nothing is
// persisted; Apply or SetMapping commits a proposal.
func (s *MapperService) AutoMap(ctx context.Context, tenantID string, sourceID models.ULID) ([]MappingProposal, error) {
	epgChannels, err := s.loadGuideChannels(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	unmapped, err := s.channelRepo.ListUnmapped(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing unmapped channels: %w", err)
	}

	byID := make(map[string]*models.Channel, len(unmapped))
	candidates := make([]reconcile.Candidate, 0, len(unmapped))
	for _, ch := range unmapped {
		id := ch.ID.String()
		byID[id] = ch
		candidates = append(candidates, reconcile.Candidate{ID: id, Name: ch.Name})
	}

	engine := &reconcile.Engine{Threshold: s.reconcileCfg.AutoMapThreshold}
	matches := engine.Run(candidates, epgChannels)

	proposals := make([]MappingProposal, 0, len(matches))
	for _, match := range matches {
		channel := byID[match.ChannelID]
		proposals = append(proposals, MappingProposal{
			ChannelID:   channel.ID,
			ChannelName: channel.Name,
			EpgID:       match.EpgID,
			EpgName:     match.EpgName,
			Score:       match.Score,
		})
	}

	s.logger.Info("automap scored",
		"tenant_id", tenantID,
		"source_id", sourceID.String(),
		"unmapped", len(unmapped),
		"proposals", len(proposals),
	)

	return proposals, nil
}

// Apply persists accepted proposals. Each proposal is applied
// independently; the first failure aborts with the count applied so far.
func (s *MapperService) Apply(ctx context.Context, tenantID string, proposals []MappingProposal) (int, error) {
	applied := 0
	for _, p := range proposals {
		if err := s.channelRepo.SetEpgID(ctx, p.ChannelID, p.EpgID); err != nil {
			return applied, fmt.Errorf("applying mapping for channel %s: %w", p.ChannelID, err)
		}
		applied++
	}
	if applied > 0 && s.listCache != nil {
		s.listCache.Invalidate(tenantID)
	}
	return applied, nil
}

// SetMapping sets or clears one channel's guide mapping directly. An
// empty epgID unmaps the channel.
func (s *MapperService) SetMapping(ctx context.Context, tenantID string, channelID models.ULID, epgID string) error {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return fmt.Errorf("getting channel: %w", err)
	}
	if channel == nil || channel.TenantID != tenantID {
		return fmt.Errorf("channel %s not found", channelID)
	}

	if err := s.channelRepo.SetEpgID(ctx, channelID, epgID); err != nil {
		return fmt.Errorf("setting mapping: %w", err)
	}

	if s.listCache != nil {
		s.listCache.Invalidate(tenantID)
	}

	s.logger.Info("channel mapping set",
		"tenant_id", tenantID,
		"channel", channel.Slug,
		"epg_id", epgID,
	)

	return nil
}

// loadGuideChannels fetches a source's feed (reusing the cache) and
// returns its channel definitions. Programmes are not materialized.
func (s *MapperService) loadGuideChannels(ctx context.Context, sourceID models.ULID) ([]*xmltv.Channel, error) {
	source, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("getting EPG source: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("EPG source %s not found", sourceID)
	}

	path, _, err := s.fetcher.Fetch(ctx, source.URL, false)
	if err != nil {
		return nil, syncErr(StepDownload, err)
	}

	rc, err := s.fetcher.Open(path)
	if err != nil {
		return nil, syncErr(StepDownload, err)
	}
	defer rc.Close()

	var channels []*xmltv.Channel
	parser := &xmltv.Parser{
		DefaultLang: s.defaultLang,
		OnChannel: func(ch *xmltv.Channel) error {
			channels = append(channels, ch)
			return nil
		},
	}
	if err := parser.ParseCompressed(rc); err != nil {
		return nil, syncErr(StepParse, err)
	}

	return channels, nil
}
