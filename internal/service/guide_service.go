package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/internal/repository"
)

// NowPlaying pairs a catalog channel with its currently airing entry.
// Entry is nil when the guide has no data for the channel right now.
type NowPlaying struct {
	Channel *models.Channel       `json:"channel"`
	Entry   *models.ScheduleEntry `json:"entry,omitempty"`
}

// GuideService answers the public guide queries: what is on now, and a
// channel's upcoming schedule window.
type GuideService struct {
	channelRepo  repository.ChannelRepository
	scheduleRepo repository.ScheduleRepository
	listCache    *ListCache
	logger       *slog.Logger
}

// NewGuideService creates a guide service.
func NewGuideService(channelRepo repository.ChannelRepository, scheduleRepo repository.ScheduleRepository, listCache *ListCache) *GuideService {
	return &GuideService{
		channelRepo:  channelRepo,
		scheduleRepo: scheduleRepo,
		listCache:    listCache,
		logger:       slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *GuideService) WithLogger(logger *slog.Logger) *GuideService {
	s.logger = logger
	return s
}

// Channels returns a tenant's channel list, served from the list cache
// when fresh.
func (s *GuideService) Channels(ctx context.Context, tenantID string) ([]*models.Channel, error) {
	if s.listCache != nil {
		if cached := s.listCache.Get(tenantID); cached != nil {
			return cached, nil
		}
	}

	channels, err := s.channelRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	if s.listCache != nil {
		s.listCache.Set(tenantID, channels)
	}
	return channels, nil
}

// Now returns every mapped channel of a tenant with its entry airing at
// the given instant. Channels with no current entry are included with a
// nil entry so clients can render a complete lineup.
func (s *GuideService) Now(ctx context.Context, tenantID string, at time.Time) ([]NowPlaying, error) {
	channels, err := s.Channels(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var epgIDs []string
	for _, ch := range channels {
		if ch.EpgID != "" {
			epgIDs = append(epgIDs, ch.EpgID)
		}
	}

	onAir := map[string]*models.ScheduleEntry{}
	if len(epgIDs) > 0 {
		onAir, err = s.scheduleRepo.OnAir(ctx, epgIDs, at)
		if err != nil {
			return nil, fmt.Errorf("querying on-air entries: %w", err)
		}
	}

	lineup := make([]NowPlaying, 0, len(channels))
	for _, ch := range channels {
		lineup = append(lineup, NowPlaying{Channel: ch, Entry: onAir[ch.EpgID]})
	}
	return lineup, nil
}

// Schedule returns a guide channel's entries for the window starting at
// from and spanning the given number of hours, including the entry
// already running at from.
func (s *GuideService) Schedule(ctx context.Context, channelID string, from time.Time, hours int) ([]*models.ScheduleEntry, error) {
	if hours < 1 {
		hours = 24
	}
	to := from.Add(time.Duration(hours) * time.Hour)

	entries, err := s.scheduleRepo.Window(ctx, channelID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying schedule window: %w", err)
	}
	return entries, nil
}

// PurgeBefore removes schedule entries that ended before the cutoff.
func (s *GuideService) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := s.scheduleRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging schedule entries: %w", err)
	}
	if removed > 0 {
		s.logger.Info("purged schedule entries", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}
