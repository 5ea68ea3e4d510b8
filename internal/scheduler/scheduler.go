// Package scheduler runs periodic EPG syncs for all enabled sources.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/internal/service"
	"github.com/robfig/cron/v3"
)

// defaultSpec runs the sync once a day at 04:00, after most providers
// have published the next day's guide.
const defaultSpec = "0 4 * * *"

// SourceLister narrows SourceService to what the scheduler needs.
type SourceLister interface {
	ListEnabled(ctx context.Context) ([]*models.EpgSource, error)
}

// Syncer narrows SyncService to what the scheduler needs.
type Syncer interface {
	Sync(ctx context.Context, req service.SyncRequest) (*service.SyncResult, error)
}

// Scheduler triggers a sync of every enabled EPG source on a cron
// schedule. Sources are synced sequentially in priority order so a slow
// feed never interleaves with another's database writes.
type Scheduler struct {
	sources  SourceLister
	syncer   Syncer
	tenantID string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a scheduler. tenantID selects whose channels get
// reconciled during scheduled syncs.
func New(sources SourceLister, syncer Syncer, tenantID string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sources:  sources,
		syncer:   syncer,
		tenantID: tenantID,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the cron entry and starts the timer. spec is a
// standard 5-field cron expression; empty selects the default daily
// run.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		spec = defaultSpec
	}

	if _, err := s.cron.AddFunc(spec, func() {
		s.RunAll(context.Background())
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("sync scheduler started", "spec", spec)
	return nil
}

// Stop stops the timer and waits for a running sync pass to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("sync scheduler stopped")
}

// RunAll syncs every enabled source once, in priority order. Overlapping
// passes are collapsed: if one is still running, the trigger is skipped.
// Per-source failures are logged and counted, not propagated; one broken
// feed must not starve the others.
func (s *Scheduler) RunAll(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("sync pass already in progress, skipping trigger")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	sources, err := s.sources.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("listing enabled sources for scheduled sync", "error", err)
		return
	}
	if len(sources) == 0 {
		s.logger.Debug("no enabled sources to sync")
		return
	}

	var failed int
	for _, source := range sources {
		result, err := s.syncer.Sync(ctx, service.SyncRequest{
			SourceID: source.ID,
			TenantID: s.tenantID,
		})
		if err != nil {
			failed++
			s.logger.Error("scheduled sync failed",
				"source_id", source.ID.String(),
				"source", source.Name,
				"error", err,
			)
			continue
		}
		s.logger.Info("scheduled sync finished",
			"source_id", source.ID.String(),
			"source", source.Name,
			"programs", result.ProgramsParsed,
			"inserted", result.Write.Inserted,
		)
	}

	s.logger.Info("sync pass completed", "sources", len(sources), "failed", failed)
}
