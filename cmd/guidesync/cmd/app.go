package cmd

import (
	"fmt"
	"log/slog"

	"github.com/guidesync/guidesync/internal/config"
	"github.com/guidesync/guidesync/internal/database"
	"github.com/guidesync/guidesync/internal/fetchcache"
	"github.com/guidesync/guidesync/internal/mirror"
	"github.com/guidesync/guidesync/internal/repository"
	"github.com/guidesync/guidesync/internal/schedule"
	"github.com/guidesync/guidesync/internal/service"
	"github.com/guidesync/guidesync/internal/storage"
	"github.com/guidesync/guidesync/pkg/httpclient"
)

// app wires configuration, storage, repositories and services for the
// serve and sync commands.
type app struct {
	cfg    *config.Config
	db     *database.DB
	logger *slog.Logger

	sources *service.SourceService
	syncer  *service.SyncService
	mapper  *service.MapperService
	lists   *service.PlaylistService
	guide   *service.GuideService
}

// buildApp loads configuration, opens the database, runs migrations and
// constructs the service graph.
func buildApp(logger *slog.Logger) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	db, err := database.New(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	sourceRepo := repository.NewEpgSourceRepository(db.DB)
	channelRepo := repository.NewChannelRepository(db.DB)
	scheduleRepo := repository.NewScheduleRepository(db.DB)

	blobStore, err := storage.NewLocalBlobStore(cfg.Storage.AssetPath(), cfg.Storage.PublicBaseURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing asset storage: %w", err)
	}

	fetcher := fetchcache.New(fetchcache.Config{
		Dir:       cfg.Storage.CachePath(),
		Freshness: cfg.Ingest.FreshnessWindow,
		Timeout:   cfg.Ingest.EPGFetchTimeout,
		UserAgent: cfg.Ingest.UserAgent,
		Logger:    logger,
	})

	mirrorer := mirror.New(mirror.Config{
		Timeout:   cfg.Mirror.Timeout,
		MaxBytes:  cfg.Mirror.MaxBytes,
		UserAgent: cfg.Ingest.UserAgent,
		Logger:    logger,
	}, blobStore)

	writer := schedule.NewWriter(scheduleRepo, cfg.Ingest.ProgramBatchSize, logger)
	listCache := service.NewListCache(cfg.Ingest.ChannelCacheTTL)

	playlistClient := httpclient.New(httpclient.Config{
		Timeout:             cfg.Ingest.PlaylistFetchTimeout,
		UserAgent:           cfg.Ingest.UserAgent,
		Logger:              logger,
		EnableDecompression: true,
	})

	return &app{
		cfg:    cfg,
		db:     db,
		logger: logger,
		sources: service.NewSourceService(sourceRepo).
			WithLogger(logger),
		syncer: service.NewSyncService(
			sourceRepo, channelRepo, fetcher, mirrorer, writer,
			cfg.Reconcile, cfg.Ingest.DefaultLocale,
		).WithLogger(logger).WithListCache(listCache),
		mapper: service.NewMapperService(
			sourceRepo, channelRepo, fetcher,
			cfg.Reconcile, cfg.Ingest.DefaultLocale,
		).WithLogger(logger).WithListCache(listCache),
		lists: service.NewPlaylistService(channelRepo, playlistClient).
			WithLogger(logger).WithListCache(listCache),
		guide: service.NewGuideService(channelRepo, scheduleRepo, listCache).
			WithLogger(logger),
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("closing database", "error", err)
	}
}
