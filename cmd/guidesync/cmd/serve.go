package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	internalhttp "github.com/guidesync/guidesync/internal/http"
	"github.com/guidesync/guidesync/internal/http/handlers"
	"github.com/guidesync/guidesync/internal/scheduler"
	"github.com/guidesync/guidesync/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the guidesync server",
	Long: `Start the guidesync HTTP server and API.

The server provides:
- REST API for managing EPG sources, playlists and channel mappings
- Public guide endpoints (current lineup, per-channel schedule)
- Health check endpoint
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("data-dir", "./data", "Data directory for cache and assets")
	serveCmd.Flags().String("tenant", "default", "Tenant reconciled by scheduled syncs")

	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("storage.base_dir", serveCmd.Flags().Lookup("data-dir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	a, err := buildApp(logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := internalhttp.NewServer(internalhttp.ServerConfig{
		Host:            a.cfg.Server.Host,
		Port:            a.cfg.Server.Port,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
	}, logger, version.Version)

	api := server.API()
	handlers.NewEpgSourceHandler(a.sources, a.syncer).Register(api)
	handlers.NewFeedHandler(a.syncer).Register(api)
	handlers.NewMappingHandler(a.mapper, a.guide).Register(api)
	handlers.NewPlaylistHandler(a.lists).Register(api)
	handlers.NewGuideHandler(a.guide).Register(api)
	handlers.NewHealthHandler(version.Version).WithDB(a.db.DB).Register(api)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Scheduler.Enabled {
		tenant, _ := cmd.Flags().GetString("tenant")
		sched := scheduler.New(a.sources, a.syncer, tenant, logger)
		if err := sched.Start(a.cfg.Scheduler.Cron); err != nil {
			return fmt.Errorf("starting sync scheduler: %w", err)
		}
		defer sched.Stop()
	}

	logger.Info("guidesync starting",
		"version", version.Short(),
		"address", a.cfg.Server.Address(),
		"database", a.cfg.Database.Driver,
	)

	return server.ListenAndServe(ctx)
}
