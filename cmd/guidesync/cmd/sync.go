package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/internal/service"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [source name or ID]",
	Short: "Run the EPG sync pipeline once",
	Long: `Fetch an EPG source's feed, apply channel mappings and write schedule
entries, then exit. With --all, every enabled source is synced in
priority order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("all", false, "Sync every enabled source")
	syncCmd.Flags().Bool("force", false, "Bypass the feed cache freshness window")
	syncCmd.Flags().String("tenant", "default", "Tenant whose channels are reconciled")
}

func runSync(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	force, _ := cmd.Flags().GetBool("force")
	tenant, _ := cmd.Flags().GetString("tenant")

	if !all && len(args) == 0 {
		return fmt.Errorf("a source name or ID is required unless --all is given")
	}

	a, err := buildApp(slog.Default())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	var sources []*models.EpgSource
	if all {
		sources, err = a.sources.ListEnabled(ctx)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			fmt.Println("no enabled sources")
			return nil
		}
	} else {
		source, err := resolveSource(ctx, a, args[0])
		if err != nil {
			return err
		}
		sources = []*models.EpgSource{source}
	}

	var failed int
	for _, source := range sources {
		result, err := a.syncer.Sync(ctx, service.SyncRequest{
			SourceID: source.ID,
			TenantID: tenant,
			Force:    force,
		})
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: sync failed: %v\n", source.Name, err)
			continue
		}
		fmt.Printf("%s: %d channels, %d programs (%d inserted, %d skipped), %d mapped\n",
			source.Name, result.ChannelsParsed, result.ProgramsParsed,
			result.Write.Inserted, result.Write.Skipped, result.MappingsApplied)
		for _, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "  warning: %s\n", msg)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(sources))
	}
	return nil
}

// resolveSource finds a source by ULID first, then by name.
func resolveSource(ctx context.Context, a *app, ref string) (*models.EpgSource, error) {
	if id, err := models.ParseULID(ref); err == nil {
		if source, err := a.sources.GetByID(ctx, id); err != nil {
			return nil, err
		} else if source != nil {
			return source, nil
		}
	}

	sources, err := a.sources.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, source := range sources {
		if source.Name == ref {
			return source, nil
		}
	}
	return nil, fmt.Errorf("source %q not found", ref)
}
