package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/mtstation/artifacts"
	"github.com/s0up4200/mtstation/cleanup"
	"github.com/s0up4200/mtstation/history"
	"github.com/s0up4200/mtstation/station"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Garbage collect local torrent metadata",
	Long: `Fold .torrent.loaded markers into the download history and remove .info
files of torrents the station no longer knows about.

The history is backed up to list.json.bk before it is rewritten. When the
station cannot be reached no .info file is removed.`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringVar(&outputDir, "output", "", "output directory (overrides tracker.output)")
	addStationFlags(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateOutput(); err != nil {
		return err
	}

	h, err := history.Load(cfg.Tracker.Output)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var st station.Station
	if client, err := newStation(ctx); err != nil {
		logger.Warn().Err(err).Msg("Station unavailable, orphaned .info files are kept")
	} else {
		defer closeStation(client)
		st = client
	}

	cleaner := cleanup.NewCleaner(artifacts.New(cfg.Tracker.Output), logger, cfg.Safety.DryRun)
	report, err := cleaner.Run(ctx, st, h)
	if err != nil {
		return err
	}

	fmt.Printf("✓ History: %d added, %d markers removed\n", report.Fold.Added, report.Fold.Removed)
	fmt.Printf("✓ Station: %d active tasks, %d orphaned .info files removed\n", report.Active, report.Orphans)

	return nil
}
