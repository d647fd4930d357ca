package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/mtstation/grab"
)

var downloadIDs []string

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download [tid...]",
	Short: "Download torrents by id",
	Long: `Download one or more torrents by their tracker id.

Ids can be given with --id or as arguments. The detail is only fetched with
--verbose.`,
	Example: `  mtstation download --id 812345 --id 812346
  mtstation download 812345 812346 --force`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringSliceVar(&downloadIDs, "id", nil, "torrent id to download (repeatable)")
	downloadCmd.Flags().BoolVar(&force, "force", false, "download even if the torrent was handled before")
	addTrackerFlags(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	tids := append(append([]string(nil), downloadIDs...), args...)
	if len(tids) == 0 {
		return fmt.Errorf("at least one torrent id is required")
	}

	tracker, err := newTracker()
	if err != nil {
		return err
	}

	// Explicit ids bypass the default filter
	opts := grab.Options{
		Force:   force,
		Verbose: verbose,
		DryRun:  cfg.Safety.DryRun,
	}

	_, err = runGrab(context.Background(), tracker, tids, opts)
	return err
}
