package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/s0up4200/mtstation/grab"
)

// latestCmd represents the latest command
var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Download new releases from the tracker RSS feed",
	Long: `Poll the M-Team RSS feed and download every item that was not handled before.

The detail of every item is fetched and stored next to the torrent as .info
for the check command. Items whose detail cannot be fetched are skipped.`,
	RunE: runLatest,
}

func init() {
	rootCmd.AddCommand(latestCmd)

	latestCmd.Flags().StringVar(&rssURL, "rss", "", "RSS feed URL (overrides tracker.rss)")
	addDownloadFlags(latestCmd)
	addTrackerFlags(latestCmd)
}

// latestOptions returns the download options of a feed run. Feed items are
// never downloaded without their detail.
func latestOptions() (grab.Options, error) {
	opts, err := downloadOptions()
	if err != nil {
		return opts, err
	}
	opts.RequireDetail = true
	return opts, nil
}

func runLatest(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateRSS(); err != nil {
		return err
	}

	tracker, err := newTracker()
	if err != nil {
		return err
	}

	opts, err := latestOptions()
	if err != nil {
		return err
	}

	ctx := context.Background()
	items, err := tracker.Latest(ctx)
	if err != nil {
		return err
	}

	logger.Info().Int("count", len(items)).Msg("Feed retrieved")

	tids := make([]string, 0, len(items))
	for _, it := range items {
		logger.Debug().Str("tid", it.TID).Str("title", it.Title).Time("published", it.Published).Msg("Feed item")
		tids = append(tids, it.TID)
	}

	_, err = runGrab(ctx, tracker, tids, opts)
	return err
}
