package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/mtstation/filter"
	"github.com/s0up4200/mtstation/grab"
	"github.com/s0up4200/mtstation/mteam"
)

var (
	searchMode    string
	searchIndex   int
	searchSize    int
	searchKeyword string

	// Download flags shared by search, latest and download
	freeOnly   bool
	force      bool
	filterExpr string
	preset     string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the tracker and download matching torrents",
	Long: `Search M-Team in one mode and download every result that was not handled before.

The detail of every result is fetched first. Results without a detail are
skipped, as are non-free results when --free is set and results rejected by
the filter expression.`,
	Example: `  mtstation search --mode movie --free
  mtstation search --mode tvshow --keyword "S01" --size 50
  mtstation search --mode normal --filter 'Size < GiB(20) and Seeders > 5'`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchMode, "mode", "", "search mode ("+strings.Join(mteam.Modes(), ", ")+")")
	searchCmd.Flags().IntVar(&searchIndex, "index", 1, "page number")
	searchCmd.Flags().IntVar(&searchSize, "size", 25, "page size")
	searchCmd.Flags().StringVar(&searchKeyword, "keyword", "", "search keyword")
	addDownloadFlags(searchCmd)
	addTrackerFlags(searchCmd)
	searchCmd.MarkFlagRequired("mode")
}

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&freeOnly, "free", false, "only download torrents that are currently free")
	cmd.Flags().BoolVar(&force, "force", false, "download even if the torrent was handled before")
	cmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
}

// downloadOptions builds the grab options from the shared flags
func downloadOptions() (grab.Options, error) {
	opts := grab.Options{
		Force:   force,
		Free:    freeOnly,
		Verbose: verbose,
		DryRun:  cfg.Safety.DryRun,
	}

	expr, err := getFilterExpression(filterExpr, preset)
	if err != nil {
		return opts, err
	}
	if expr != "" {
		f, err := filter.Compile(expr)
		if err != nil {
			return opts, fmt.Errorf("invalid filter expression: %w", err)
		}
		logger.Info().Str("filter", expr).Msg("Using filter")
		opts.Filter = f
	}

	return opts, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if !mteam.ValidMode(searchMode) {
		return fmt.Errorf("invalid search mode: %s (must be one of %s)", searchMode, strings.Join(mteam.Modes(), ", "))
	}
	if searchIndex < 1 || searchSize < 1 {
		return fmt.Errorf("invalid page: index and size must be positive")
	}

	tracker, err := newTracker()
	if err != nil {
		return err
	}

	opts, err := downloadOptions()
	if err != nil {
		return err
	}
	opts.RequireDetail = true

	ctx := context.Background()
	torrents, err := tracker.Search(ctx, mteam.SearchQuery{
		Mode:     searchMode,
		Free:     freeOnly,
		Page:     searchIndex,
		PageSize: searchSize,
		Keyword:  searchKeyword,
	})
	if err != nil {
		return err
	}

	logger.Info().Str("mode", searchMode).Int("count", len(torrents)).Msg("Search finished")

	tids := make([]string, 0, len(torrents))
	for _, t := range torrents {
		tids = append(tids, t.ID)
	}

	_, err = runGrab(ctx, tracker, tids, opts)
	return err
}
