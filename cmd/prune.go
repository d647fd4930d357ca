package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/mtstation/cleanup"
)

var (
	pruneDate        string
	pruneBefore      string
	pruneKeyword     string
	keepHardlinked   bool
	pruneConcurrency int
)

// pruneCmd represents the prune command
var pruneCmd = &cobra.Command{
	Use:   "prune <path>",
	Short: "Delete files in a directory by creation date and keyword",
	Long: `Delete the entries of a directory created on a given date, on or before a
given date, and/or whose name contains a keyword. Directories are removed
recursively.

At least one of --date, --before or --keyword is required.`,
	Example: `  mtstation prune /volume1/downloads --before 2024-01-31 --dry-run
  mtstation prune /volume1/downloads --keyword 2160p --keep-hardlinked`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().StringVar(&pruneDate, "date", "", "delete entries created on this date (YYYY-MM-DD)")
	pruneCmd.Flags().StringVar(&pruneBefore, "before", "", "delete entries created on or before this date (YYYY-MM-DD)")
	pruneCmd.Flags().StringVar(&pruneKeyword, "keyword", "", "delete entries whose name contains this keyword")
	pruneCmd.Flags().BoolVar(&keepHardlinked, "keep-hardlinked", false, "keep files that still have hardlinks elsewhere")
	pruneCmd.Flags().IntVar(&pruneConcurrency, "concurrency", cleanup.DefaultPruneConcurrency, "number of concurrent deletions")
}

func runPrune(cmd *cobra.Command, args []string) error {
	opts := cleanup.PruneOptions{
		Keyword:        pruneKeyword,
		KeepHardlinked: keepHardlinked,
		DryRun:         dryRun,
		Concurrency:    pruneConcurrency,
	}

	var err error
	if pruneDate != "" {
		if opts.On, err = cleanup.ParseDate(pruneDate); err != nil {
			return err
		}
	}
	if pruneBefore != "" {
		if opts.Before, err = cleanup.ParseDate(pruneBefore); err != nil {
			return err
		}
	}

	result, err := cleanup.Prune(context.Background(), args[0], opts, logger)
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("━", 50))
	if dryRun {
		fmt.Printf("[DRY RUN] Would delete %d entries\n", len(result.Matched))
	} else {
		fmt.Printf("✓ Deleted: %d\n", len(result.Deleted))
	}
	if len(result.Skipped) > 0 {
		fmt.Printf("⊘ Kept (hardlinked): %d\n", len(result.Skipped))
	}
	if len(result.Failed) > 0 {
		fmt.Printf("✗ Failed: %d\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Printf("  - %v\n", f)
		}
	}

	return nil
}
