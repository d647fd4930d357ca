package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/mtstation/artifacts"
	"github.com/s0up4200/mtstation/retention"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Delete or resume station tasks based on their state",
	Long: `Inspect every task on the download station and decide what to do with it:

- downloading tasks that never received data within the stall timeout are deleted
- downloading or waiting tasks whose free discount is about to expire are deleted
- tasks in the error state are resumed
- seeding tasks past the seed period are deleted

Deleted tasks also have their local .torrent.loaded and .info files removed.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&outputDir, "path", "", "directory holding the torrent .info files (overrides tracker.output)")
	addStationFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("path") {
		cfg.Tracker.Output = outputDir
	}
	if err := cfg.ValidateOutput(); err != nil {
		return err
	}

	ctx := context.Background()
	st, err := newStation(ctx)
	if err != nil {
		return err
	}
	defer closeStation(st)

	tasks, err := st.ListTasks(ctx)
	if err != nil {
		return err
	}

	policy := retention.Policy{
		StallTimeout: cfg.Retention.StallTimeout,
		ExpiryMargin: cfg.Retention.ExpiryMargin,
		SeedPeriod:   cfg.Retention.SeedPeriod,
	}
	planner := retention.NewPlanner(policy, artifacts.New(cfg.Tracker.Output), logger)

	plan := planner.BuildPlan(tasks)
	if verbose {
		plan.Log(logger)
	}

	result, err := planner.Execute(ctx, st, plan, cfg.Safety.DryRun)
	if err != nil {
		return err
	}

	if cfg.Safety.DryRun {
		printPlan(plan)
		return nil
	}

	logger.Info().
		Int("tasks", len(tasks)).
		Int("deleted", result.Deleted).
		Int("resumed", result.Resumed).
		Int("purged", result.Purged).
		Msg("Check finished")

	return nil
}

func printPlan(plan retention.Plan) {
	deletes, resumes := plan.Deletes(), plan.Resumes()
	if len(deletes) == 0 && len(resumes) == 0 {
		fmt.Println("✓ Nothing to do")
		return
	}

	fmt.Println("[DRY RUN] Would apply:")
	fmt.Println(strings.Repeat("━", 85))
	fmt.Printf("%-8s %-20s %-14s %s\n", "ACTION", "REASON", "ID", "TITLE")
	fmt.Println(strings.Repeat("━", 85))
	for _, it := range append(deletes, resumes...) {
		title := it.Task.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Printf("%-8s %-20s %-14s %s\n", it.Decision.Action, it.Decision.Reason, it.Task.ID, title)
	}
	fmt.Println(strings.Repeat("━", 85))
}
