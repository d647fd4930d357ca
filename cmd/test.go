package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/mtstation/station"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to the tracker and the station",
	Long:  `Test the connection to M-Team and the configured download station and display basic information.`,
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)

	addTrackerFlags(testCmd)
	addStationFlags(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	var failed bool

	fmt.Printf("Testing connection to M-Team at %s...\n", cfg.Tracker.URL)
	if err := testTracker(ctx); err != nil {
		fmt.Printf("✗ Tracker: %v\n", err)
		failed = true
	}

	fmt.Printf("\nTesting connection to %s station...\n", cfg.Station.Backend)
	if err := testStation(ctx); err != nil {
		fmt.Printf("✗ Station: %v\n", err)
		failed = true
	}

	if failed {
		return fmt.Errorf("connection test failed")
	}
	return nil
}

func testTracker(ctx context.Context) error {
	tracker, err := newTracker()
	if err != nil {
		return err
	}

	profile, err := tracker.Profile(ctx)
	if err != nil {
		return err
	}

	fmt.Println("✓ Connection successful!")
	fmt.Printf("- Member: %s (ID: %s)\n", profile.Username, profile.ID)
	fmt.Printf("- Uploaded: %s\n", formatBytes(int64(profile.MemberCount.Uploaded)))
	fmt.Printf("- Downloaded: %s\n", formatBytes(int64(profile.MemberCount.Downloaded)))
	fmt.Printf("- Share rate: %s\n", profile.MemberCount.ShareRate)

	return nil
}

func testStation(ctx context.Context) error {
	st, err := newStation(ctx)
	if err != nil {
		return err
	}
	defer closeStation(st)

	tasks, err := st.ListTasks(ctx)
	if err != nil {
		return err
	}

	counts := make(map[station.Status]int)
	for _, t := range tasks {
		counts[t.Status]++
	}

	fmt.Println("✓ Connection successful!")
	fmt.Printf("- Total tasks: %d\n", len(tasks))
	for _, status := range []station.Status{
		station.StatusDownloading,
		station.StatusWaiting,
		station.StatusSeeding,
		station.StatusError,
		station.StatusOther,
	} {
		if counts[status] > 0 {
			fmt.Printf("  • %s: %d\n", status, counts[status])
		}
	}

	return nil
}

// formatBytes renders a byte count with a binary unit
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
