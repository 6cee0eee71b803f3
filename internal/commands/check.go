package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const checkTimeout = 5 * time.Minute

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	var callerUID string

	cmd := &cobra.Command{
		Use:   "check [booking-id]",
		Short: "Run the weather safety sweep, or re-check one booking",
		Long: `Without arguments, evaluates every scheduled booking in the lookahead
window and queues alerts for unsafe flights. With a booking ID, refreshes that
booking on behalf of its student (requires --as).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return runManualCheck(args[0], callerUID)
			}
			return runSweep()
		},
	}

	cmd.Flags().StringVar(&callerUID, "as", "", "Student user ID to act as for a single-booking check")
	return cmd
}

func runSweep() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}

	if err := rt.monitor.CheckDueBookings(ctx); err != nil {
		return fmt.Errorf("weather sweep failed: %w", err)
	}
	color.Green("✓ Sweep complete")
	return nil
}

func runManualCheck(bookingID, callerUID string) error {
	if callerUID == "" {
		return fmt.Errorf("--as is required for a single-booking check")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := rt.monitor.ManualCheck(ctx, bookingID, callerUID)
	if err != nil {
		return fmt.Errorf("manual check failed: %w", err)
	}

	fmt.Printf("Booking %s (%s minimums)\n", bookingID, result.TrainingLevel)
	fmt.Printf("  Status: %s\n", statusLabel(result.Status))
	if len(result.Violations) > 0 {
		fmt.Printf("  Violations:\n    %s\n", strings.Join(result.Violations, "\n    "))
	}
	fmt.Printf("  Visibility %.1f mi, wind %.0f kt (gust %.0f), cloud %.0f%%\n",
		result.Metrics.VisibilityMiles, result.Metrics.WindKts,
		result.Metrics.GustKts, result.Metrics.CloudPercent)
	return nil
}
