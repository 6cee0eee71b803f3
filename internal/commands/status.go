package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

const statusTimeout = 30 * time.Second

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show upcoming bookings and their weather status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(days)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Lookahead window in days")
	return cmd
}

func runStatus(days int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	from := now.Format("2006-01-02")
	to := now.AddDate(0, 0, days).Format("2006-01-02")
	bookings, err := rt.store.ListScheduledBookings(ctx, from, to)
	if err != nil {
		return fmt.Errorf("listing bookings: %w", err)
	}

	if len(bookings) == 0 {
		fmt.Printf("No scheduled bookings between %s and %s\n", from, to)
		return nil
	}

	bold := color.New(color.Bold)
	_, _ = bold.Printf("Scheduled bookings (%s to %s)\n\n", from, to)
	for _, b := range bookings {
		fmt.Println(formatBookingLine(b))
	}
	return nil
}

func formatBookingLine(b types.Booking) string {
	location := "unknown location"
	if b.Departure != nil && b.Departure.Name != "" {
		location = b.Departure.Name
	}
	return fmt.Sprintf("  %-12s %s %-8s %-22s %-18s %s",
		b.ID, b.ScheduledDate, b.ScheduledTime, location, b.StudentName, statusLabel(b.WeatherStatus))
}

func statusLabel(status types.SafetyStatus) string {
	switch status {
	case types.StatusSafe:
		return color.GreenString("safe")
	case types.StatusCaution:
		return color.YellowString("caution")
	case types.StatusUnsafe:
		return color.RedString("unsafe")
	default:
		return "unchecked"
	}
}
