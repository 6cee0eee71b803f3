package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clearskies-aero/clearskies/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clearskies",
		Short: "Weather safety monitoring for flight training schools",
		Long: `ClearSkies watches upcoming training flights against per-level weather
minimums. It sweeps scheduled bookings, flags flights that violate visibility,
wind, ceiling or hazard limits, and notifies students and instructors before
they drive to the airfield.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewInitCmd(),
		commands.NewCheckCmd(),
		commands.NewProcessQueueCmd(),
		commands.NewStatusCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
