package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const processTimeout = 5 * time.Minute

// NewProcessQueueCmd creates the process-queue command.
func NewProcessQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process-queue",
		Short: "Deliver due notifications from the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessQueue()
		},
	}
}

func runProcessQueue() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}

	if err := rt.processor.ProcessDue(ctx); err != nil {
		return fmt.Errorf("queue processing failed: %w", err)
	}
	color.Green("✓ Queue drained")
	return nil
}
