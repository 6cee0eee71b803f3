package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [project-name]",
		Short: "Initialize a new ClearSkies project",
		Long:  "Creates project scaffolding with a starter clearskies.yaml.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args[0])
		},
	}
}

func runInit(projectName string) error {
	bold := color.New(color.Bold)
	_, _ = bold.Printf("Initializing ClearSkies project: %s\n", projectName)

	if err := os.MkdirAll(projectName, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", projectName, err)
	}

	configPath := filepath.Join(projectName, "clearskies.yaml")
	configContent := `dynamodb:
  tableName: clearskies
  region: us-west-2
weather:
  requestTimeout: 10s
reschedule:
  model: gpt-4o-mini
mail:
  fromAddress: no-reply@clearskies.app
  fromName: ClearSkies
queue:
  batchSize: 20
  maxAttempts: 3
  retryDelay: 8h
monitor:
  lookaheadDays: 7
  concurrency: 4
alerts:
  - type: console
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	color.Green("  ✓ Project scaffolded")
	fmt.Println("\nNext steps:")
	fmt.Printf("  cd %s\n", projectName)
	fmt.Println("  export WEATHER_API_KEY=...   # weatherapi.com key")
	fmt.Println("  export OPENAI_API_KEY=...    # optional, enables reschedule suggestions")
	fmt.Println("  clearskies status")
	return nil
}
