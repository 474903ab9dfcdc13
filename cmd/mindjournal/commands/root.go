package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/mindjournal/pkg/config"
)

var (
	// Global flags
	sourceFlag string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mindjournal",
	Short: "Mind journal dashboard backend",
	Long: `Mind journal dashboard backend

Serves the yearly journaling heatmap, streaks and journal statistics,
pushes live updates over websocket and runs the nightly jobs.

Usage:
  go run ./cmd/mindjournal [command]

Examples:
  go run ./cmd/mindjournal api
  go run ./cmd/mindjournal heatmap --user alice --source fixture
  go run ./cmd/mindjournal scheduler run heatmap_warm
  go run ./cmd/mindjournal db migrate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "journal source (postgres|sqlite|remote|fixture), overrides JOURNAL_SOURCE")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration with the global flags applied
func loadConfig() (*config.Config, error) {
	// the source decides which settings are required, so it must be known before validation
	if sourceFlag != "" {
		if err := os.Setenv("JOURNAL_SOURCE", sourceFlag); err != nil {
			return nil, fmt.Errorf("set journal source: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
