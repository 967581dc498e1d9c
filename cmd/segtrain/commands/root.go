package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "segtrain",
		Short: "Segtrain - Segmentation Experiment Orchestrator",
		Long: `Segtrain assembles and runs image segmentation experiments from
declarative YAML documents.

Features:
  - Reference interpolation across the document tree
  - Component instantiation via _target_ factories
  - Strict argument decoding and validation
  - Pluggable training backends (dryrun, exec)
  - SQLite-backed run history and event log`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newTargetsCommand())
	rootCmd.AddCommand(newTrainCommand())
	rootCmd.AddCommand(newPredictCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}
