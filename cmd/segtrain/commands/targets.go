package commands

import (
	"encoding/json"
	"fmt"

	"github.com/segtrain/segtrain/pkg/components"
	"github.com/spf13/cobra"
)

func newTargetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List registered component targets",
		Long: `List every _target_ name the built-in registry accepts, one per line.
Documents may only instantiate components from this list.`,
		Example: `  # List all registered targets
  segtrain targets

  # As a JSON array
  segtrain targets --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := components.NewRegistry().Targets()

			if jsonOutput {
				data, err := json.MarshalIndent(targets, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			for _, t := range targets {
				fmt.Println(t)
			}
			return nil
		},
	}

	return cmd
}
