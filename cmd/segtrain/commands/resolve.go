package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/segtrain/segtrain/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newResolveCommand() *cobra.Command {
	var (
		output string
	)

	cmd := &cobra.Command{
		Use:   "resolve <document>",
		Short: "Resolve a document and print the flattened tree",
		Long: `Resolve a document and print the tree with every ${path} reference
substituted by its value. The output is itself a valid document.`,
		Example: `  # Print the resolved tree as YAML
  segtrain resolve train.yaml

  # Print as JSON
  segtrain resolve train.yaml --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.Load(args[0])
			if err != nil {
				return err
			}

			resolved, err := doc.Resolve()
			if err != nil {
				return err
			}

			format := output
			if jsonOutput {
				format = "json"
			}

			switch format {
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				enc.SetIndent(2)
				if err := enc.Encode(resolved); err != nil {
					return fmt.Errorf("failed to encode resolved tree: %w", err)
				}
				return enc.Close()
			case "json":
				data, err := json.MarshalIndent(resolved, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode resolved tree: %w", err)
				}
				fmt.Println(string(data))
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format (yaml, json)")

	return cmd
}
