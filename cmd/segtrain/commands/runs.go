package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/segtrain/segtrain/pkg/stores"
	"github.com/spf13/cobra"
)

func newRunsCommand() *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded training runs",
		Long:  `Inspect the run history recorded in the SQLite run database.`,
	}

	cmd.PersistentFlags().StringVar(&storePath, "store", "./data/segtrain.db", "run database path")

	cmd.AddCommand(newRunsListCommand(&storePath))
	cmd.AddCommand(newRunsShowCommand(&storePath))
	cmd.AddCommand(newRunsDeleteCommand(&storePath))

	return cmd
}

func newRunsListCommand(storePath *string) *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, most recent first",
		Example: `  # List the last 20 runs
  segtrain runs list

  # Page through older runs
  segtrain runs list --limit 10 --offset 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, *storePath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(ctx, limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(runs, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tBACKEND\tDEVICE\tEPOCHS\tSTARTED\tDOCUMENT")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					run.ID, run.Status, run.Backend, run.Device,
					run.EpochsCompleted,
					run.StartedAt.Local().Format(time.RFC3339),
					run.ConfigPath)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "runs to skip")

	return cmd
}

func newRunsShowCommand(storePath *string) *cobra.Command {
	var showEvents bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run with its manifest and events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, *storePath)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(run, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				printRun(run)
			}

			if !showEvents {
				return nil
			}

			events, err := store.GetEvents(ctx, &run.ID, nil, 100, 0)
			if err != nil {
				return err
			}
			if jsonOutput {
				data, err := json.MarshalIndent(events, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Println("\nEvents:")
			for _, ev := range events {
				fmt.Printf("  %s  %-7s %s\n",
					ev.Timestamp.Local().Format(time.RFC3339), ev.Level, ev.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showEvents, "events", false, "include the run's event log")

	return cmd
}

func newRunsDeleteCommand(storePath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run and its events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, *storePath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteRun(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted run %s\n", args[0])
			return nil
		},
	}

	return cmd
}

func printRun(run *stores.Run) {
	fmt.Printf("ID:          %s\n", run.ID)
	fmt.Printf("Status:      %s\n", run.Status)
	fmt.Printf("Backend:     %s\n", run.Backend)
	fmt.Printf("Device:      %s\n", run.Device)
	fmt.Printf("Document:    %s\n", run.ConfigPath)
	fmt.Printf("Config hash: %s\n", run.ConfigHash)
	fmt.Printf("Epochs:      %d\n", run.EpochsCompleted)
	fmt.Printf("Started:     %s\n", run.StartedAt.Local().Format(time.RFC3339))
	if run.CompletedAt != nil {
		fmt.Printf("Completed:   %s\n", run.CompletedAt.Local().Format(time.RFC3339))
	}
	if run.Error != nil {
		fmt.Printf("Error:       %s\n", *run.Error)
	}
}
