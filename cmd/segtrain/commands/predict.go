package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/segtrain/segtrain/pkg/backend"
	"github.com/segtrain/segtrain/pkg/components"
	"github.com/segtrain/segtrain/pkg/config"
	"github.com/segtrain/segtrain/pkg/experiment"
	"github.com/spf13/cobra"
)

func newPredictCommand() *cobra.Command {
	var (
		manifestPath string
		runDir       string
		command      []string
	)

	cmd := &cobra.Command{
		Use:   "predict <document>",
		Short: "Assemble a prediction document",
		Long: `Assemble a prediction document: the trained model with its checkpoint,
the inference processor and the optional polygonizer.

The assembled wiring is printed as a summary, written as a JSON manifest
with --manifest, or handed to an external inference process with --command.`,
		Example: `  # Check a prediction document and print its wiring
  segtrain predict predict.yaml

  # Write the inference manifest for an external process
  segtrain predict predict.yaml --manifest inference.json

  # Hand off to an external inference process
  segtrain predict predict.yaml --run-dir ./data/runs \
    --command python --command -m --command inference`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg := components.NewRegistry()

			doc, err := config.Load(args[0])
			if err != nil {
				return err
			}

			inf, err := experiment.AssembleInference(ctx, doc.Root, reg)
			if err != nil {
				return fmt.Errorf("failed to assemble inference: %w", err)
			}

			summary := inferenceSummary(inf)

			if manifestPath != "" || len(command) > 0 {
				data, err := json.MarshalIndent(struct {
					Config     config.Node       `json:"config"`
					Components map[string]string `json:"components"`
				}{Config: inf.Root, Components: summary}, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to render manifest: %w", err)
				}
				if len(command) > 0 {
					runner, err := backend.NewExec(backend.Options{
						Logger:  log.Logger,
						RunDir:  runDir,
						Command: command,
					})
					if err != nil {
						return err
					}
					return runner.RunManifest(ctx, "inference.json", data)
				}
				if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
					return fmt.Errorf("failed to write manifest: %w", err)
				}
				log.Info().Str("manifest", manifestPath).Msg("Inference manifest written")
				return nil
			}

			if jsonOutput {
				data, err := json.MarshalIndent(summary, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("model:               %s\n", inf.Model.Describe())
			fmt.Printf("checkpoint:          %s\n", inf.CheckpointPath)
			fmt.Printf("inference_processor: %s\n", inf.Processor.Describe())
			if inf.Polygonizer != nil {
				fmt.Printf("polygonizer:         %s\n", inf.Polygonizer.Describe())
			}
			if inf.ImageReader != "" {
				fmt.Printf("image_reader:        %s\n", inf.ImageReader)
			}
			fmt.Printf("threshold:           %g\n", inf.Threshold)
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "write the inference manifest to this path")
	cmd.Flags().StringVar(&runDir, "run-dir", "./data/runs", "directory for inference artifacts")
	cmd.Flags().StringArrayVar(&command, "command", nil, "external inference command (repeatable)")

	return cmd
}

func inferenceSummary(inf *experiment.Inference) map[string]string {
	summary := map[string]string{
		"model":               inf.Model.Describe(),
		"checkpoint_path":     inf.CheckpointPath,
		"inference_processor": inf.Processor.Describe(),
		"threshold":           fmt.Sprintf("%g", inf.Threshold),
	}
	if inf.Polygonizer != nil {
		summary["polygonizer"] = inf.Polygonizer.Describe()
	}
	if inf.ImageReader != "" {
		summary["image_reader"] = inf.ImageReader
	}
	return summary
}
