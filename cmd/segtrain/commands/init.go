package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/segtrain/segtrain/pkg/stores"
	"github.com/spf13/cobra"
)

const starterDocument = `hyperparameters:
  epochs: 30
  batch_size: 8
  max_lr: 0.0003
  num_classes: 1

model:
  _target_: segmentation_models_pytorch.Unet
  encoder_name: resnet34
  encoder_weights: imagenet
  in_channels: 3
  classes: 1

pl_model:
  _target_: model_loader.SegmentationPLModel
  loss: dice
  model: ${model}

optimizer:
  _target_: torch.optim.AdamW
  lr: ${hyperparameters.max_lr}
  weight_decay: 0.0001

device: cpu

metrics:
  - _target_: torchmetrics.JaccardIndex
    task: binary

pl_trainer:
  _target_: pytorch_lightning.Trainer
  max_epochs: ${hyperparameters.epochs}

train_dataset:
  _target_: dataset_loader.SegmentationDataset
  input_csv_path: data/train.csv
  data_loader:
    batch_size: ${hyperparameters.batch_size}
    shuffle: true
  augmentation_list:
    - _target_: albumentations.RandomCrop
      height: 256
      width: 256
    - _target_: albumentations.HorizontalFlip
      p: 0.5
    - _target_: albumentations.Normalize
    - _target_: albumentations.pytorch.ToTensorV2

val_dataset:
  _target_: dataset_loader.SegmentationDataset
  input_csv_path: data/val.csv
  data_loader:
    batch_size: ${hyperparameters.batch_size}
  augmentation_list:
    - _target_: albumentations.CenterCrop
      height: 256
      width: 256
    - _target_: albumentations.Normalize
    - _target_: albumentations.pytorch.ToTensorV2
`

func newInitCommand() *cobra.Command {
	var (
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a segtrain workspace",
		Long: `Initialize a new segtrain workspace with a starter experiment document,
a run database and data directories.`,
		Example: `  # Initialize in the current directory
  segtrain init

  # Initialize with a custom data directory
  segtrain init --data-dir /var/lib/segtrain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			log.Info().
				Str("data_dir", dataDir).
				Msg("Initializing workspace")

			dirs := []string{
				dataDir,
				filepath.Join(dataDir, "runs"),
			}
			for _, dir := range dirs {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
				fmt.Printf("✓ Created directory: %s\n", dir)
			}

			dbPath := filepath.Join(dataDir, "segtrain.db")
			store, err := stores.NewSQLiteStore(stores.Config{Path: dbPath})
			if err != nil {
				return fmt.Errorf("failed to create store: %w", err)
			}
			if err := store.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			if err := store.Migrate(ctx); err != nil {
				_ = store.Close()
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			if err := store.Close(); err != nil {
				return fmt.Errorf("failed to close store: %w", err)
			}
			fmt.Printf("✓ Initialized run database: %s\n", dbPath)

			// Sample dataset indexes so the starter document assembles.
			sampleCSV := "image_path,mask_path\nimages/0001.png,masks/0001.png\n"
			for _, name := range []string{"train.csv", "val.csv"} {
				csvPath := filepath.Join(dataDir, name)
				if _, err := os.Stat(csvPath); err == nil {
					fmt.Printf("• Skipped %s (already exists)\n", csvPath)
					continue
				}
				if err := os.WriteFile(csvPath, []byte(sampleCSV), 0o644); err != nil {
					return fmt.Errorf("failed to write sample index: %w", err)
				}
				fmt.Printf("✓ Wrote sample dataset index: %s\n", csvPath)
			}

			docPath := "train.yaml"
			if _, err := os.Stat(docPath); err == nil {
				fmt.Printf("• Skipped %s (already exists)\n", docPath)
			} else {
				if err := os.WriteFile(docPath, []byte(starterDocument), 0o644); err != nil {
					return fmt.Errorf("failed to write starter document: %w", err)
				}
				fmt.Printf("✓ Wrote starter document: %s\n", docPath)
			}

			fmt.Println("\nWorkspace ready. Next steps:")
			fmt.Println("  segtrain validate train.yaml")
			fmt.Println("  segtrain train train.yaml --backend dryrun")

			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "workspace data directory")

	return cmd
}
