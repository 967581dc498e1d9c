package components

import (
	"context"
	"fmt"

	"github.com/segtrain/segtrain/pkg/registry"
)

// TrainerSpec describes the training-loop driver handed to the external
// framework. Fields mirror the driver's constructor keywords.
type TrainerSpec struct {
	MaxEpochs               int     `yaml:"max_epochs" validate:"required,min=1"`
	Precision               string  `yaml:"precision" validate:"omitempty,oneof=16 32 64 bf16 16-mixed bf16-mixed"`
	AccumulateGradBatches   int     `yaml:"accumulate_grad_batches" validate:"omitempty,min=1"`
	GradientClipVal         float64 `yaml:"gradient_clip_val" validate:"omitempty,gt=0"`
	CheckValEveryNEpoch     int     `yaml:"check_val_every_n_epoch" validate:"omitempty,min=1"`
	LogEveryNSteps          int     `yaml:"log_every_n_steps" validate:"omitempty,min=1"`
	EnableProgressBar       bool    `yaml:"enable_progress_bar"`
	DeterministicExecution  bool    `yaml:"deterministic"`
	NumSanityValidationRuns int     `yaml:"num_sanity_val_steps" validate:"omitempty,min=0"`
}

// Kind implements experiment.Component.
func (s *TrainerSpec) Kind() string { return "trainer" }

// Describe implements experiment.Component.
func (s *TrainerSpec) Describe() string {
	return fmt.Sprintf("Trainer(max_epochs=%d)", s.MaxEpochs)
}

// Epochs implements experiment.Trainer.
func (s *TrainerSpec) Epochs() int { return s.MaxEpochs }

func newTrainer(ctx context.Context, args registry.Args) (any, error) {
	spec := &TrainerSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	return spec, nil
}
