package backend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/segtrain/segtrain/pkg/experiment"
)

// DryRun walks the configured epoch budget without executing any
// training. It is used to validate that a document assembles end to end
// and to exercise the run lifecycle without a GPU.
type DryRun struct {
	logger   zerolog.Logger
	interval time.Duration
}

// NewDryRun returns a dryrun runner.
func NewDryRun(opts Options) *DryRun {
	return &DryRun{logger: opts.Logger, interval: opts.EpochInterval}
}

// Run implements experiment.Runner.
func (d *DryRun) Run(ctx context.Context, exp *experiment.Experiment) (*experiment.Result, error) {
	epochs := exp.Trainer.Epochs()
	start := time.Now()

	d.logger.Info().
		Str("model", exp.Model.Describe()).
		Str("optimizer", exp.Optimizer.Describe()).
		Str("device", exp.Device.String()).
		Int("epochs", epochs).
		Int("train_samples", exp.TrainDataset.Len()).
		Msg("starting dry run")

	for epoch := 1; epoch <= epochs; epoch++ {
		select {
		case <-ctx.Done():
			d.logger.Warn().Int("epoch", epoch).Msg("dry run cancelled")
			return &experiment.Result{
				Status:          experiment.StatusCancelled,
				EpochsCompleted: epoch - 1,
				Duration:        time.Since(start),
			}, ctx.Err()
		default:
		}

		if d.interval > 0 {
			timer := time.NewTimer(d.interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return &experiment.Result{
					Status:          experiment.StatusCancelled,
					EpochsCompleted: epoch - 1,
					Duration:        time.Since(start),
				}, ctx.Err()
			case <-timer.C:
			}
		}

		d.logger.Info().
			Int("epoch", epoch).
			Int("of", epochs).
			Float64("lr", exp.Optimizer.LearningRate()).
			Msg("epoch complete")
	}

	return &experiment.Result{
		Status:          experiment.StatusCompleted,
		EpochsCompleted: epochs,
		Duration:        time.Since(start),
	}, nil
}
