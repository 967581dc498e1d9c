package backend

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/segtrain/segtrain/pkg/experiment"
)

// maxLogLine caps a single trainer output line.
const maxLogLine = 4 * 1024 * 1024

// Exec hands an experiment to an external trainer process. The
// experiment manifest is written to the run directory and its path is
// appended to the configured command line.
type Exec struct {
	logger  zerolog.Logger
	runDir  string
	command []string
}

// NewExec returns an exec runner.
func NewExec(opts Options) (*Exec, error) {
	if opts.RunDir == "" {
		return nil, fmt.Errorf("exec backend requires a run directory")
	}
	if len(opts.Command) == 0 {
		return nil, fmt.Errorf("exec backend requires a trainer command")
	}
	return &Exec{logger: opts.Logger, runDir: opts.RunDir, command: opts.Command}, nil
}

// Run implements experiment.Runner.
func (e *Exec) Run(ctx context.Context, exp *experiment.Experiment) (*experiment.Result, error) {
	start := time.Now()

	manifest, err := exp.Manifest()
	if err != nil {
		return nil, fmt.Errorf("rendering manifest: %w", err)
	}

	err = e.launch(ctx, "manifest.json", manifest)
	result := &experiment.Result{
		EpochsCompleted: exp.Trainer.Epochs(),
		Duration:        time.Since(start),
	}

	switch {
	case ctx.Err() != nil:
		result.Status = experiment.StatusCancelled
		result.EpochsCompleted = 0
		return result, ctx.Err()
	case err != nil:
		result.Status = experiment.StatusFailed
		result.EpochsCompleted = 0
		return result, err
	default:
		result.Status = experiment.StatusCompleted
		return result, nil
	}
}

// RunManifest launches the external command on a pre-rendered manifest.
// Prediction handoff uses this; there is no epoch schedule to report.
func (e *Exec) RunManifest(ctx context.Context, name string, manifest []byte) error {
	return e.launch(ctx, name, manifest)
}

func (e *Exec) launch(ctx context.Context, manifestName string, manifest []byte) error {
	if err := os.MkdirAll(e.runDir, 0o755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}
	manifestPath := filepath.Join(e.runDir, manifestName)
	if err := os.WriteFile(manifestPath, manifest, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	args := append(append([]string{}, e.command[1:]...), manifestPath)
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	cmd.Dir = e.runDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("attaching stdout: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	e.logger.Info().
		Str("command", e.command[0]).
		Str("manifest", manifestPath).
		Msg("launching external trainer")

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting trainer: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	// Trainers emit very long progress lines; the default 64KiB token
	// limit would abort the stream mid-run.
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLine)
	for scanner.Scan() {
		e.logger.Info().Str("stream", "trainer").Msg(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		e.logger.Warn().Err(err).Msg("trainer output truncated")
	}

	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("trainer exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("trainer failed: %w", err)
	}
	return nil
}
