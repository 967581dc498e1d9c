package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segtrain/segtrain/pkg/backend"
	"github.com/segtrain/segtrain/pkg/components"
	"github.com/segtrain/segtrain/pkg/config"
	"github.com/segtrain/segtrain/pkg/experiment"
	"github.com/segtrain/segtrain/pkg/stores"
	"github.com/segtrain/segtrain/pkg/telemetry"
	"github.com/spf13/cobra"
)

func newTrainCommand() *cobra.Command {
	var (
		backendName   string
		storePath     string
		runDir        string
		command       []string
		epochInterval time.Duration
		metricsAddr   string
	)

	cmd := &cobra.Command{
		Use:   "train <document>",
		Short: "Assemble an experiment document and run it",
		Long: `Assemble an experiment document and hand it to a training backend.

The document is resolved, every component group is instantiated, and the
assembled experiment is executed by the selected backend. Run metadata and
events are recorded in the SQLite run database.

Backends:
  dryrun  steps through the epoch schedule without training (default)
  exec    writes the experiment manifest and invokes an external trainer`,
		Example: `  # Dry-run an experiment
  segtrain train train.yaml

  # Hand off to an external trainer process
  segtrain train train.yaml --backend exec --run-dir ./runs \
    --command python --command -m --command trainer

  # Expose Prometheus metrics while training
  segtrain train train.yaml --metrics-addr :9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.Context(), trainOptions{
				documentPath:  args[0],
				backendName:   backendName,
				storePath:     storePath,
				runDir:        runDir,
				command:       command,
				epochInterval: epochInterval,
				metricsAddr:   metricsAddr,
			})
		},
	}

	cmd.Flags().StringVarP(&backendName, "backend", "b", "dryrun", "training backend (dryrun, exec)")
	cmd.Flags().StringVar(&storePath, "store", "./data/segtrain.db", "run database path")
	cmd.Flags().StringVar(&runDir, "run-dir", "./data/runs", "directory for run artifacts")
	cmd.Flags().StringArrayVar(&command, "command", nil, "external trainer command (exec backend, repeatable)")
	cmd.Flags().DurationVar(&epochInterval, "epoch-interval", 0, "simulated epoch duration (dryrun backend)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address")

	return cmd
}

type trainOptions struct {
	documentPath  string
	backendName   string
	storePath     string
	runDir        string
	command       []string
	epochInterval time.Duration
	metricsAddr   string
}

func runTrain(ctx context.Context, opts trainOptions) error {
	tel, err := setupTelemetry(opts.metricsAddr)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()
	ctx = tel.WithContext(ctx)

	reg := components.NewRegistry()

	doc, err := config.Load(opts.documentPath)
	if err != nil {
		return err
	}

	var resolved config.Node
	err = telemetry.RecordResolveOperation(ctx, opts.documentPath, func(ctx context.Context) error {
		var err error
		resolved, err = doc.Resolve()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to resolve document: %w", err)
	}
	tel.Metrics.RecordReferencesResolved(config.CountReferences(doc.Root))

	var exp *experiment.Experiment
	err = telemetry.RecordBuildOperation(ctx, opts.documentPath, func(ctx context.Context) error {
		var err error
		exp, err = experiment.Assemble(ctx, resolved, reg)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to assemble experiment: %w", err)
	}

	manifest, err := exp.Manifest()
	if err != nil {
		return fmt.Errorf("failed to render manifest: %w", err)
	}
	hash := sha256.Sum256(manifest)

	store, err := openStore(ctx, opts.storePath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := &stores.Run{
		ID:         uuid.New().String(),
		ConfigPath: opts.documentPath,
		ConfigHash: hex.EncodeToString(hash[:]),
		Backend:    opts.backendName,
		Device:     exp.Device.String(),
		Status:     stores.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
		Manifest:   string(manifest),
	}
	if err := store.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	appendRunEvent(ctx, store, run.ID, stores.EventLevelInfo,
		fmt.Sprintf("run started on backend %s", opts.backendName))

	log.Info().
		Str("run_id", run.ID).
		Str("backend", opts.backendName).
		Str("device", run.Device).
		Int("epochs", exp.Trainer.Epochs()).
		Msg("Starting training run")

	runner, err := backend.Open(opts.backendName, backend.Options{
		Logger:        log.With().Str("run_id", run.ID).Logger(),
		RunDir:        filepath.Join(opts.runDir, run.ID),
		Command:       opts.command,
		EpochInterval: opts.epochInterval,
	})
	if err != nil {
		failRun(ctx, store, run.ID, err)
		return err
	}

	runCtx := telemetry.WithRunContext(ctx, run.ID, opts.backendName)
	result, runErr := runner.Run(runCtx, exp)

	if runErr != nil && result == nil {
		telemetry.EndRunContext(runCtx, opts.backendName, experiment.StatusFailed, 0, runErr)
		failRun(ctx, store, run.ID, runErr)
		return runErr
	}
	telemetry.EndRunContext(runCtx, opts.backendName, result.Status, result.EpochsCompleted, runErr)

	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
		appendRunEvent(ctx, store, run.ID, stores.EventLevelError, msg)
	}
	status := stores.RunStatus(result.Status)
	if err := store.UpdateRunStatus(ctx, run.ID, status, result.EpochsCompleted, errMsg); err != nil {
		return fmt.Errorf("failed to record run outcome: %w", err)
	}
	appendRunEvent(ctx, store, run.ID, stores.EventLevelInfo,
		fmt.Sprintf("run %s after %d epochs in %s", result.Status, result.EpochsCompleted, result.Duration.Round(time.Millisecond)))

	log.Info().
		Str("run_id", run.ID).
		Str("status", result.Status).
		Int("epochs_completed", result.EpochsCompleted).
		Dur("duration", result.Duration).
		Msg("Training run finished")

	if runErr != nil {
		return runErr
	}
	fmt.Printf("Run %s %s (%d epochs, %s)\n",
		run.ID, result.Status, result.EpochsCompleted, result.Duration.Round(time.Millisecond))
	return nil
}

func setupTelemetry(metricsAddr string) (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if jsonOutput {
		cfg.Logging.Format = "json"
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = metricsAddr
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if cfg.Metrics.Enabled {
		if err := tel.StartMetricsServer(); err != nil {
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
	}
	return tel, nil
}

func openStore(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return store, nil
}

func failRun(ctx context.Context, store *stores.SQLiteStore, runID string, runErr error) {
	msg := runErr.Error()
	appendRunEvent(ctx, store, runID, stores.EventLevelError, msg)
	if err := store.UpdateRunStatus(ctx, runID, stores.RunStatusFailed, 0, &msg); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("Failed to record run failure")
	}
}

func appendRunEvent(ctx context.Context, store *stores.SQLiteStore, runID string, level stores.EventLevel, msg string) {
	event := &stores.Event{
		RunID:     &runID,
		Level:     level,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
	if err := store.AppendEvent(ctx, event); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("Failed to append run event")
	}
}
