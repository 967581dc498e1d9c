package backend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/segtrain/segtrain/pkg/experiment"
)

type stubModel struct{}

func (stubModel) Kind() string { return "model" }
func (stubModel) Describe() string { return "StubModel" }
func (stubModel) Channels() (int, int) { return 3, 2 }

type stubOptimizer struct{}

func (stubOptimizer) Kind() string { return "optimizer" }
func (stubOptimizer) Describe() string { return "StubOptimizer" }
func (stubOptimizer) LearningRate() float64 { return 0.001 }

type stubTrainer struct{ epochs int }

func (s stubTrainer) Kind() string { return "trainer" }
func (s stubTrainer) Describe() string { return "StubTrainer" }
func (s stubTrainer) Epochs() int { return s.epochs }

type stubDataset struct{ n int }

func (s stubDataset) Kind() string { return "dataset" }
func (s stubDataset) Describe() string { return "StubDataset" }
func (s stubDataset) Len() int { return s.n }
func (s stubDataset) Loader() experiment.LoaderParams { return experiment.LoaderParams{BatchSize: 2} }

func stubExperiment(epochs int) *experiment.Experiment {
	return &experiment.Experiment{
		Model:        stubModel{},
		Optimizer:    stubOptimizer{},
		Trainer:      stubTrainer{epochs: epochs},
		TrainDataset: stubDataset{n: 8},
		Device:       experiment.Device{Type: "cpu"},
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		opts    Options
		wantErr string
	}{
		{name: "dryrun", backend: "dryrun"},
		{
			name:    "exec",
			backend: "exec",
			opts:    Options{RunDir: t.TempDir(), Command: []string{"true"}},
		},
		{
			name:    "exec without run dir",
			backend: "exec",
			opts:    Options{Command: []string{"true"}},
			wantErr: "requires a run directory",
		},
		{
			name:    "exec without command",
			backend: "exec",
			opts:    Options{RunDir: t.TempDir()},
			wantErr: "requires a trainer command",
		},
		{
			name:    "unknown",
			backend: "slurm",
			wantErr: `unknown backend "slurm"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Open(tt.backend, tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Open() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if r == nil {
				t.Fatal("Open() returned nil runner")
			}
		})
	}
}

func TestDryRun_Completes(t *testing.T) {
	runner := NewDryRun(Options{Logger: zerolog.Nop()})

	res, err := runner.Run(context.Background(), stubExperiment(5))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != experiment.StatusCompleted {
		t.Errorf("Status = %q, want %q", res.Status, experiment.StatusCompleted)
	}
	if res.EpochsCompleted != 5 {
		t.Errorf("EpochsCompleted = %d, want 5", res.EpochsCompleted)
	}
}

func TestDryRun_Cancellation(t *testing.T) {
	runner := NewDryRun(Options{Logger: zerolog.Nop(), EpochInterval: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(75 * time.Millisecond)
		cancel()
	}()

	res, err := runner.Run(ctx, stubExperiment(100))
	if err == nil {
		t.Fatal("Run() error = nil, want context error")
	}
	if res.Status != experiment.StatusCancelled {
		t.Errorf("Status = %q, want %q", res.Status, experiment.StatusCancelled)
	}
	if res.EpochsCompleted >= 100 {
		t.Errorf("EpochsCompleted = %d, want partial progress", res.EpochsCompleted)
	}
}

func TestExec_WritesManifestAndRuns(t *testing.T) {
	runDir := t.TempDir()
	// The manifest path is appended as the last argument; with sh -c it
	// arrives as $0.
	runner, err := NewExec(Options{
		Logger:  zerolog.Nop(),
		RunDir:  runDir,
		Command: []string{"sh", "-c", `test -f "$0" && cat "$0"`},
	})
	if err != nil {
		t.Fatalf("NewExec() error = %v", err)
	}

	res, err := runner.Run(context.Background(), stubExperiment(3))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != experiment.StatusCompleted {
		t.Errorf("Status = %q, want %q", res.Status, experiment.StatusCompleted)
	}

	manifest, err := os.ReadFile(filepath.Join(runDir, "manifest.json"))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	for _, want := range []string{"StubModel", "StubOptimizer"} {
		if !strings.Contains(string(manifest), want) {
			t.Errorf("manifest missing %q", want)
		}
	}
}

func TestExec_FailureMapsExitCode(t *testing.T) {
	runner, err := NewExec(Options{
		Logger:  zerolog.Nop(),
		RunDir:  t.TempDir(),
		Command: []string{"sh", "-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("NewExec() error = %v", err)
	}

	res, err := runner.Run(context.Background(), stubExperiment(3))
	if err == nil || !strings.Contains(err.Error(), "exited with code 3") {
		t.Fatalf("Run() error = %v, want exit code 3", err)
	}
	if res.Status != experiment.StatusFailed {
		t.Errorf("Status = %q, want %q", res.Status, experiment.StatusFailed)
	}
}

func TestExec_RunManifest(t *testing.T) {
	runDir := t.TempDir()
	runner, err := NewExec(Options{
		Logger:  zerolog.Nop(),
		RunDir:  runDir,
		Command: []string{"sh", "-c", `test -f "$0"`},
	})
	if err != nil {
		t.Fatalf("NewExec() error = %v", err)
	}

	if err := runner.RunManifest(context.Background(), "inference.json", []byte(`{"threshold":0.5}`)); err != nil {
		t.Fatalf("RunManifest() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(runDir, "inference.json"))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if !strings.Contains(string(data), "threshold") {
		t.Errorf("manifest content = %s", data)
	}
}

func TestExec_StreamsLongOutputLines(t *testing.T) {
	var buf bytes.Buffer
	runner, err := NewExec(Options{
		Logger:  zerolog.New(&buf),
		RunDir:  t.TempDir(),
		Command: []string{"sh", "-c", `head -c 100000 /dev/zero | tr '\0' x; echo`},
	})
	if err != nil {
		t.Fatalf("NewExec() error = %v", err)
	}

	if err := runner.RunManifest(context.Background(), "manifest.json", []byte("{}")); err != nil {
		t.Fatalf("RunManifest() error = %v", err)
	}
	if !strings.Contains(buf.String(), strings.Repeat("x", 100000)) {
		t.Error("long trainer line was not streamed intact")
	}
}
