package experiment

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/segtrain/segtrain/pkg/config"
)

func TestParseDevice(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Device
		wantErr string
	}{
		{name: "absent defaults to cpu", in: nil, want: Device{Type: "cpu"}},
		{name: "cpu scalar", in: "cpu", want: Device{Type: "cpu"}},
		{name: "cuda scalar", in: "cuda", want: Device{Type: "cuda"}},
		{name: "cuda with index", in: "cuda:1", want: Device{Type: "cuda", Index: 1}},
		{name: "mapping form", in: map[string]any{"type": "cuda", "index": 2}, want: Device{Type: "cuda", Index: 2}},
		{name: "node form", in: config.Node{"type": "cuda"}, want: Device{Type: "cuda"}},
		{name: "bad index", in: "cuda:x", wantErr: "invalid device index"},
		{name: "negative index", in: map[string]any{"type": "cuda", "index": -1}, wantErr: "invalid device index"},
		{name: "unsupported type", in: "tpu", wantErr: "unsupported device type"},
		{name: "wrong shape", in: 7, wantErr: "device must be a string or mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDevice(tt.in)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDevice_String(t *testing.T) {
	if got := (Device{Type: "cpu"}).String(); got != "cpu" {
		t.Errorf("expected cpu, got %s", got)
	}
	if got := (Device{Type: "cuda", Index: 3}).String(); got != "cuda:3" {
		t.Errorf("expected cuda:3, got %s", got)
	}
}

type fakeComponent struct {
	kind string
	desc string
}

func (f fakeComponent) Kind() string { return f.kind }
func (f fakeComponent) Describe() string { return f.desc }

type fakeModel struct{ fakeComponent }

func (fakeModel) Channels() (int, int) { return 3, 1 }

type fakeOptimizer struct{ fakeComponent }

func (fakeOptimizer) LearningRate() float64 { return 0.0003 }

type fakeTrainer struct{ fakeComponent }

func (fakeTrainer) Epochs() int { return 5 }

type fakeDataset struct{ fakeComponent }

func (fakeDataset) Len() int { return 10 }
func (fakeDataset) Loader() LoaderParams { return LoaderParams{BatchSize: 4} }

type fakeMetric struct{ fakeComponent }

func (fakeMetric) MetricName() string { return "iou" }

func TestExperiment_Manifest(t *testing.T) {
	exp := &Experiment{
		Root:         config.Node{"device": "cpu"},
		Model:        fakeModel{fakeComponent{"model", "Unet(resnet34)"}},
		Optimizer:    fakeOptimizer{fakeComponent{"optimizer", "AdamW(lr=0.0003)"}},
		Trainer:      fakeTrainer{fakeComponent{"trainer", "Trainer(epochs=5)"}},
		TrainDataset: fakeDataset{fakeComponent{"dataset", "Dataset(10 rows)"}},
		Device:       Device{Type: "cpu"},
		Metrics:      []Metric{fakeMetric{fakeComponent{"metric", "JaccardIndex(binary)"}}},
	}

	data, err := exp.Manifest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var manifest struct {
		Config     map[string]any    `json:"config"`
		Components map[string]string `json:"components"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}

	if manifest.Config["device"] != "cpu" {
		t.Errorf("expected resolved tree in manifest, got %v", manifest.Config)
	}
	want := map[string]string{
		"model":         "Unet(resnet34)",
		"optimizer":     "AdamW(lr=0.0003)",
		"pl_trainer":    "Trainer(epochs=5)",
		"train_dataset": "Dataset(10 rows)",
		"device":        "cpu",
		"metrics.0":     "JaccardIndex(binary)",
	}
	for key, desc := range want {
		if manifest.Components[key] != desc {
			t.Errorf("components[%q]: expected %q, got %q", key, desc, manifest.Components[key])
		}
	}
	if _, ok := manifest.Components["pl_model"]; ok {
		t.Error("absent pl_model should not appear in the manifest")
	}
	if _, ok := manifest.Components["val_dataset"]; ok {
		t.Error("absent val_dataset should not appear in the manifest")
	}
}
