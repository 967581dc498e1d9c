package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseInline(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantErr   string
		checkFunc func(*testing.T, *Document)
	}{
		{
			name: "nested groups and sequences",
			content: `
model:
  encoder: resnet34
train_dataset:
  augmentation_list:
    - name: flip
    - name: crop
`,
			checkFunc: func(t *testing.T, doc *Document) {
				enc, err := doc.Root.String("model.encoder")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if enc != "resnet34" {
					t.Errorf("expected resnet34, got %s", enc)
				}
				seq, err := doc.Root.Seq("train_dataset.augmentation_list")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(seq) != 2 {
					t.Errorf("expected 2 augmentations, got %d", len(seq))
				}
			},
		},
		{
			name:    "empty document yields empty root",
			content: "",
			checkFunc: func(t *testing.T, doc *Document) {
				if len(doc.Root) != 0 {
					t.Errorf("expected empty root, got %v", doc.Root)
				}
			},
		},
		{
			name:    "scalar root is rejected",
			content: "just a string",
			wantErr: "not a mapping",
		},
		{
			name:    "invalid YAML is rejected",
			content: "a: [unclosed",
			wantErr: "yaml",
		},
		{
			name:    "non-string mapping key reports its line",
			content: "model:\n  1: resnet34\n",
			wantErr: "line 2: mapping key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseInline(tt.content)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.checkFunc != nil {
				tt.checkFunc(t, doc)
			}
		})
	}
}

func TestParseInline_RecordsPositions(t *testing.T) {
	doc, err := ParseInline(`
model:
  encoder: resnet34
metrics:
  - task: binary
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	tests := []struct {
		path     string
		wantLine int
	}{
		{path: "model", wantLine: 3},
		{path: "model.encoder", wantLine: 3},
		{path: "metrics.0", wantLine: 5},
		{path: "metrics.0.task", wantLine: 5},
	}
	for _, tt := range tests {
		pos, ok := doc.PositionOf(tt.path)
		if !ok {
			t.Errorf("no position recorded for %s", tt.path)
			continue
		}
		if pos.Line != tt.wantLine {
			t.Errorf("%s: expected line %d, got %d", tt.path, tt.wantLine, pos.Line)
		}
	}

	if _, ok := doc.PositionOf("no.such.path"); ok {
		t.Error("expected no position for an unknown path")
	}
}

func TestDocumentResolve_AnnotatesPosition(t *testing.T) {
	doc, err := ParseInline(`
hyperparameters:
  epochs: 10
model:
  classes: ${hyperparameters.num_classes}
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	_, err = doc.Resolve()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *ResolutionError, got %T: %v", err, err)
	}
	if rerr.Pos.Line != 5 {
		t.Errorf("expected line 5, got %d", rerr.Pos.Line)
	}
	if !strings.Contains(err.Error(), "line 5") {
		t.Errorf("expected message to carry the line, got %q", err)
	}
}

func TestLoadDir_MergesTopLevelGroups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "10_model.yaml"), "model:\n  encoder: resnet34\n")
	writeFile(t, filepath.Join(dir, "20_optimizer.yaml"), "optimizer:\n  lr: 0.001\n")

	doc, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.SourceFiles) != 2 {
		t.Fatalf("expected 2 source files, got %d", len(doc.SourceFiles))
	}
	if _, ok := doc.Root.Lookup("model.encoder"); !ok {
		t.Error("missing model group")
	}
	if _, ok := doc.Root.Lookup("optimizer.lr"); !ok {
		t.Error("missing optimizer group")
	}
}

func TestLoadDir_ConflictingGroups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "model:\n  encoder: resnet34\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "model:\n  encoder: resnet50\n")

	if _, err := LoadDir(dir); err == nil {
		t.Fatal("expected conflict error, got nil")
	}
}

func TestLoad_FileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "experiment.yaml")
	writeFile(t, file, "hyperparameters:\n  epochs: 3\n")

	doc, err := Load(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if epochs, _ := doc.Root.Int("hyperparameters.epochs"); epochs != 3 {
		t.Errorf("expected 3 epochs, got %d", epochs)
	}

	doc, err = Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if epochs, _ := doc.Root.Int("hyperparameters.epochs"); epochs != 3 {
		t.Errorf("expected 3 epochs from directory load, got %d", epochs)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing source")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
