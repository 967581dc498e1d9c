package config

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolve_Interpolation(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantErr   bool
		errIs     error
		checkFunc func(*testing.T, Node)
	}{
		{
			name: "scalar reference takes literal value",
			content: `
hyperparameters:
  num_classes: 2
model:
  classes: ${hyperparameters.num_classes}
`,
			checkFunc: func(t *testing.T, root Node) {
				v, err := root.Int("model.classes")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if v != 2 {
					t.Errorf("expected 2, got %d", v)
				}
			},
		},
		{
			name: "whole reference keeps referent type",
			content: `
hyperparameters:
  lr: 0.001
optimizer:
  lr: ${hyperparameters.lr}
`,
			checkFunc: func(t *testing.T, root Node) {
				v, err := root.Float("optimizer.lr")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if v != 0.001 {
					t.Errorf("expected 0.001, got %v", v)
				}
			},
		},
		{
			name: "embedded reference stringifies scalar referent",
			content: `
hyperparameters:
  epochs: 10
run_name: exp-${hyperparameters.epochs}-epochs
`,
			checkFunc: func(t *testing.T, root Node) {
				v, err := root.String("run_name")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if v != "exp-10-epochs" {
					t.Errorf("expected %q, got %q", "exp-10-epochs", v)
				}
			},
		},
		{
			name: "reference to sub-node substitutes the resolved tree",
			content: `
defaults:
  loader:
    batch_size: 4
    shuffle: true
train_dataset:
  data_loader: ${defaults.loader}
`,
			checkFunc: func(t *testing.T, root Node) {
				bs, err := root.Int("train_dataset.data_loader.batch_size")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if bs != 4 {
					t.Errorf("expected 4, got %d", bs)
				}
			},
		},
		{
			name: "chained references resolve transitively",
			content: `
a: ${b}
b: ${c}
c: 42
`,
			checkFunc: func(t *testing.T, root Node) {
				v, err := root.Int("a")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if v != 42 {
					t.Errorf("expected 42, got %d", v)
				}
			},
		},
		{
			name: "dotted path traverses through a node reference",
			content: `
c:
  b: 1
a: ${c}
x: ${a.b}
`,
			checkFunc: func(t *testing.T, root Node) {
				v, err := root.Int("x")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if v != 1 {
					t.Errorf("expected 1, got %d", v)
				}
			},
		},
		{
			name: "dotted path traverses a mid-path reference hop",
			content: `
defaults:
  loader:
    batch_size: 4
train_dataset:
  data_loader: ${defaults.loader}
effective: ${train_dataset.data_loader.batch_size}
`,
			checkFunc: func(t *testing.T, root Node) {
				v, err := root.Int("effective")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if v != 4 {
					t.Errorf("expected 4, got %d", v)
				}
			},
		},
		{
			name: "cycle through a reference hop fails instead of looping",
			content: `
a: ${b.c}
b: ${a}
`,
			wantErr: true,
			errIs:   ErrCyclicReference,
		},
		{
			name: "missing path fails with the offending reference",
			content: `
model:
  classes: ${hyperparameters.num_classes}
`,
			wantErr: true,
			errIs:   ErrUnknownPath,
		},
		{
			name: "direct cycle fails instead of looping",
			content: `
a: ${b}
b: ${a}
`,
			wantErr: true,
			errIs:   ErrCyclicReference,
		},
		{
			name: "self cycle fails instead of looping",
			content: `
a: ${a}
`,
			wantErr: true,
			errIs:   ErrCyclicReference,
		},
		{
			name: "node referent cannot be embedded in a string",
			content: `
loader:
  batch_size: 4
name: prefix-${loader}
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseInline(tt.content)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}

			root, err := Resolve(doc.Root)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var rerr *ResolutionError
				if !errors.As(err, &rerr) {
					t.Fatalf("expected *ResolutionError, got %T: %v", err, err)
				}
				if tt.errIs != nil && !errors.Is(err, tt.errIs) {
					t.Errorf("expected error to wrap %v, got %v", tt.errIs, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.checkFunc != nil {
				tt.checkFunc(t, root)
			}
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	doc, err := ParseInline(`
hyperparameters:
  num_classes: 2
  lr: 0.001
model:
  classes: ${hyperparameters.num_classes}
train_dataset:
  augmentation_list:
    - name: flip
      p: 0.5
    - name: crop
      width: ${hyperparameters.num_classes}
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	once, err := Resolve(doc.Root)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	twice, err := Resolve(once)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("resolve is not idempotent:\nfirst:  %#v\nsecond: %#v", once, twice)
	}
	if HasReferences(once) {
		t.Error("resolved tree still contains references")
	}
	if got := CountReferences(doc.Root); got != 2 {
		t.Errorf("expected 2 references in the unresolved tree, got %d", got)
	}
	if got := CountReferences(once); got != 0 {
		t.Errorf("expected no references after resolve, got %d", got)
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	doc, err := ParseInline(`
a: 1
b: ${a}
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	before := doc.Root.Clone()

	if _, err := Resolve(doc.Root); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !reflect.DeepEqual(before, doc.Root) {
		t.Error("resolve mutated its input tree")
	}
}

func TestResolve_SequenceOrderPreserved(t *testing.T) {
	doc, err := ParseInline(`
size: 256
augmentations:
  - name: crop
    width: ${size}
  - name: flip
  - name: normalize
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	root, err := Resolve(doc.Root)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	seq, err := root.Seq("augmentations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seq) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(seq))
	}
	wantNames := []string{"crop", "flip", "normalize"}
	for i, want := range wantNames {
		elem, ok := seq[i].(Node)
		if !ok {
			t.Fatalf("element %d is not a node", i)
		}
		if elem["name"] != want {
			t.Errorf("element %d: expected name %q, got %v", i, want, elem["name"])
		}
	}
	if w, _ := root.Int("augmentations.0.width"); w != 256 {
		t.Errorf("expected width 256, got %d", w)
	}
}
