package components

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segtrain/segtrain/pkg/experiment"
	"github.com/segtrain/segtrain/pkg/registry"
)

// SegmentationDatasetSpec describes a CSV-indexed image/mask dataset.
// The CSV is read eagerly so a missing or empty index fails at assembly
// time rather than at the first training step.
type SegmentationDatasetSpec struct {
	InputCSVPath     string                  `yaml:"input_csv_path" validate:"required"`
	RootDir          string                  `yaml:"root_dir"`
	ImageKey         string                  `yaml:"image_key"`
	MaskKey          string                  `yaml:"mask_key"`
	NFirstRowsToRead int                     `yaml:"n_first_rows_to_read" validate:"omitempty,min=1"`
	DataLoader       experiment.LoaderParams `yaml:"data_loader"`

	transforms []experiment.Transform
	rows       int
}

// Kind implements experiment.Component.
func (s *SegmentationDatasetSpec) Kind() string { return "dataset" }

// Describe implements experiment.Component.
func (s *SegmentationDatasetSpec) Describe() string {
	return fmt.Sprintf("SegmentationDataset(csv=%s, rows=%d, transforms=%d)",
		filepath.Base(s.InputCSVPath), s.rows, len(s.transforms))
}

// Len implements experiment.Dataset.
func (s *SegmentationDatasetSpec) Len() int { return s.rows }

// Loader implements experiment.Dataset.
func (s *SegmentationDatasetSpec) Loader() experiment.LoaderParams { return s.DataLoader }

// Transforms returns the augmentation pipeline in declaration order.
func (s *SegmentationDatasetSpec) Transforms() []experiment.Transform { return s.transforms }

func newSegmentationDataset(ctx context.Context, args registry.Args) (any, error) {
	spec := &SegmentationDatasetSpec{
		ImageKey: "image_path",
		MaskKey:  "mask_path",
	}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}

	augs, err := args.Seq("augmentation_list")
	if err != nil {
		return nil, err
	}
	for i, v := range augs {
		t, ok := v.(experiment.Transform)
		if !ok {
			return nil, fmt.Errorf("augmentation_list[%d] is %T, expected a transform target", i, v)
		}
		spec.transforms = append(spec.transforms, t)
	}

	rows, err := countRows(spec.InputCSVPath, spec.ImageKey, spec.MaskKey, spec.NFirstRowsToRead)
	if err != nil {
		return nil, err
	}
	spec.rows = rows
	return spec, nil
}

// countRows reads the index CSV, checks the required columns exist, and
// returns the number of samples, capped at limit when limit > 0.
func countRows(path, imageKey, maskKey string, limit int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening dataset index: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("reading dataset index header: %w", err)
	}
	if !containsColumn(header, imageKey) {
		return 0, fmt.Errorf("dataset index %s has no column %q", path, imageKey)
	}
	if !containsColumn(header, maskKey) {
		return 0, fmt.Errorf("dataset index %s has no column %q", path, maskKey)
	}

	rows := 0
	for {
		if _, err := r.Read(); err != nil {
			break
		}
		rows++
		if limit > 0 && rows == limit {
			break
		}
	}
	if rows == 0 {
		return 0, fmt.Errorf("dataset index %s has no rows", path)
	}
	return rows, nil
}

func containsColumn(header []string, name string) bool {
	for _, h := range header {
		if h == name {
			return true
		}
	}
	return false
}
