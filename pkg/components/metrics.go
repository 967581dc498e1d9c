package components

import (
	"context"
	"fmt"

	"github.com/segtrain/segtrain/pkg/registry"
)

// metricSpec carries the fields every evaluation metric shares.
type metricSpec struct {
	name string

	Task       string `yaml:"task" validate:"omitempty,oneof=binary multiclass multilabel"`
	NumClasses int    `yaml:"num_classes" validate:"omitempty,min=1"`
}

// Kind implements experiment.Component.
func (m *metricSpec) Kind() string { return "metric" }

// Describe implements experiment.Component.
func (m *metricSpec) Describe() string {
	return fmt.Sprintf("%s(task=%s, num_classes=%d)", m.name, m.Task, m.NumClasses)
}

// MetricName implements experiment.Metric.
func (m *metricSpec) MetricName() string { return m.name }

// JaccardIndexSpec describes an intersection-over-union metric.
type JaccardIndexSpec struct {
	metricSpec `yaml:",inline"`
}

func newJaccardIndex(ctx context.Context, args registry.Args) (any, error) {
	spec := &JaccardIndexSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	spec.name = "JaccardIndex"
	return spec, nil
}

// F1ScoreSpec describes an F1 evaluation metric.
type F1ScoreSpec struct {
	metricSpec `yaml:",inline"`

	Average string `yaml:"average" validate:"omitempty,oneof=micro macro weighted none"`
}

func newF1Score(ctx context.Context, args registry.Args) (any, error) {
	spec := &F1ScoreSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	spec.name = "F1Score"
	return spec, nil
}
