package experiment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segtrain/segtrain/pkg/config"
)

// Component is the contract every instantiated configuration target
// satisfies.
type Component interface {
	// Kind names the component family (model, optimizer, transform, ...).
	Kind() string

	// Describe returns a short human-readable summary for logs and run
	// manifests.
	Describe() string
}

// Model is a segmentation model descriptor.
type Model interface {
	Component

	// Channels returns the input and output channel counts.
	Channels() (in, out int)
}

// Optimizer is an optimizer descriptor.
type Optimizer interface {
	Component

	// LearningRate returns the configured base learning rate.
	LearningRate() float64
}

// Transform is a single augmentation pipeline step.
type Transform interface {
	Component
}

// Metric is an evaluation metric descriptor.
type Metric interface {
	Component

	// MetricName returns the metric's reporting name.
	MetricName() string
}

// Dataset is a dataset descriptor bound to its data-loader parameters.
type Dataset interface {
	Component

	// Len returns the number of samples.
	Len() int

	// Loader returns the data-loader parameters.
	Loader() LoaderParams
}

// Trainer is the training-loop descriptor handed to the backend.
type Trainer interface {
	Component

	// Epochs returns the configured epoch budget.
	Epochs() int
}

// InferenceProcessor consumes model outputs during prediction.
type InferenceProcessor interface {
	Component
}

// Polygonizer turns segmentation masks into vector geometries; it is an
// optional collaborator of an inference processor.
type Polygonizer interface {
	Component
}

// LoaderParams are the data-loader parameters of a dataset group.
type LoaderParams struct {
	BatchSize      int  `yaml:"batch_size" validate:"omitempty,min=1"`
	Shuffle        bool `yaml:"shuffle"`
	NumWorkers     int  `yaml:"num_workers" validate:"min=0"`
	DropLast       bool `yaml:"drop_last"`
	PrefetchFactor int  `yaml:"prefetch_factor" validate:"min=0"`
}

// Hyperparameters is the plain (non-target) hyperparameters group.
type Hyperparameters struct {
	Epochs       int     `yaml:"epochs" validate:"required,min=1"`
	BatchSize    int     `yaml:"batch_size" validate:"required,min=1"`
	MaxLR        float64 `yaml:"max_lr" validate:"required,gt=0"`
	NumClasses   int     `yaml:"num_classes" validate:"required,min=1"`
	Seed         int64   `yaml:"seed" validate:"omitempty"`
	GradientClip float64 `yaml:"gradient_clip" validate:"omitempty,gt=0"`
}

// Device is the compute placement of a run.
type Device struct {
	// Type is cpu or cuda.
	Type string

	// Index is the device ordinal; meaningful for cuda only.
	Index int
}

// String returns the device in the cuda:N notation.
func (d Device) String() string {
	if d.Type == "cuda" {
		return fmt.Sprintf("cuda:%d", d.Index)
	}
	return d.Type
}

// ParseDevice accepts the scalar ("cpu", "cuda", "cuda:1") and mapping
// ({type: cuda, index: 1}) forms of the device group.
func ParseDevice(v any) (Device, error) {
	switch t := v.(type) {
	case nil:
		return Device{Type: "cpu"}, nil
	case string:
		name, idx, hasIdx := strings.Cut(t, ":")
		d := Device{Type: name}
		if hasIdx {
			i, err := strconv.Atoi(idx)
			if err != nil || i < 0 {
				return Device{}, fmt.Errorf("invalid device index %q", idx)
			}
			d.Index = i
		}
		return d, validateDevice(d)
	case config.Node:
		return parseDeviceNode(t)
	case map[string]any:
		return parseDeviceNode(t)
	default:
		return Device{}, fmt.Errorf("device must be a string or mapping (got %T)", v)
	}
}

func parseDeviceNode(n map[string]any) (Device, error) {
	d := Device{Type: "cpu"}
	if t, ok := n["type"].(string); ok {
		d.Type = t
	}
	switch i := n["index"].(type) {
	case nil:
	case int:
		d.Index = i
	case int64:
		d.Index = int(i)
	default:
		return Device{}, fmt.Errorf("device index must be an integer (got %T)", i)
	}
	if d.Index < 0 {
		return Device{}, fmt.Errorf("invalid device index %d", d.Index)
	}
	return d, validateDevice(d)
}

func validateDevice(d Device) error {
	switch d.Type {
	case "cpu", "cuda":
		return nil
	default:
		return fmt.Errorf("unsupported device type %q", d.Type)
	}
}

// Result is the outcome of running an experiment.
type Result struct {
	// Status is completed, failed or cancelled.
	Status string

	// EpochsCompleted is how many epochs finished before the run ended.
	EpochsCompleted int

	// Duration is the wall time of the run.
	Duration time.Duration
}

// Run result statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Runner executes an assembled experiment. Implementations are training
// backends; see the backend package.
type Runner interface {
	Run(ctx context.Context, exp *Experiment) (*Result, error)
}
