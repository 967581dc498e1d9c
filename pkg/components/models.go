package components

import (
	"context"
	"fmt"

	"github.com/segtrain/segtrain/pkg/experiment"
	"github.com/segtrain/segtrain/pkg/registry"
)

// SegmentationModelSpec describes an encoder-decoder segmentation
// architecture from the external model zoo.
type SegmentationModelSpec struct {
	arch string

	EncoderName    string `yaml:"encoder_name" validate:"required"`
	EncoderWeights string `yaml:"encoder_weights"`
	InChannels     int    `yaml:"in_channels" validate:"required,min=1"`
	Classes        int    `yaml:"classes" validate:"required,min=1"`
	Activation     string `yaml:"activation" validate:"omitempty,oneof=sigmoid softmax identity"`
}

// Arch returns the architecture name (Unet, DeepLabV3Plus, ...).
func (s *SegmentationModelSpec) Arch() string { return s.arch }

// Kind implements experiment.Component.
func (s *SegmentationModelSpec) Kind() string { return "model" }

// Describe implements experiment.Component.
func (s *SegmentationModelSpec) Describe() string {
	return fmt.Sprintf("%s(encoder=%s, in=%d, classes=%d)", s.arch, s.EncoderName, s.InChannels, s.Classes)
}

// Channels implements experiment.Model.
func (s *SegmentationModelSpec) Channels() (int, int) { return s.InChannels, s.Classes }

func modelFactory(arch string) registry.Factory {
	return func(ctx context.Context, args registry.Args) (any, error) {
		spec := &SegmentationModelSpec{arch: arch}
		if err := args.Decode(spec); err != nil {
			return nil, err
		}
		return spec, nil
	}
}

// PLModelSpec wraps a model with the training-loop module the external
// framework expects: a loss and an already-instantiated inner model.
type PLModelSpec struct {
	Loss string `yaml:"loss" validate:"required"`

	model experiment.Model
}

// Model returns the wrapped model descriptor.
func (s *PLModelSpec) Model() experiment.Model { return s.model }

// Kind implements experiment.Component.
func (s *PLModelSpec) Kind() string { return "model" }

// Describe implements experiment.Component.
func (s *PLModelSpec) Describe() string {
	return fmt.Sprintf("SegmentationPLModel(loss=%s, model=%s)", s.Loss, s.model.Describe())
}

// Channels implements experiment.Model by delegating to the wrapped model.
func (s *PLModelSpec) Channels() (int, int) { return s.model.Channels() }

func newPLModel(ctx context.Context, args registry.Args) (any, error) {
	spec := &PLModelSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}

	inner, ok := args.Get("model")
	if !ok {
		return nil, fmt.Errorf("pl_model requires a nested model")
	}
	m, ok := inner.(experiment.Model)
	if !ok {
		return nil, fmt.Errorf("nested model is %T, expected a model target", inner)
	}
	spec.model = m
	return spec, nil
}
