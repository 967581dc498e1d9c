package components

import (
	"context"
	"fmt"

	"github.com/segtrain/segtrain/pkg/registry"
)

// AdamWSpec describes the AdamW optimizer configuration handed to the
// external training framework.
type AdamWSpec struct {
	LR          float64   `yaml:"lr" validate:"required,gt=0"`
	Betas       []float64 `yaml:"betas" validate:"omitempty,len=2,dive,gt=0,lt=1"`
	Eps         float64   `yaml:"eps" validate:"omitempty,gt=0"`
	WeightDecay float64   `yaml:"weight_decay" validate:"omitempty,min=0"`
}

// Kind implements experiment.Component.
func (s *AdamWSpec) Kind() string { return "optimizer" }

// Describe implements experiment.Component.
func (s *AdamWSpec) Describe() string {
	return fmt.Sprintf("AdamW(lr=%g, weight_decay=%g)", s.LR, s.WeightDecay)
}

// LearningRate implements experiment.Optimizer.
func (s *AdamWSpec) LearningRate() float64 { return s.LR }

func newAdamW(ctx context.Context, args registry.Args) (any, error) {
	spec := &AdamWSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

// SGDSpec describes a stochastic gradient descent optimizer.
type SGDSpec struct {
	LR          float64 `yaml:"lr" validate:"required,gt=0"`
	Momentum    float64 `yaml:"momentum" validate:"omitempty,min=0,lt=1"`
	WeightDecay float64 `yaml:"weight_decay" validate:"omitempty,min=0"`
	Nesterov    bool    `yaml:"nesterov"`
}

// Kind implements experiment.Component.
func (s *SGDSpec) Kind() string { return "optimizer" }

// Describe implements experiment.Component.
func (s *SGDSpec) Describe() string {
	return fmt.Sprintf("SGD(lr=%g, momentum=%g)", s.LR, s.Momentum)
}

// LearningRate implements experiment.Optimizer.
func (s *SGDSpec) LearningRate() float64 { return s.LR }

func newSGD(ctx context.Context, args registry.Args) (any, error) {
	spec := &SGDSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	return spec, nil
}
