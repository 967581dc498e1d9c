package experiment

import (
	"context"
	"fmt"

	"github.com/segtrain/segtrain/pkg/config"
	"github.com/segtrain/segtrain/pkg/registry"
)

// Inference is the assembled prediction wiring: the trained model descriptor
// with its checkpoint, the inference processor, and the optional polygonizer.
type Inference struct {
	Root config.Node

	Model          Model
	CheckpointPath string
	Processor      InferenceProcessor
	Polygonizer    Polygonizer
	ImageReader    string
	Threshold      float64
}

// AssembleInference resolves a prediction document and instantiates its
// components. The model group comes from training_cfg.pl_model, falling back
// to training_cfg.model.
func AssembleInference(ctx context.Context, root config.Node, reg *registry.Registry) (*Inference, error) {
	resolved, err := config.Resolve(root)
	if err != nil {
		return nil, err
	}

	inf := &Inference{Root: resolved, Threshold: 0.5}

	modelPath := "training_cfg.pl_model"
	if _, ok := resolved.Lookup(modelPath); !ok {
		modelPath = "training_cfg.model"
	}
	inf.Model, err = buildAs[Model](ctx, reg, resolved, modelPath, "model", true)
	if err != nil {
		return nil, err
	}

	inf.CheckpointPath, err = resolved.String("checkpoint_path")
	if err != nil {
		return nil, err
	}

	inf.Processor, err = buildAs[InferenceProcessor](ctx, reg, resolved, "inference_processor", "inference processor", true)
	if err != nil {
		return nil, err
	}
	inf.Polygonizer, err = buildAs[Polygonizer](ctx, reg, resolved, "polygonizer", "polygonizer", false)
	if err != nil {
		return nil, err
	}

	if _, ok := resolved.Lookup("image_reader"); ok {
		inf.ImageReader, err = resolved.String("image_reader")
		if err != nil {
			return nil, err
		}
	}

	if _, ok := resolved.Lookup("inference_threshold"); ok {
		inf.Threshold, err = resolved.Float("inference_threshold")
		if err != nil {
			return nil, err
		}
		if inf.Threshold <= 0 || inf.Threshold > 1 {
			return nil, fmt.Errorf("inference_threshold must be in (0, 1], got %v", inf.Threshold)
		}
	}

	return inf, nil
}
