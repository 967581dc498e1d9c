package components

import (
	"context"
	"fmt"

	"github.com/segtrain/segtrain/pkg/experiment"
	"github.com/segtrain/segtrain/pkg/registry"
)

// SingleImageProcessorSpec describes the prediction post-processor that
// thresholds a sigmoid mask and optionally hands it to a polygonizer.
type SingleImageProcessorSpec struct {
	Threshold float64 `yaml:"threshold" validate:"omitempty,gt=0,max=1"`

	polygonizer experiment.Polygonizer
}

// Kind implements experiment.Component.
func (s *SingleImageProcessorSpec) Kind() string { return "inference_processor" }

// Describe implements experiment.Component.
func (s *SingleImageProcessorSpec) Describe() string {
	if s.polygonizer != nil {
		return fmt.Sprintf("SingleImageInferenceProcessor(threshold=%g, polygonizer=%s)",
			s.Threshold, s.polygonizer.Describe())
	}
	return fmt.Sprintf("SingleImageInferenceProcessor(threshold=%g)", s.Threshold)
}

// Polygonizer returns the attached polygonizer, or nil.
func (s *SingleImageProcessorSpec) Polygonizer() experiment.Polygonizer { return s.polygonizer }

func newSingleImageInferenceProcessor(ctx context.Context, args registry.Args) (any, error) {
	spec := &SingleImageProcessorSpec{Threshold: 0.5}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	if v, ok := args.Get("polygonizer"); ok {
		p, ok := v.(experiment.Polygonizer)
		if !ok {
			return nil, fmt.Errorf("polygonizer is %T, expected a polygonizer target", v)
		}
		spec.polygonizer = p
	}
	return spec, nil
}

// TemplatePolygonizerSpec describes a polygonizer that snaps detected
// regions to a template geometry before vectorizing.
type TemplatePolygonizerSpec struct {
	TemplatePath string  `yaml:"template_path" validate:"required"`
	Simplify     float64 `yaml:"simplify_tolerance" validate:"omitempty,min=0"`
	MinArea      float64 `yaml:"min_area" validate:"omitempty,min=0"`
}

// Kind implements experiment.Component.
func (s *TemplatePolygonizerSpec) Kind() string { return "polygonizer" }

// Describe implements experiment.Component.
func (s *TemplatePolygonizerSpec) Describe() string {
	return fmt.Sprintf("TemplatePolygonizerProcessor(template=%s)", s.TemplatePath)
}

func newTemplatePolygonizer(ctx context.Context, args registry.Args) (any, error) {
	spec := &TemplatePolygonizerSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	return spec, nil
}
