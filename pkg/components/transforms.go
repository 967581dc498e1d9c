package components

import (
	"context"
	"fmt"

	"github.com/segtrain/segtrain/pkg/registry"
)

// transformSpec carries what every augmentation descriptor shares: a
// display name and an application probability.
type transformSpec struct {
	name string
	p    float64
}

// Kind implements experiment.Component.
func (t *transformSpec) Kind() string { return "transform" }

// Describe implements experiment.Component.
func (t *transformSpec) Describe() string { return fmt.Sprintf("%s(p=%g)", t.name, t.p) }

// Probability returns the chance the transform is applied to a sample.
func (t *transformSpec) Probability() float64 { return t.p }

// RandomCropSpec crops a random window of the given size.
type RandomCropSpec struct {
	transformSpec

	Width  int      `yaml:"width" validate:"required,min=1"`
	Height int      `yaml:"height" validate:"required,min=1"`
	P      *float64 `yaml:"p" validate:"omitempty,min=0,max=1"`
}

func newRandomCrop(ctx context.Context, args registry.Args) (any, error) {
	spec := &RandomCropSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	spec.transformSpec = transformSpec{name: "RandomCrop", p: defaultP(spec.P, 1)}
	return spec, nil
}

// CenterCropSpec crops the central window of the given size.
type CenterCropSpec struct {
	transformSpec

	Width  int      `yaml:"width" validate:"required,min=1"`
	Height int      `yaml:"height" validate:"required,min=1"`
	P      *float64 `yaml:"p" validate:"omitempty,min=0,max=1"`
}

func newCenterCrop(ctx context.Context, args registry.Args) (any, error) {
	spec := &CenterCropSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	spec.transformSpec = transformSpec{name: "CenterCrop", p: defaultP(spec.P, 1)}
	return spec, nil
}

// HorizontalFlipSpec mirrors samples along the vertical axis.
type HorizontalFlipSpec struct {
	transformSpec

	P *float64 `yaml:"p" validate:"omitempty,min=0,max=1"`
}

func newHorizontalFlip(ctx context.Context, args registry.Args) (any, error) {
	spec := &HorizontalFlipSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	spec.transformSpec = transformSpec{name: "HorizontalFlip", p: defaultP(spec.P, 0.5)}
	return spec, nil
}

// NormalizeSpec scales pixel values using per-channel statistics.
type NormalizeSpec struct {
	transformSpec

	Mean        []float64 `yaml:"mean" validate:"omitempty,min=1"`
	Std         []float64 `yaml:"std" validate:"omitempty,min=1,dive,gt=0"`
	MaxPixelVal float64   `yaml:"max_pixel_value" validate:"omitempty,gt=0"`
	P           *float64  `yaml:"p" validate:"omitempty,min=0,max=1"`
}

func newNormalize(ctx context.Context, args registry.Args) (any, error) {
	spec := &NormalizeSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	if len(spec.Mean) != 0 && len(spec.Std) != 0 && len(spec.Mean) != len(spec.Std) {
		return nil, fmt.Errorf("mean has %d channels, std has %d", len(spec.Mean), len(spec.Std))
	}
	spec.transformSpec = transformSpec{name: "Normalize", p: defaultP(spec.P, 1)}
	return spec, nil
}

// HueSaturationValueSpec jitters image colors within the given limits.
type HueSaturationValueSpec struct {
	transformSpec

	HueShiftLimit int      `yaml:"hue_shift_limit" validate:"omitempty,min=0"`
	SatShiftLimit int      `yaml:"sat_shift_limit" validate:"omitempty,min=0"`
	ValShiftLimit int      `yaml:"val_shift_limit" validate:"omitempty,min=0"`
	P             *float64 `yaml:"p" validate:"omitempty,min=0,max=1"`
}

func newHueSaturationValue(ctx context.Context, args registry.Args) (any, error) {
	spec := &HueSaturationValueSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	spec.transformSpec = transformSpec{name: "HueSaturationValue", p: defaultP(spec.P, 0.5)}
	return spec, nil
}

// RandomBrightnessContrastSpec jitters brightness and contrast.
type RandomBrightnessContrastSpec struct {
	transformSpec

	BrightnessLimit float64  `yaml:"brightness_limit" validate:"omitempty,min=0"`
	ContrastLimit   float64  `yaml:"contrast_limit" validate:"omitempty,min=0"`
	P               *float64 `yaml:"p" validate:"omitempty,min=0,max=1"`
}

func newRandomBrightnessContrast(ctx context.Context, args registry.Args) (any, error) {
	spec := &RandomBrightnessContrastSpec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	spec.transformSpec = transformSpec{name: "RandomBrightnessContrast", p: defaultP(spec.P, 0.5)}
	return spec, nil
}

// ToTensorV2Spec converts arrays to framework tensors. It takes no
// parameters beyond the optional probability.
type ToTensorV2Spec struct {
	transformSpec

	P *float64 `yaml:"p" validate:"omitempty,min=0,max=1"`
}

func newToTensorV2(ctx context.Context, args registry.Args) (any, error) {
	spec := &ToTensorV2Spec{}
	if err := args.Decode(spec); err != nil {
		return nil, err
	}
	spec.transformSpec = transformSpec{name: "ToTensorV2", p: defaultP(spec.P, 1)}
	return spec, nil
}

// defaultP keeps an explicit probability, including an explicit zero, and
// falls back to the transform's default only when the key is absent.
func defaultP(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
