package components

import (
	"github.com/segtrain/segtrain/pkg/registry"
)

// NewRegistry returns a registry with every built-in target registered.
func NewRegistry() *registry.Registry {
	reg := registry.New()
	RegisterBuiltins(reg)
	return reg
}

// RegisterBuiltins registers the built-in targets on an existing registry.
func RegisterBuiltins(reg *registry.Registry) {
	// Models.
	reg.MustRegister("segmentation_models_pytorch.Unet", modelFactory("Unet"))
	reg.MustRegister("segmentation_models_pytorch.DeepLabV3Plus", modelFactory("DeepLabV3Plus"))
	reg.MustRegister("model_loader.SegmentationPLModel", newPLModel)

	// Optimizers.
	reg.MustRegister("torch.optim.AdamW", newAdamW)
	reg.MustRegister("torch.optim.SGD", newSGD)

	// Augmentation transforms.
	reg.MustRegister("albumentations.RandomCrop", newRandomCrop)
	reg.MustRegister("albumentations.CenterCrop", newCenterCrop)
	reg.MustRegister("albumentations.HorizontalFlip", newHorizontalFlip)
	reg.MustRegister("albumentations.Normalize", newNormalize)
	reg.MustRegister("albumentations.HueSaturationValue", newHueSaturationValue)
	reg.MustRegister("albumentations.RandomBrightnessContrast", newRandomBrightnessContrast)
	reg.MustRegister("albumentations.pytorch.ToTensorV2", newToTensorV2)

	// Datasets.
	reg.MustRegister("dataset_loader.SegmentationDataset", newSegmentationDataset)

	// Metrics.
	reg.MustRegister("torchmetrics.JaccardIndex", newJaccardIndex)
	reg.MustRegister("torchmetrics.F1Score", newF1Score)

	// Trainer.
	reg.MustRegister("pytorch_lightning.Trainer", newTrainer)

	// Inference.
	reg.MustRegister("inference_processors.SingleImageInferenceProcessor", newSingleImageInferenceProcessor)
	reg.MustRegister("polygonizers.TemplatePolygonizerProcessor", newTemplatePolygonizer)
}
