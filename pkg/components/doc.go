// Package components registers the built-in constructible targets: the
// segmentation models, optimizers, augmentation transforms, datasets, metrics
// and trainer descriptors that experiment documents instantiate by name.
//
// Each factory decodes its sibling keys into a validated spec struct, so a
// misspelled or out-of-range argument fails instantiation with the offending
// path. The specs are descriptors the training backend consumes; no tensor
// math happens here.
package components
