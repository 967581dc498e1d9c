// Package experiment defines the typed experiment model assembled from a
// resolved configuration tree.
//
// # Overview
//
// An experiment document has a fixed set of top-level groups: pl_model,
// model, optimizer, device, metrics, hyperparameters, pl_trainer,
// train_dataset and val_dataset. Assemble resolves the document, then
// instantiates each group through the target registry and checks the result
// against the component contract the group requires.
//
// The components produced here are validated descriptors: the training
// mathematics (architectures, optimizer steps, augmentation image operations,
// metric computation) belongs to the external training framework that a
// Runner hands the experiment to. segtrain's job ends at handing over a
// fully-resolved, fully-typed experiment.
//
// # Component contracts
//
// Every instantiated object implements Component; the group determines the
// narrower contract (Model, Optimizer, Dataset, Metric, Trainer, Transform).
// A node that instantiates to the wrong contract is a configuration error
// and fatal, like every other configuration error.
package experiment
