// Package config implements the hierarchical experiment configuration tree
// used by segtrain.
//
// # Overview
//
// An experiment is described by a YAML document: a nested mapping whose values
// are scalars, sub-mappings, or ordered sequences. Before anything is
// instantiated from it, the document goes through a single resolution pass
// that substitutes interpolation references.
//
// # Interpolation
//
// A scalar of the form ${path.to.field} refers to another field of the same
// document. Resolution is depth-first and post-order: a referent is itself
// resolved before it is substituted. A reference that names a missing path, or
// a chain of references that closes on itself, fails with a ResolutionError
// carrying the offending path; resolution never loops.
//
// A scalar that consists of exactly one reference takes the referent's
// resolved value with its type, so a reference may stand in for a whole
// sub-tree or sequence. References embedded in a larger string stringify
// their referent, which must then resolve to a scalar.
//
// # Lifecycle
//
// A tree is parsed once, resolved once, and treated as immutable afterwards.
// Resolve does not mutate its input and is idempotent: resolving an already
// resolved tree yields an equal tree.
//
// # Usage
//
//	doc, err := config.LoadFile("experiment.yaml")
//	if err != nil {
//	    return err
//	}
//	root, err := config.Resolve(doc.Root)
//	if err != nil {
//	    return err // *config.ResolutionError
//	}
//	classes, err := root.Int("hyperparameters.num_classes")
package config
