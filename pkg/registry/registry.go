package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/segtrain/segtrain/pkg/config"
	"github.com/segtrain/segtrain/pkg/telemetry"
)

// TargetKey is the node key that names a constructible target type.
const TargetKey = "_target_"

// Factory constructs a component from the sibling keys of a target-bearing
// node. The arguments have already been resolved and recursively
// instantiated.
type Factory func(ctx context.Context, args Args) (any, error)

// Registry manages target registration and instantiation.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under the given target identifier. Registering the
// same identifier twice is an error.
func (r *Registry) Register(target string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[target]; exists {
		return fmt.Errorf("target %s already registered", target)
	}
	r.factories[target] = factory
	return nil
}

// MustRegister is Register that panics on error, for use during package
// setup.
func (r *Registry) MustRegister(target string, factory Factory) {
	if err := r.Register(target, factory); err != nil {
		panic(err)
	}
}

// Has reports whether a target identifier is registered.
func (r *Registry) Has(target string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[target]
	return ok
}

// Targets returns the registered target identifiers in sorted order.
func (r *Registry) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]string, 0, len(r.factories))
	for t := range r.factories {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

func (r *Registry) factory(target string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[target]
	return f, ok
}

// Build recursively instantiates a resolved configuration value. Nodes
// carrying TargetKey are constructed through their registered factory after
// their children; nodes without it are returned with instantiated children;
// sequences are built element-wise preserving order; scalars pass through.
//
// The input must already be resolved: Build treats interpolation references
// as opaque strings.
func (r *Registry) Build(ctx context.Context, v any) (any, error) {
	return r.build(ctx, v, "")
}

// BuildNode instantiates the sub-tree at the given path of a resolved root.
// The path is retained for error reporting.
func (r *Registry) BuildNode(ctx context.Context, root config.Node, path string) (any, error) {
	v, ok := root.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("config path %q not found", path)
	}
	return r.build(ctx, v, path)
}

func (r *Registry) build(ctx context.Context, v any, path string) (any, error) {
	switch t := v.(type) {
	case config.Node:
		return r.buildNode(ctx, t, path)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			built, err := r.build(ctx, e, fmt.Sprintf("%s.%d", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = built
		}
		return out, nil
	default:
		return v, nil
	}
}

func (r *Registry) buildNode(ctx context.Context, n config.Node, path string) (any, error) {
	target, hasTarget := n[TargetKey].(string)

	// Children first: nested targets are constructed before their parent
	// so the parent's factory sees finished objects.
	built := make(config.Node, len(n))
	for k, e := range n {
		if k == TargetKey {
			continue
		}
		childPath := k
		if path != "" {
			childPath = path + "." + k
		}
		bv, err := r.build(ctx, e, childPath)
		if err != nil {
			return nil, err
		}
		built[k] = bv
	}

	if !hasTarget {
		if _, exists := n[TargetKey]; exists {
			return nil, newInstantiationError(fmt.Sprintf("%v", n[TargetKey]), path,
				fmt.Errorf("%s must be a string", TargetKey))
		}
		return built, nil
	}

	factory, ok := r.factory(target)
	if !ok {
		r.recordBuild(ctx, target, "error")
		return nil, newInstantiationError(target, path, ErrUnknownTarget)
	}

	obj, err := factory(ctx, Args{node: built})
	if err != nil {
		r.recordBuild(ctx, target, "error")
		return nil, newInstantiationError(target, path, err)
	}
	r.recordBuild(ctx, target, "ok")
	return obj, nil
}

func (r *Registry) recordBuild(ctx context.Context, target, status string) {
	if tel := telemetry.FromTelemetryContext(ctx); tel != nil {
		tel.Metrics.RecordTargetBuilt(target, status)
		if status == "error" {
			tel.Metrics.RecordInstantiationError(target)
		}
	}
}
