package registry

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/segtrain/segtrain/pkg/config"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Args carries the sibling keys of a target-bearing node into its factory.
// Values are already resolved and recursively instantiated, so an entry may
// be a scalar, a config.Node, a sequence, or a finished component object.
type Args struct {
	node config.Node
}

// NewArgs wraps a node as factory arguments. Intended for tests and for
// callers that build components outside a document.
func NewArgs(n config.Node) Args {
	return Args{node: n}
}

// Keys returns the argument names in sorted order.
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a.node))
	for k := range a.node {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the argument with the given name.
func (a Args) Get(key string) (any, bool) {
	v, ok := a.node[key]
	return v, ok
}

// Seq returns the sequence argument with the given name, or nil when absent.
func (a Args) Seq(key string) ([]any, error) {
	v, ok := a.node[key]
	if !ok {
		return nil, nil
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q is not a sequence (got %T)", key, v)
	}
	return seq, nil
}

// Decode unmarshals the plain-valued arguments into a spec struct and
// validates it. Decoding is strict: a plain argument the spec does not
// declare is an error, so a factory receives exactly the sibling keys its
// spec names. Arguments holding instantiated component objects are skipped;
// factories consume those explicitly via Get or Seq.
func (a Args) Decode(out any) error {
	plain := plainCopy(a.node)

	buf, err := yaml.Marshal(plain)
	if err != nil {
		return fmt.Errorf("failed to encode arguments: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode arguments: %w", err)
	}

	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("argument validation failed: %w", err)
	}
	return nil
}

// plainCopy strips instantiated objects out of an argument tree, leaving the
// scalars, nodes, and sequences the YAML decoder can handle.
func plainCopy(n config.Node) map[string]any {
	out := make(map[string]any, len(n))
	for k, v := range n {
		if pv, ok := plainValue(v); ok {
			out[k] = pv
		}
	}
	return out
}

func plainValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, true
	case config.Node:
		return plainCopy(t), true
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			pv, ok := plainValue(e)
			if !ok {
				// A sequence holding component objects is consumed
				// as a whole by the factory, not decoded.
				return nil, false
			}
			out = append(out, pv)
		}
		return out, true
	default:
		return nil, false
	}
}
