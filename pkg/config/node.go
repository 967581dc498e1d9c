package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Node is one level of the configuration tree: a mapping from string keys to
// scalars, nested Nodes, or ordered sequences ([]any whose elements follow the
// same rules).
type Node map[string]any

// Lookup traverses the tree along a dotted path and returns the value found
// there. Numeric path segments index into sequences. The second return value
// reports whether the path exists.
func (n Node) Lookup(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var cur any = n
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case Node:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}

	return cur, true
}

// Sub returns the sub-node at the given path.
func (n Node) Sub(path string) (Node, error) {
	v, ok := n.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("config path %q not found", path)
	}
	sub, ok := v.(Node)
	if !ok {
		return nil, fmt.Errorf("config path %q is not a mapping (got %T)", path, v)
	}
	return sub, nil
}

// Seq returns the sequence at the given path.
func (n Node) Seq(path string) ([]any, error) {
	v, ok := n.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("config path %q not found", path)
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("config path %q is not a sequence (got %T)", path, v)
	}
	return seq, nil
}

// String returns the scalar at the given path as a string.
func (n Node) String(path string) (string, error) {
	v, ok := n.Lookup(path)
	if !ok {
		return "", fmt.Errorf("config path %q not found", path)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("config path %q is not a string (got %T)", path, v)
	}
	return s, nil
}

// Int returns the scalar at the given path as an int.
func (n Node) Int(path string) (int, error) {
	v, ok := n.Lookup(path)
	if !ok {
		return 0, fmt.Errorf("config path %q not found", path)
	}
	switch i := v.(type) {
	case int:
		return i, nil
	case int64:
		return int(i), nil
	default:
		return 0, fmt.Errorf("config path %q is not an integer (got %T)", path, v)
	}
}

// Float returns the scalar at the given path as a float64. Integer values
// are widened.
func (n Node) Float(path string) (float64, error) {
	v, ok := n.Lookup(path)
	if !ok {
		return 0, fmt.Errorf("config path %q not found", path)
	}
	switch f := v.(type) {
	case float64:
		return f, nil
	case int:
		return float64(f), nil
	case int64:
		return float64(f), nil
	default:
		return 0, fmt.Errorf("config path %q is not a number (got %T)", path, v)
	}
}

// Bool returns the scalar at the given path as a bool.
func (n Node) Bool(path string) (bool, error) {
	v, ok := n.Lookup(path)
	if !ok {
		return false, fmt.Errorf("config path %q not found", path)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("config path %q is not a boolean (got %T)", path, v)
	}
	return b, nil
}

// Keys returns the node's keys in sorted order.
func (n Node) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := make(Node, len(n))
	for k, v := range n {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Node:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
