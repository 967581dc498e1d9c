package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var interpPattern = regexp.MustCompile(`\$\{([^${}]+)\}`)

// Resolve substitutes every interpolation reference in the tree and returns a
// new, fully resolved tree. The input is not mutated. Resolving a tree that
// contains no references returns an equal copy, so Resolve is idempotent.
//
// A reference to a missing path or a cyclic chain of references fails with a
// *ResolutionError.
func Resolve(root Node) (Node, error) {
	r := &resolver{
		root:      root,
		resolving: make(map[string]bool),
		resolved:  make(map[string]any),
	}

	out, err := r.value(root, "")
	if err != nil {
		return nil, err
	}
	return out.(Node), nil
}

// resolver walks the tree depth-first, post-order: children are resolved
// before their parents, and a referent is resolved before substitution.
type resolver struct {
	root Node

	// resolving holds the reference paths currently being resolved, for
	// cycle detection.
	resolving map[string]bool

	// resolved memoizes referents so shared references resolve once.
	resolved map[string]any
}

func (r *resolver) value(v any, path string) (any, error) {
	switch t := v.(type) {
	case Node:
		out := make(Node, len(t))
		for k, e := range t {
			rv, err := r.value(e, childPath(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			rv, err := r.value(e, childPath(path, fmt.Sprintf("%d", i)))
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	case string:
		return r.scalar(t, path)
	default:
		return v, nil
	}
}

// scalar resolves interpolation references inside a string scalar. A string
// that is exactly one reference takes the referent's resolved value with its
// type; embedded references stringify their referent.
func (r *resolver) scalar(s, path string) (any, error) {
	match := interpPattern.FindStringSubmatch(s)
	if match == nil {
		return s, nil
	}

	if whole := interpPattern.FindString(s); whole == s {
		return r.reference(match[1], path)
	}

	var firstErr error
	out := interpPattern.ReplaceAllStringFunc(s, func(m string) string {
		if firstErr != nil {
			return m
		}
		ref := m[2 : len(m)-1]
		v, err := r.reference(ref, path)
		if err != nil {
			firstErr = err
			return m
		}
		switch v.(type) {
		case Node, []any:
			firstErr = newResolutionError(path, ref,
				fmt.Errorf("referent is not a scalar and cannot be embedded in a string"))
			return m
		}
		return fmt.Sprintf("%v", v)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// reference resolves ${ref} seen at path: the referent is located in the
// unresolved root and resolved in place before being substituted.
func (r *resolver) reference(ref, path string) (any, error) {
	if v, ok := r.resolved[ref]; ok {
		return v, nil
	}
	if r.resolving[ref] {
		return nil, newResolutionError(path, ref, ErrCyclicReference)
	}

	// Mark the reference before locating the referent: the locate step may
	// itself resolve references (see lookup), and a chain that loops back
	// here must be detected as a cycle.
	r.resolving[ref] = true
	defer delete(r.resolving, ref)

	raw, ok, err := r.lookup(ref, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newResolutionError(path, ref, ErrUnknownPath)
	}

	v, err := r.value(raw, ref)
	if err != nil {
		return nil, err
	}

	r.resolved[ref] = v
	return v, nil
}

// lookup walks the unresolved root along ref. A path segment may land on a
// scalar that is itself a whole reference (a: ${c}, then ${a.b}); the hop is
// resolved before the remaining segments are followed.
func (r *resolver) lookup(ref, path string) (any, bool, error) {
	var cur any = r.root
	for _, seg := range strings.Split(ref, ".") {
		if s, ok := cur.(string); ok {
			if whole := interpPattern.FindString(s); whole == s {
				v, err := r.scalar(s, path)
				if err != nil {
					return nil, false, err
				}
				cur = v
			}
		}
		switch v := cur.(type) {
		case Node:
			next, ok := v[seg]
			if !ok {
				return nil, false, nil
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false, nil
			}
			cur = v[idx]
		default:
			return nil, false, nil
		}
	}
	return cur, true, nil
}

func childPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// CountReferences returns the number of interpolation references in the tree.
func CountReferences(v any) int {
	switch t := v.(type) {
	case Node:
		n := 0
		for _, e := range t {
			n += CountReferences(e)
		}
		return n
	case []any:
		n := 0
		for _, e := range t {
			n += CountReferences(e)
		}
		return n
	case string:
		return len(interpPattern.FindAllString(t, -1))
	}
	return 0
}

// HasReferences reports whether any scalar in the tree still contains an
// interpolation reference. A resolved tree never does.
func HasReferences(v any) bool {
	switch t := v.(type) {
	case Node:
		for _, e := range t {
			if HasReferences(e) {
				return true
			}
		}
	case []any:
		for _, e := range t {
			if HasReferences(e) {
				return true
			}
		}
	case string:
		return strings.Contains(t, "${")
	}
	return false
}
