package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Document is a parsed experiment configuration together with its
// provenance.
type Document struct {
	// Root is the unresolved configuration tree.
	Root Node

	// Positions maps dotted paths to their source locations.
	Positions map[string]Position

	// SourceFiles lists the files the document was parsed from, in the
	// order they were merged. Inline documents have a single "inline"
	// entry.
	SourceFiles []string

	// ParsedAt is when the document was parsed.
	ParsedAt time.Time
}

// Position is the source location of a configuration value.
type Position struct {
	File   string
	Line   int
	Column int
}

// String renders the position in the file:line:column form.
func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// PositionOf returns the source location of the value at the given path.
func (d *Document) PositionOf(path string) (Position, bool) {
	pos, ok := d.Positions[path]
	return pos, ok
}

// Load parses a document from a file or from a directory of YAML files.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadFile parses a single YAML file into a Document.
func LoadFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	root, positions, err := parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for p, pos := range positions {
		pos.File = path
		positions[p] = pos
	}

	return &Document{
		Root:        root,
		Positions:   positions,
		SourceFiles: []string{path},
		ParsedAt:    time.Now(),
	}, nil
}

// LoadDir parses every *.yaml / *.yml file in a directory, in lexical order,
// and merges their top-level groups into one document. The same top-level key
// defined in two files is a conflict.
func LoadDir(dir string) (*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files found in %s", dir)
	}
	sort.Strings(files)

	merged := make(Node)
	mergedPos := make(map[string]Position)
	definedIn := make(map[string]string)
	for _, f := range files {
		doc, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		for k, v := range doc.Root {
			if prev, ok := definedIn[k]; ok {
				return nil, fmt.Errorf("top-level key %q defined in both %s and %s", k, prev, f)
			}
			definedIn[k] = f
			merged[k] = v
		}
		for p, pos := range doc.Positions {
			mergedPos[p] = pos
		}
	}

	return &Document{
		Root:        merged,
		Positions:   mergedPos,
		SourceFiles: files,
		ParsedAt:    time.Now(),
	}, nil
}

// ParseInline parses inline YAML content into a Document.
func ParseInline(content string) (*Document, error) {
	root, positions, err := parse([]byte(content))
	if err != nil {
		return nil, err
	}
	return &Document{
		Root:        root,
		Positions:   positions,
		SourceFiles: []string{"inline"},
		ParsedAt:    time.Now(),
	}, nil
}

// Resolve returns the document's fully resolved tree. Resolution errors are
// annotated with the source position of the failing value when known.
func (d *Document) Resolve() (Node, error) {
	resolved, err := Resolve(d.Root)
	if err != nil {
		var rerr *ResolutionError
		if errors.As(err, &rerr) && rerr.Pos.Line == 0 {
			if pos, ok := d.Positions[rerr.Path]; ok {
				rerr.Pos = pos
			}
		}
		return nil, err
	}
	return resolved, nil
}

func parse(content []byte) (Node, map[string]Position, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, nil, err
	}
	positions := make(map[string]Position)
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Node{}, positions, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return Node{}, positions, nil
	}

	v, err := fromYAML(root, "", positions)
	if err != nil {
		return nil, nil, err
	}
	node, ok := v.(Node)
	if !ok {
		return nil, nil, fmt.Errorf("line %d: document root is not a mapping (got %T)", root.Line, v)
	}
	return node, positions, nil
}

// fromYAML converts a decoded YAML node into the Node tree, recording the
// source position of every path.
func fromYAML(n *yaml.Node, path string, positions map[string]Position) (any, error) {
	if path != "" {
		positions[path] = Position{Line: n.Line, Column: n.Column}
	}

	switch n.Kind {
	case yaml.MappingNode:
		out := make(Node, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.Tag != "!!str" {
				return nil, fmt.Errorf("line %d: mapping key %q is not a string", key.Line, key.Value)
			}
			v, err := fromYAML(val, childPath(path, key.Value), positions)
			if err != nil {
				return nil, err
			}
			out[key.Value] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := fromYAML(c, childPath(path, strconv.Itoa(i)), positions)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.AliasNode:
		return fromYAML(n.Alias, path, positions)
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
}
