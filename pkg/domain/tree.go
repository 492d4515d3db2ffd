package domain

import "strings"

// PathSeparator splits state paths into segments.
const PathSeparator = "/"

// ConflictPolicy decides what a write does when an intermediate path segment
// already holds a leaf value.
type ConflictPolicy int

const (
	// ConflictOverwrite replaces the leaf with a fresh mapping.
	ConflictOverwrite ConflictPolicy = iota
	// ConflictError rejects the write with a PathConflictError.
	ConflictError
)

// ParseConflictPolicy maps "overwrite" and "error" to a policy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return ConflictOverwrite, nil
	case "error":
		return ConflictError, nil
	}
	return ConflictOverwrite, NewConfigError(ErrInvalidArguments, "unknown conflict policy %q", s)
}

// Tree is the hierarchical result of a workflow. Nested mappings are Trees;
// leaves are strings, string slices or any other read result.
type Tree map[string]any

// NewTree returns an empty tree.
func NewTree() Tree {
	return make(Tree)
}

// SplitPath splits a state path into its segments.
// Empty paths and empty segments are rejected.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, NewConfigError(ErrInvalidPath, "empty path")
	}
	keys := strings.Split(path, PathSeparator)
	for _, k := range keys {
		if k == "" {
			return nil, NewConfigError(ErrInvalidPath, "empty segment in %q", path)
		}
	}
	return keys, nil
}

// Store assigns value at path, creating intermediate mappings as needed.
// Existing mappings along the way are followed; the final segment is
// overwritten whatever it held.
func (t Tree) Store(path string, value any, policy ConflictPolicy) error {
	keys, err := SplitPath(path)
	if err != nil {
		return err
	}

	node := t
	for _, key := range keys[:len(keys)-1] {
		child, exists := node[key]
		if next, ok := asTree(child); ok {
			node = next
			continue
		}
		if exists && policy == ConflictError {
			return &PathConflictError{Path: path, Segment: key}
		}
		next := NewTree()
		node[key] = next
		node = next
	}
	node[keys[len(keys)-1]] = value
	return nil
}

// Lookup returns the value stored at path.
func (t Tree) Lookup(path string) (any, bool) {
	keys, err := SplitPath(path)
	if err != nil {
		return nil, false
	}
	node := t
	for i, key := range keys {
		v, ok := node[key]
		if !ok {
			return nil, false
		}
		if i == len(keys)-1 {
			return v, true
		}
		if node, ok = asTree(v); !ok {
			return nil, false
		}
	}
	return nil, false
}

// Snapshot returns a deep copy that shares nothing with t.
func (t Tree) Snapshot() Tree {
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	if sub, ok := asTree(v); ok {
		return sub.Snapshot()
	}
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = copyValue(val[i])
		}
		return out
	}
	return v
}

// asTree accepts both Tree and the plain maps produced by JSON decoding.
func asTree(v any) (Tree, bool) {
	switch m := v.(type) {
	case Tree:
		return m, true
	case map[string]any:
		return Tree(m), true
	}
	return nil, false
}
