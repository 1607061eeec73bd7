// Package flatten converts between a nested locale tree and a flat
// path-keyed mapping.
//
// A tree is what goccy/go-json produces for an arbitrary document:
// map[string]any for objects, []any for arrays, string for leaves.
// Flatten collects every string leaf under its jsonpath; Inflate rebuilds
// the tree from such a mapping. Non-string scalars (numbers, booleans,
// null) carry no translatable text and are dropped — Inflate(Flatten(t))
// equals t restricted to its string leaves.
package flatten

import (
	"fmt"
	"sort"

	"github.com/minios-linux/localesync/jsonpath"
)

// ConflictError reports two paths that require different container kinds
// at the same position, e.g. "a.b" next to "a[0]".
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting container kinds at %q", e.Path)
}

// Flatten walks the tree and returns a mapping from encoded leaf path to
// string value. Non-string scalars are skipped. A bare string at the root
// has no addressable path and yields no entries.
func Flatten(tree any) map[string]string {
	out := make(map[string]string)
	walk(tree, nil, out)
	return out
}

func walk(node any, prefix []jsonpath.Segment, out map[string]string) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			walk(child, append(prefix, jsonpath.KeySegment(key)), out)
		}
	case []any:
		for i, child := range v {
			walk(child, append(prefix, jsonpath.IndexSegment(i)), out)
		}
	case string:
		if len(prefix) > 0 {
			out[jsonpath.Encode(prefix)] = v
		}
	}
}

// Inflate rebuilds a nested tree from a flat mapping. Intermediate
// containers are created as sequences when the next segment is an index
// and as mappings otherwise. Paths that disagree on a container kind
// produce a *ConflictError; keys that cannot be decoded produce a
// *jsonpath.MalformedError.
//
// Entries are applied in sorted key order, so the result is independent
// of map iteration order. An empty mapping inflates to an empty object.
func Inflate(flat map[string]string) (any, error) {
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var root any
	for _, p := range paths {
		segs, err := jsonpath.Decode(p)
		if err != nil {
			return nil, err
		}
		root, err = set(root, segs, flat[p], p)
		if err != nil {
			return nil, err
		}
	}

	if root == nil {
		root = map[string]any{}
	}
	return root, nil
}

// set places value at the position described by segs, creating containers
// as needed, and returns the (possibly newly allocated) node.
func set(node any, segs []jsonpath.Segment, value string, path string) (any, error) {
	seg := segs[0]

	if seg.IsIndex {
		var s []any
		switch t := node.(type) {
		case nil:
		case []any:
			s = t
		default:
			return nil, &ConflictError{Path: path}
		}
		for len(s) <= seg.Index {
			s = append(s, nil)
		}
		if len(segs) == 1 {
			if s[seg.Index] != nil {
				return nil, &ConflictError{Path: path}
			}
			s[seg.Index] = value
			return s, nil
		}
		child, err := set(s[seg.Index], segs[1:], value, path)
		if err != nil {
			return nil, err
		}
		s[seg.Index] = child
		return s, nil
	}

	var m map[string]any
	switch t := node.(type) {
	case nil:
		m = make(map[string]any)
	case map[string]any:
		m = t
	default:
		return nil, &ConflictError{Path: path}
	}
	if len(segs) == 1 {
		if _, exists := m[seg.Key]; exists {
			return nil, &ConflictError{Path: path}
		}
		m[seg.Key] = value
		return m, nil
	}
	child, err := set(m[seg.Key], segs[1:], value, path)
	if err != nil {
		return nil, err
	}
	m[seg.Key] = child
	return m, nil
}
