// Package jsonpath implements the leaf path notation used by locale files:
// mapping keys joined with "." and sequence indices in brackets, e.g.
//
//	nav.home
//	menu.items[0].label
//	list[2]
//
// Encode and Decode are inverses for any path built from valid segments.
// Keys must not contain "." or "[" — locale keys never do, and the codec
// does not escape them.
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is a single step in a leaf path: either a mapping key or a
// sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// KeySegment returns a mapping-key segment.
func KeySegment(key string) Segment {
	return Segment{Key: key}
}

// IndexSegment returns a sequence-index segment.
func IndexSegment(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

// String renders a single segment the way it appears inside a path.
func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// MalformedError reports a path string that cannot be decoded.
type MalformedError struct {
	// Path is the full input string.
	Path string
	// Pos is the byte offset where decoding failed.
	Pos int
	// Reason describes what went wrong.
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed path %q at offset %d: %s", e.Path, e.Pos, e.Reason)
}

// Encode joins segments into a path string. Key segments are separated by
// "." (no separator at the start or before an index); index segments are
// rendered as "[i]" appended directly to the preceding token.
func Encode(segments []Segment) string {
	var b strings.Builder
	for i, s := range segments {
		if s.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

// Decode parses a path string into segments. It fails with *MalformedError
// on unterminated brackets, non-numeric indices, empty key segments
// (leading/trailing/double dots) and keys glued directly onto a closing
// bracket.
func Decode(path string) ([]Segment, error) {
	if path == "" {
		return nil, &MalformedError{Path: path, Pos: 0, Reason: "empty path"}
	}

	var segs []Segment
	i := 0
	for i < len(path) {
		switch path[i] {
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, &MalformedError{Path: path, Pos: i, Reason: "unterminated bracket"}
			}
			digits := path[i+1 : i+end]
			idx, err := strconv.Atoi(digits)
			if err != nil || idx < 0 || digits != strconv.Itoa(idx) {
				return nil, &MalformedError{Path: path, Pos: i + 1, Reason: "index is not a non-negative integer"}
			}
			segs = append(segs, IndexSegment(idx))
			i += end + 1

			// After "]" only ".", "[" or end of path may follow.
			if i < len(path) && path[i] != '.' && path[i] != '[' {
				return nil, &MalformedError{Path: path, Pos: i, Reason: "expected '.', '[' or end after index"}
			}
			if i < len(path) && path[i] == '.' {
				i++
				if i == len(path) {
					return nil, &MalformedError{Path: path, Pos: i, Reason: "trailing dot"}
				}
			}

		case '.':
			// A dot here means an empty key segment (leading or doubled dot).
			return nil, &MalformedError{Path: path, Pos: i, Reason: "empty key segment"}

		default:
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			segs = append(segs, KeySegment(path[i:j]))
			i = j
			if i < len(path) && path[i] == '.' {
				i++
				if i == len(path) {
					return nil, &MalformedError{Path: path, Pos: i, Reason: "trailing dot"}
				}
			}
		}
	}

	return segs, nil
}
