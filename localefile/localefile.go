// Package localefile implements reading and writing of locale JSON
// documents.
//
// Documents are arbitrarily nested objects/arrays with string leaves:
//
//	{
//	    "greeting": "Hello",
//	    "nav": { "home": "Home", "about": "About" },
//	    "tags": ["one", "two"]
//	}
//
// Output is pretty-printed with 2-space indentation, sorted object keys
// and a trailing newline, and is only written to disk when the serialized
// form differs byte-for-byte from the existing file.
package localefile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Load reads and decodes a locale JSON document.
func Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tree, nil
}

// Marshal serializes a tree in the canonical output form: 2-space indent,
// sorted object keys, trailing newline.
func Marshal(tree any) ([]byte, error) {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteBytes writes data to path unless the file already holds exactly
// the same bytes. Parent directories are created as needed. Returns true
// when the file was (re)written.
func WriteBytes(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// Write serializes tree and writes it to path if changed.
func Write(path string, tree any) (bool, error) {
	data, err := Marshal(tree)
	if err != nil {
		return false, err
	}
	return WriteBytes(path, data)
}

// Diff returns a line-based diff between two serialized documents, with
// "-"/"+" prefixes for removed and added lines. Used for verbose output.
func Diff(before, after []byte) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
