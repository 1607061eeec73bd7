// Package cache tracks the last-translated source text per leaf path.
// This enables incremental synchronization: a leaf is only sent to the
// translation gateway when its source text changed since the last run
// or when the previous output holds no usable translation for it.
//
// The cache is persisted as a flat JSON object mapping path to source
// text, stored next to the target locale file.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
)

// Record holds the persisted path → last-translated-source mapping.
type Record struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
}

// New returns an empty in-memory record bound to path.
func New(path string) *Record {
	return &Record{path: path, entries: make(map[string]string)}
}

// Load reads a cache record from path. A missing file yields an empty
// record; any other read or parse failure is an error.
func Load(path string) (*Record, error) {
	r := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &r.entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if r.entries == nil {
		r.entries = make(map[string]string)
	}
	return r, nil
}

// Save writes the record to disk. The cache is always rewritten after a
// run, whether or not the output changed.
func (r *Record) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return fmt.Errorf("cache path not set")
	}

	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", r.path, err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", r.path, err)
	}
	return nil
}

// Path returns the file path the record is bound to.
func (r *Record) Path() string {
	return r.path
}

// Decision is the outcome of a cache lookup for one leaf.
type Decision struct {
	// Reuse is true when the previous translation can be carried over.
	Reuse bool
	// Value is the reused translation (only set when Reuse is true).
	Value string
}

// Decide determines whether the leaf at path must be retranslated.
// The previous translation is reused only when the cached source text
// matches the current one AND prevOutput holds a non-blank value for the
// path. Pure function of its inputs — no entry is modified.
func (r *Record) Decide(path, source string, prevOutput map[string]string) Decision {
	r.mu.Lock()
	cached, ok := r.entries[path]
	r.mu.Unlock()

	if !ok || cached != source {
		return Decision{}
	}
	prev, ok := prevOutput[path]
	if !ok || strings.TrimSpace(prev) == "" {
		return Decision{}
	}
	return Decision{Reuse: true, Value: prev}
}

// Update records the source text for a path after successful translation.
func (r *Record) Update(path, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[path] = source
}

// Prune drops entries for paths no longer present in the current source
// mapping and returns how many were removed. Stale entries would never
// match a lookup again; pruning keeps the cache file congruent with the
// source.
func (r *Record) Prune(current map[string]string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for path := range r.entries {
		if _, ok := current[path]; !ok {
			delete(r.entries, path)
			removed++
		}
	}
	return removed
}

// Get returns the cached source text for a path.
func (r *Record) Get(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[path]
	return v, ok
}

// Len returns the number of cached entries.
func (r *Record) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Paths returns the cached paths in sorted order.
func (r *Record) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.entries))
	for p := range r.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
