// Package namespace provides the compile-time table mapping symbolic flag
// names to resolved flag integers.
//
// The table replaces the source DSL's dynamic flag enumeration with an
// explicit, read-only input: it is built once (from YAML or from a map)
// before any compilation and never mutated afterwards.
package namespace

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Table is a read-only symbolic-name → flag-ID mapping.
type Table struct {
	flags map[string]int64
}

// Load decodes a table from YAML. The document is a flat mapping of
// symbolic names to non-negative flag integers:
//
//	BOSS_DEFEATED: 11810900
//	SHORTCUT_OPEN: 11810901
func Load(r io.Reader) (*Table, error) {
	var raw map[string]int64
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("namespace: decoding table: %w", err)
	}
	return FromMap(raw)
}

// FromMap builds a table from an existing mapping, validating flag IDs.
func FromMap(flags map[string]int64) (*Table, error) {
	t := &Table{flags: make(map[string]int64, len(flags))}
	for name, id := range flags {
		if name == "" {
			return nil, fmt.Errorf("namespace: empty symbolic name")
		}
		if id < 0 {
			return nil, fmt.Errorf("namespace: %s: flag ID must be non-negative, got %d", name, id)
		}
		t.flags[name] = id
	}
	return t, nil
}

// Empty returns a table with no entries.
func Empty() *Table {
	return &Table{flags: map[string]int64{}}
}

// Resolve returns the flag ID bound to a symbolic name.
func (t *Table) Resolve(name string) (int64, bool) {
	id, ok := t.flags[name]
	return id, ok
}

// Names returns all symbolic names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.flags))
	for name := range t.flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.flags) }
