// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"sort"
	"strings"
)

// Reserved section and key names.
const (
	// MatrixSection is the global settings section.
	MatrixSection = "matrix"
	// BaseEnvSection is the shared environment template section.
	BaseEnvSection = "env"
	// EnvSectionPrefix prefixes environment-specific sections.
	EnvSectionPrefix = "env:"
	// GroupSectionPrefix prefixes artifact group sections.
	GroupSectionPrefix = "group:"
	// BaseKey is the reserved inheritance key inside a section.
	BaseKey = "base"
)

type (
	// File is a parsed configuration file. It is immutable once loaded.
	File struct {
		// Path is the location the file was read from.
		Path string

		sections map[string]*Section
		order    []string
	}

	// Section is one named `[...]` block holding raw settings.
	Section struct {
		// Name is the section name without brackets (e.g. "env:py{36,37}").
		Name string
		// Line is the 1-based line of the section header.
		Line int

		settings map[string]Value
		keys     []string
	}

	// Value is one raw, unresolved setting value with its source position.
	Value struct {
		// Raw is the setting text. Multi-line values keep their newlines;
		// factor-conditional prefixes are preserved for the resolver.
		Raw string
		// Section is the name of the section the value was declared in.
		Section string
		// Line is the 1-based line of the `key =` assignment.
		Line int
	}

	// Layered is a setting flattened across an inheritance chain:
	// the outermost base's value first, the owning section's value last.
	Layered struct {
		// Key is the setting name.
		Key string
		// Layers holds one Value per chain link that defined the key.
		Layers []Value
	}
)

// Sections returns the section names in declaration order.
func (f *File) Sections() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Section returns the named section, or nil when absent.
func (f *File) Section(name string) *Section {
	return f.sections[name]
}

// Has reports whether the named section exists.
func (f *File) Has(name string) bool {
	_, ok := f.sections[name]
	return ok
}

// EnvSections returns the names of all `[env:...]` sections in
// declaration order, without the prefix.
func (f *File) EnvSections() []string {
	var out []string
	for _, name := range f.order {
		if tmpl, ok := strings.CutPrefix(name, EnvSectionPrefix); ok {
			out = append(out, tmpl)
		}
	}
	return out
}

// GroupSections returns the names of all `[group:...]` sections sorted
// by name, without the prefix.
func (f *File) GroupSections() []string {
	var out []string
	for _, name := range f.order {
		if g, ok := strings.CutPrefix(name, GroupSectionPrefix); ok {
			out = append(out, g)
		}
	}
	sort.Strings(out)
	return out
}

// Keys returns the setting names of the section in declaration order.
func (s *Section) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the raw value for key and whether it was declared.
func (s *Section) Get(key string) (Value, bool) {
	v, ok := s.settings[key]
	return v, ok
}

// GetRaw returns the raw string for key, or "" when absent.
func (s *Section) GetRaw(key string) string {
	return s.settings[key].Raw
}

func (s *Section) set(key string, v Value) {
	if _, exists := s.settings[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.settings[key] = v
}
