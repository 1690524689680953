// SPDX-License-Identifier: MPL-2.0

package envfile

import "strings"

// chain returns the inheritance chain for the named section, outermost
// base first, the section itself last. A section without an explicit
// `base` key implicitly inherits from [env] when it is an `[env:...]`
// section and [env] exists.
func (f *File) chain(name string) ([]*Section, error) {
	var out []*Section
	seen := make(map[string]int)

	cur := name
	for {
		sec := f.sections[cur]
		if sec == nil {
			return nil, parseErrorf(f.Path, 0, "unknown section [%s]", cur)
		}
		if _, dup := seen[cur]; dup {
			return nil, parseErrorf(f.Path, sec.Line, "cyclic base chain through [%s]", cur)
		}
		seen[cur] = len(out)
		out = append(out, sec)

		next := ""
		if ref, ok := sec.Get(BaseKey); ok {
			next = strings.TrimSpace(ref.Raw)
		} else if strings.HasPrefix(cur, EnvSectionPrefix) && cur != BaseEnvSection && f.Has(BaseEnvSection) {
			next = BaseEnvSection
		}
		if next == "" {
			break
		}
		cur = next
	}

	// Reverse: walking follows base references inward, layering wants
	// the outermost base first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Flatten resolves the inheritance chain of the named section into
// per-key layer lists. The `base` key itself never appears in the
// result. Key order follows first declaration along the chain, base
// keys before the owning section's own additions.
func (f *File) Flatten(name string) ([]Layered, error) {
	chain, err := f.chain(name)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var out []Layered
	for _, sec := range chain {
		for _, key := range sec.Keys() {
			if key == BaseKey {
				continue
			}
			v, _ := sec.Get(key)
			if i, ok := index[key]; ok {
				out[i].Layers = append(out[i].Layers, v)
				continue
			}
			index[key] = len(out)
			out = append(out, Layered{Key: key, Layers: []Value{v}})
		}
	}
	return out, nil
}

// FlattenKey is Flatten for a single key. The boolean reports whether
// any chain link declared it.
func (f *File) FlattenKey(name, key string) (Layered, bool, error) {
	all, err := f.Flatten(name)
	if err != nil {
		return Layered{}, false, err
	}
	for _, l := range all {
		if l.Key == key {
			return l, true, nil
		}
	}
	return Layered{}, false, nil
}
