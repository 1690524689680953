// SPDX-License-Identifier: MPL-2.0

package factor

import (
	"fmt"
	"strings"
)

// ExpandNames expands every brace group in an environment name template
// into the cartesian product of the group alternatives, preserving
// left-to-right group order in the resulting names. Alternatives keep
// their written order; the leftmost group varies slowest, so expansion
// order is deterministic. Duplicate concrete names are dropped after
// their first occurrence.
//
// A template without brace groups expands to itself. Unbalanced braces
// and empty groups are reported as errors.
func ExpandNames(template string) ([]string, error) {
	parts, err := splitGroups(template)
	if err != nil {
		return nil, err
	}

	names := []string{""}
	for _, part := range parts {
		alts := part.alternatives
		next := make([]string, 0, len(names)*len(alts))
		for _, prefix := range names {
			for _, alt := range alts {
				next = append(next, prefix+alt)
			}
		}
		names = next
	}

	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// ExpandList expands a comma- or newline-separated list of name
// templates, concatenating the per-template expansions in order and
// dropping duplicates across templates.
func ExpandList(list string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, tmpl := range splitList(list) {
		names, err := ExpandNames(tmpl)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out, nil
}

// segment is either a literal run or one brace group's alternatives.
type segment struct {
	alternatives []string
}

func splitGroups(template string) ([]segment, error) {
	var (
		parts   []segment
		literal strings.Builder
	)

	flushLiteral := func() {
		if literal.Len() > 0 {
			parts = append(parts, segment{alternatives: []string{literal.String()}})
			literal.Reset()
		}
	}

	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '{':
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unbalanced '{' in name template %q", template)
			}
			group := template[i+1 : i+end]
			if strings.ContainsRune(group, '{') {
				return nil, fmt.Errorf("nested brace group in name template %q", template)
			}
			alts := strings.Split(group, ",")
			for j := range alts {
				alts[j] = strings.TrimSpace(alts[j])
			}
			if len(alts) == 1 && alts[0] == "" {
				return nil, fmt.Errorf("empty brace group in name template %q", template)
			}
			flushLiteral()
			parts = append(parts, segment{alternatives: alts})
			i += end
		case '}':
			return nil, fmt.Errorf("unbalanced '}' in name template %q", template)
		default:
			literal.WriteByte(template[i])
		}
	}
	flushLiteral()
	return parts, nil
}

// splitList splits on commas and newlines, trimming whitespace and
// dropping empties. Commas inside brace groups do not split.
func splitList(list string) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, r := range list {
		switch {
		case r == '{':
			depth++
			cur.WriteRune(r)
		case r == '}':
			depth--
			cur.WriteRune(r)
		case (r == ',' || r == '\n') && depth == 0:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
