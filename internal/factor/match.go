// SPDX-License-Identifier: MPL-2.0

package factor

import "strings"

// Guard is a parsed factor-conditional line prefix: a disjunction of
// alternatives, each alternative a conjunction of factor tokens.
type Guard struct {
	alternatives []Set
}

// ParseGuard parses a prefix like `py36,py37-func`. Alternatives are
// comma separated; tokens inside one alternative are joined by dashes
// or colons.
func ParseGuard(prefix string) Guard {
	var g Guard
	for _, alt := range strings.Split(prefix, ",") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		tokens := strings.FieldsFunc(alt, func(r rune) bool {
			return r == '-' || r == ':'
		})
		g.alternatives = append(g.alternatives, NewSet(tokens...))
	}
	return g
}

// Matches reports whether the guard admits the given factor set:
// true when at least one alternative's full token set is a subset of
// fs. An empty guard admits everything.
func (g Guard) Matches(fs Set) bool {
	if len(g.alternatives) == 0 {
		return true
	}
	for _, alt := range g.alternatives {
		if fs.ContainsAll(alt) {
			return true
		}
	}
	return false
}

// CutGuard splits a setting line into its conditional prefix and
// content. The prefix is text before a colon that looks like a factor
// condition: tokens of letters, digits, underscores and dots, joined by
// dashes or colons within an alternative and separated by commas across
// alternatives. The longest such prefix wins, so `a:b: cmd` yields the
// conjunction a:b. Anything else (paths, URLs, text with spaces) is
// treated as plain content with no guard.
func CutGuard(line string) (prefix, content string, ok bool) {
	cut := -1
	for i := 0; i < len(line); i++ {
		if line[i] == ':' && validGuardPrefix(line[:i]) {
			cut = i
		}
	}
	if cut <= 0 {
		return "", line, false
	}
	return line[:cut], strings.TrimSpace(line[cut+1:]), true
}

// FilterLines evaluates every line of a multi-line raw value against
// the factor set, stripping matched guards and dropping non-matching
// lines. Source declaration order is preserved. Blank lines are
// dropped.
func FilterLines(raw string, fs Set) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		prefix, content, guarded := CutGuard(line)
		if !guarded {
			out = append(out, line)
			continue
		}
		if ParseGuard(prefix).Matches(fs) {
			if content != "" {
				out = append(out, content)
			}
		}
	}
	return out
}

func validGuardPrefix(s string) bool {
	lastSep := true
	for _, r := range s {
		switch {
		case r == ',' || r == '-' || r == ':':
			if lastSep {
				return false
			}
			lastSep = true
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '_', r == '.':
			lastSep = false
		default:
			return false
		}
	}
	return !lastSep
}
