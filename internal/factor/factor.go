// SPDX-License-Identifier: MPL-2.0

// Package factor implements environment-name expansion and
// factor-conditional line matching.
//
// An environment name template like `py{36,37}-{unit,func}` expands to
// the cartesian product of its brace groups. The dash-separated tokens
// of a concrete name form its factor set, against which conditional
// lines such as `py36,func-py37: <content>` are matched: alternatives
// are separated by commas, tokens within one alternative are joined by
// dashes, a line applies when any alternative's tokens are all present.
package factor

import (
	"sort"
	"strings"
)

// Set is the unordered set of factor-value tokens composing one
// concrete environment's identity.
type Set map[string]struct{}

// NewSet builds a Set from the given tokens.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// FromName derives the factor set of a concrete environment name by
// splitting it on dashes. The mapping from name to set is total: every
// expanded name yields exactly one set.
func FromName(name string) Set {
	return NewSet(strings.Split(name, "-")...)
}

// Has reports whether the set contains the token.
func (s Set) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// ContainsAll reports whether every token of other is present in s.
func (s Set) ContainsAll(other Set) bool {
	for t := range other {
		if !s.Has(t) {
			return false
		}
	}
	return true
}

// Tokens returns the tokens in sorted order.
func (s Set) Tokens() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// String renders the set as its sorted tokens joined by dashes.
func (s Set) String() string {
	return strings.Join(s.Tokens(), "-")
}
