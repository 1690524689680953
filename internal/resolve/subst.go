// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arpitjain799/envmatrix/internal/factor"
	"github.com/arpitjain799/envmatrix/pkg/envfile"
)

// Built-in substitution tokens.
const (
	tokenRoot     = "root"
	tokenWorkRoot = "workroot"
	tokenEnvName  = "envname"
	tokenEnvDir   = "envdir"
	tokenPosArgs  = "posargs"
	tokenWorkers  = "workers"
	tokenCovFile  = "covfile"
	tokenDeps     = "deps"
)

// subster performs recursive token substitution for one environment.
// Cycles are detected through the visiting set, keyed by token
// identity, so that both `a -> a` and `a -> b -> a` chains fail with a
// SubstitutionError instead of recursing forever.
type subster struct {
	r        *Resolver
	env      Environment
	settings map[string]envfile.Layered
	envdir   string

	visiting map[string]struct{}
	// extras holds context-scoped tokens such as {deps} inside
	// install_command; nil outside that context.
	extras map[string]string
}

func newSubster(r *Resolver, env Environment, settings map[string]envfile.Layered, envdir string) *subster {
	return &subster{
		r:        r,
		env:      env,
		settings: settings,
		envdir:   envdir,
		visiting: make(map[string]struct{}),
	}
}

// expand substitutes every {token} in raw, recursively. `{{` and `}}`
// escape literal braces.
func (s *subster) expand(raw string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '{':
			if i+1 < len(raw) && raw[i+1] == '{' {
				out.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(raw[i:], '}')
			if end < 0 {
				return "", substErrorf(s.env.Name, raw[i:], "unterminated substitution token")
			}
			token := raw[i+1 : i+end]
			val, err := s.resolveToken(token)
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i += end
		case '}':
			if i+1 < len(raw) && raw[i+1] == '}' {
				i++
			}
			out.WriteByte('}')
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

func (s *subster) resolveToken(token string) (string, error) {
	if token == "" {
		return "", substErrorf(s.env.Name, "{}", "empty substitution token")
	}

	if v, ok := s.extras[token]; ok {
		return v, nil
	}

	if strings.HasPrefix(token, "[") {
		return s.resolveCrossRef(token)
	}

	switch token {
	case tokenRoot:
		return s.r.in.Root, nil
	case tokenWorkRoot:
		return s.r.in.WorkRoot, nil
	case tokenEnvName:
		return s.env.Name, nil
	case tokenEnvDir:
		return s.envdir, nil
	case tokenPosArgs:
		return strings.Join(s.r.in.PosArgs, " "), nil
	case tokenWorkers:
		return strconv.Itoa(s.r.in.Workers), nil
	case tokenCovFile:
		return s.covFile()
	}

	// Fall back to the environment's own flattened settings, enabling
	// self-referential tokens like {artifact} or project keys declared
	// in the chain.
	if l, ok := s.settings[token]; ok {
		return s.guardedExpand("self:"+token, func() (string, error) {
			val, _ := s.scalar(l)
			return s.expand(val)
		})
	}

	return "", substErrorf(s.env.Name, "{"+token+"}", "unknown substitution token")
}

// resolveCrossRef handles `{[section]key}` references against any
// section in the file, with the current environment's factor set
// applied to conditional lines.
func (s *subster) resolveCrossRef(token string) (string, error) {
	rest, ok := strings.CutPrefix(token, "[")
	if !ok {
		return "", substErrorf(s.env.Name, "{"+token+"}", "malformed section reference")
	}
	section, key, ok := strings.Cut(rest, "]")
	if !ok || section == "" || key == "" {
		return "", substErrorf(s.env.Name, "{"+token+"}", "malformed section reference")
	}

	layered, found, err := s.r.file.FlattenKey(section, key)
	if err != nil {
		return "", substErrorf(s.env.Name, "{"+token+"}", "%v", err)
	}
	if !found {
		return "", substErrorf(s.env.Name, "{"+token+"}", "no such setting %q in section [%s]", key, section)
	}

	return s.guardedExpand("ref:"+section+":"+key, func() (string, error) {
		lines := s.lines(layered)
		return s.expand(strings.Join(linesText(lines), " "))
	})
}

// covFile derives the shard-unique artifact path from the environment
// directory and the declared artifact name.
func (s *subster) covFile() (string, error) {
	return s.guardedExpand("builtin:covfile", func() (string, error) {
		name := defaultArtifactName
		if l, ok := s.settings[keyArtifact]; ok {
			if v, applied := s.scalar(l); applied {
				expanded, err := s.expand(v)
				if err != nil {
					return "", err
				}
				name = expanded
			}
		}
		return filepath.Join(s.envdir, name), nil
	})
}

func (s *subster) guardedExpand(key string, fn func() (string, error)) (string, error) {
	if _, busy := s.visiting[key]; busy {
		return "", substErrorf(s.env.Name, key, "cyclic substitution reference")
	}
	s.visiting[key] = struct{}{}
	defer delete(s.visiting, key)
	return fn()
}

// withExtras runs fn with additional context-scoped tokens installed.
func (s *subster) withExtras(extras map[string]string, fn func() (string, error)) (string, error) {
	prev := s.extras
	s.extras = extras
	defer func() { s.extras = prev }()
	return fn()
}

type settingLine struct {
	text    string
	guarded bool
}

// lines filters a layered setting's raw values through the
// environment's factor set, preserving (layer, line) declaration order.
func (s *subster) lines(l envfile.Layered) []settingLine {
	var out []settingLine
	for _, layer := range l.Layers {
		for _, line := range strings.Split(layer.Raw, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			prefix, content, ok := factor.CutGuard(line)
			if !ok {
				out = append(out, settingLine{text: line})
				continue
			}
			if factor.ParseGuard(prefix).Matches(s.env.Factors) && content != "" {
				out = append(out, settingLine{text: content, guarded: true})
			}
		}
	}
	return out
}

// scalar applies override semantics to a layered setting: the last
// applicable factor-guarded line wins over any unguarded value, and
// within the same guardedness the innermost layer's last line wins.
func (s *subster) scalar(l envfile.Layered) (value string, applied bool) {
	var lastPlain, lastGuarded string
	var sawPlain, sawGuarded bool
	for _, line := range s.lines(l) {
		if line.guarded {
			lastGuarded, sawGuarded = line.text, true
		} else {
			lastPlain, sawPlain = line.text, true
		}
	}
	switch {
	case sawGuarded:
		return lastGuarded, true
	case sawPlain:
		return lastPlain, true
	default:
		return "", false
	}
}

func linesText(lines []settingLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}
