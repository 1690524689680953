// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/arpitjain799/envmatrix/internal/factor"
	"github.com/arpitjain799/envmatrix/pkg/envfile"
)

// Recognized environment setting keys.
const (
	keyEnvlist        = "envlist"
	keyDeps           = "deps"
	keySetenv         = "setenv"
	keyPassenv        = "passenv"
	keyCommands       = "commands"
	keyChangedir      = "changedir"
	keyInstallCommand = "install_command"
	keyArtifact       = "artifact"
	keyRetries        = "retries"
	keyRetryDelay     = "retry_delay"
	keyCommandTimeout = "command_timeout"
	keyShardList      = "shard_list"
	keyShardCount     = "shard_count"
)

const (
	defaultArtifactName = "coverage.out"
	defaultRetryDelay   = time.Second
)

type (
	// Inputs are the per-run values the resolver binds into plans.
	Inputs struct {
		// PosArgs are the invocation-time extra positional arguments
		// substituted for {posargs} (empty slice resolves to nothing).
		PosArgs []string
		// Workers is the run's environment-level parallelism.
		Workers int
		// Root is the absolute directory of the configuration file.
		Root string
		// WorkRoot is the absolute root of per-environment directories.
		WorkRoot string
	}

	// Resolver derives concrete environments and execution plans from a
	// loaded configuration file. It is cheap to construct and safe for
	// concurrent use; plans are recomputed fresh per request.
	Resolver struct {
		file *envfile.File
		in   Inputs
	}
)

// New builds a Resolver over a loaded file and run inputs.
func New(file *envfile.File, in Inputs) *Resolver {
	return &Resolver{file: file, in: in}
}

// Environments expands the [matrix] envlist into the ordered set of
// concrete environments, binding each to its defining section.
func (r *Resolver) Environments() ([]Environment, error) {
	matrix := r.file.Section(envfile.MatrixSection)
	if matrix == nil {
		return nil, &envfile.ParseError{Path: r.file.Path, Msg: "missing [matrix] section"}
	}
	raw := strings.TrimSpace(matrix.GetRaw(keyEnvlist))
	if raw == "" {
		return nil, &envfile.ParseError{Path: r.file.Path, Msg: "[matrix] declares no envlist"}
	}

	names, err := factor.ExpandList(raw)
	if err != nil {
		return nil, &envfile.ParseError{Path: r.file.Path, Msg: err.Error()}
	}

	exact, templated, err := r.sectionClaims()
	if err != nil {
		return nil, err
	}

	out := make([]Environment, 0, len(names))
	for _, name := range names {
		out = append(out, r.environment(name, exact, templated))
	}
	return out, nil
}

// Select filters the known environments by the given selectors, each a
// concrete name or a glob pattern. With no selectors every envlist
// environment is selected. Selection order follows the envlist, then
// section declaration order for environments defined outside it.
func (r *Resolver) Select(selectors []string) ([]Environment, error) {
	listed, err := r.Environments()
	if err != nil {
		return nil, err
	}
	if len(selectors) == 0 {
		return listed, nil
	}

	exact, templated, err := r.sectionClaims()
	if err != nil {
		return nil, err
	}

	universe := listed
	inUniverse := make(map[string]struct{}, len(listed))
	for _, e := range listed {
		inUniverse[e.Name] = struct{}{}
	}
	for _, tmpl := range r.file.EnvSections() {
		names, err := factor.ExpandNames(tmpl)
		if err != nil {
			return nil, &envfile.ParseError{Path: r.file.Path, Msg: err.Error()}
		}
		for _, name := range names {
			if _, ok := inUniverse[name]; ok {
				continue
			}
			inUniverse[name] = struct{}{}
			universe = append(universe, r.environment(name, exact, templated))
		}
	}

	var out []Environment
	picked := make(map[string]struct{})
	for _, sel := range selectors {
		matched := false
		for _, env := range universe {
			ok, err := path.Match(sel, env.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid selector %q: %w", sel, err)
			}
			if !ok {
				continue
			}
			matched = true
			if _, dup := picked[env.Name]; dup {
				continue
			}
			picked[env.Name] = struct{}{}
			out = append(out, env)
		}
		if !matched {
			return nil, fmt.Errorf("selector %q matches no environment: %w", sel, envfile.ErrConfig)
		}
	}
	return out, nil
}

// Resolve builds the execution plan for one environment.
func (r *Resolver) Resolve(env Environment) (*Plan, error) {
	settings, err := r.flattened(env)
	if err != nil {
		return nil, err
	}

	envdir := filepath.Join(r.in.WorkRoot, env.Name)
	s := newSubster(r, env, settings, envdir)

	plan := &Plan{
		Env:     env.Name,
		Factors: env.Factors,
		EnvDir:  envdir,
		Workers: r.in.Workers,
	}

	if plan.Deps, err = r.expandList(s, settings[keyDeps]); err != nil {
		return nil, err
	}
	if plan.Setenv, err = r.expandSetenv(s, settings[keySetenv]); err != nil {
		return nil, err
	}
	plan.PassEnv = splitTokens(linesText(s.lines(settings[keyPassenv])))

	if plan.Changedir, err = r.expandChangedir(s, settings[keyChangedir]); err != nil {
		return nil, err
	}

	artifactName := defaultArtifactName
	if v, err := r.expandScalar(s, settings[keyArtifact]); err != nil {
		return nil, err
	} else if v != "" {
		artifactName = v
	}
	plan.ArtifactPath = filepath.Join(envdir, artifactName)

	if plan.Commands, err = r.expandCommands(s, settings[keyCommands], plan.Setenv); err != nil {
		return nil, err
	}
	if plan.Install, err = r.expandInstall(s, settings[keyInstallCommand], plan.Deps, plan.Setenv); err != nil {
		return nil, err
	}

	if plan.Retries, err = r.expandInt(s, env, keyRetries, settings[keyRetries], 0); err != nil {
		return nil, err
	}
	if plan.RetryDelay, err = r.expandDuration(s, env, keyRetryDelay, settings[keyRetryDelay], defaultRetryDelay); err != nil {
		return nil, err
	}
	if plan.CommandTimeout, err = r.expandDuration(s, env, keyCommandTimeout, settings[keyCommandTimeout], 0); err != nil {
		return nil, err
	}

	if plan.ShardList, err = r.expandScalar(s, settings[keyShardList]); err != nil {
		return nil, err
	}
	if plan.ShardList != "" && !filepath.IsAbs(plan.ShardList) {
		plan.ShardList = filepath.Join(r.in.Root, plan.ShardList)
	}
	if plan.ShardCount, err = r.expandInt(s, env, keyShardCount, settings[keyShardCount], 0); err != nil {
		return nil, err
	}

	return plan, nil
}

// environment binds a concrete name to its factor set and defining
// section.
func (r *Resolver) environment(name string, exact, templated map[string]string) Environment {
	env := Environment{Name: name, Factors: factor.FromName(name)}
	if sec, ok := exact[name]; ok {
		env.Section = sec
	} else if sec, ok := templated[name]; ok {
		env.Section = sec
	}
	return env
}

// sectionClaims expands every `[env:...]` section name template and
// records which concrete names it covers. An exact (brace-free) section
// always beats a templated one; among templated sections the first
// declared wins.
func (r *Resolver) sectionClaims() (exact, templated map[string]string, err error) {
	exact = make(map[string]string)
	templated = make(map[string]string)
	for _, tmpl := range r.file.EnvSections() {
		names, err := factor.ExpandNames(tmpl)
		if err != nil {
			sec := r.file.Section(envfile.EnvSectionPrefix + tmpl)
			return nil, nil, &envfile.ParseError{Path: r.file.Path, Line: sec.Line, Msg: err.Error()}
		}
		if len(names) == 1 && names[0] == tmpl {
			exact[tmpl] = tmpl
			continue
		}
		for _, name := range names {
			if _, claimed := templated[name]; !claimed {
				templated[name] = tmpl
			}
		}
	}
	return exact, templated, nil
}

func (r *Resolver) flattened(env Environment) (map[string]envfile.Layered, error) {
	section := ""
	switch {
	case env.Section != "":
		section = envfile.EnvSectionPrefix + env.Section
	case r.file.Has(envfile.BaseEnvSection):
		section = envfile.BaseEnvSection
	default:
		return map[string]envfile.Layered{}, nil
	}

	layered, err := r.file.Flatten(section)
	if err != nil {
		return nil, err
	}
	out := make(map[string]envfile.Layered, len(layered))
	for _, l := range layered {
		out[l.Key] = l
	}
	return out, nil
}

func (r *Resolver) expandList(s *subster, l envfile.Layered) ([]string, error) {
	var out []string
	for _, line := range s.lines(l) {
		v, err := s.expand(line.text)
		if err != nil {
			return nil, err
		}
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *Resolver) expandScalar(s *subster, l envfile.Layered) (string, error) {
	raw, ok := s.scalar(l)
	if !ok {
		return "", nil
	}
	v, err := s.expand(raw)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// expandSetenv builds the variable map from `KEY = value` lines.
// A factor-guarded assignment overrides an unguarded one for the same
// key regardless of order; within the same guardedness the later
// assignment wins.
func (r *Resolver) expandSetenv(s *subster, l envfile.Layered) (map[string]string, error) {
	type entry struct {
		val     string
		guarded bool
	}
	vars := make(map[string]entry)
	order := []string{}
	for _, line := range s.lines(l) {
		key, val, ok := strings.Cut(line.text, "=")
		if !ok {
			return nil, substErrorf(s.env.Name, keySetenv, "expected KEY = value, got %q", line.text)
		}
		key = strings.TrimSpace(key)
		expanded, err := s.expand(strings.TrimSpace(val))
		if err != nil {
			return nil, err
		}
		prev, seen := vars[key]
		if !seen {
			order = append(order, key)
		}
		if seen && prev.guarded && !line.guarded {
			continue
		}
		vars[key] = entry{val: expanded, guarded: line.guarded || (seen && prev.guarded)}
	}

	out := make(map[string]string, len(vars))
	for _, key := range order {
		out[key] = vars[key].val
	}
	return out, nil
}

func (r *Resolver) expandChangedir(s *subster, l envfile.Layered) (string, error) {
	dir, err := r.expandScalar(s, l)
	if err != nil {
		return "", err
	}
	if dir == "" {
		return r.in.Root, nil
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.in.Root, dir)
	}
	return dir, nil
}

func (r *Resolver) expandCommands(s *subster, l envfile.Layered, vars map[string]string) ([]Command, error) {
	var out []Command
	for _, line := range s.lines(l) {
		resolved, err := s.expand(line.text)
		if err != nil {
			return nil, err
		}
		cmd, ok, err := compileCommand(s.env.Name, resolved, vars)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cmd)
		}
	}
	return out, nil
}

func (r *Resolver) expandInstall(s *subster, l envfile.Layered, deps []string, vars map[string]string) (*Command, error) {
	raw, ok := s.scalar(l)
	if !ok || len(deps) == 0 {
		return nil, nil
	}
	resolved, err := s.withExtras(map[string]string{tokenDeps: strings.Join(deps, " ")}, func() (string, error) {
		return s.expand(raw)
	})
	if err != nil {
		return nil, err
	}
	cmd, ok, err := compileCommand(s.env.Name, resolved, vars)
	if err != nil || !ok {
		return nil, err
	}
	return &cmd, nil
}

func (r *Resolver) expandInt(s *subster, env Environment, key string, l envfile.Layered, def int) (int, error) {
	v, err := r.expandScalar(s, l)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, substErrorf(env.Name, key, "not an integer: %q", v)
	}
	return n, nil
}

func (r *Resolver) expandDuration(s *subster, env Environment, key string, l envfile.Layered, def time.Duration) (time.Duration, error) {
	v, err := r.expandScalar(s, l)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, substErrorf(env.Name, key, "not a duration: %q", v)
	}
	return d, nil
}

// splitTokens splits space- or comma-separated tokens across lines,
// deduplicating while preserving first-occurrence order.
func splitTokens(lines []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, line := range lines {
		for _, tok := range strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		}) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}
