// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"os"
	"path"
	"sort"
	"strings"

	"github.com/arpitjain799/envmatrix/internal/resolve"
)

// basePassEnv is always inherited from the host regardless of the
// plan's passenv list; commands cannot run usefully without them.
var basePassEnv = []string{"PATH", "HOME", "TMPDIR", "LANG", "TERM"}

// buildCommandEnv assembles the process environment for a plan's
// commands: host variables matching the passenv allowlist (names or
// glob patterns), then the plan's setenv assignments, which win on
// conflict. The result is sorted for deterministic process spawns.
func buildCommandEnv(plan *resolve.Plan) []string {
	allow := append(append([]string{}, basePassEnv...), plan.PassEnv...)

	env := make(map[string]string)
	for _, entry := range os.Environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if passEnvMatch(allow, name) {
			env[name] = value
		}
	}
	for k, v := range plan.Setenv {
		env[k] = v
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func passEnvMatch(patterns []string, name string) bool {
	for _, pat := range patterns {
		if pat == name {
			return true
		}
		if strings.ContainsAny(pat, "*?[") {
			if ok, err := path.Match(pat, name); err == nil && ok {
				return true
			}
		}
	}
	return false
}
