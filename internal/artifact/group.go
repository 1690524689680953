// SPDX-License-Identifier: MPL-2.0

// Package artifact aggregates per-environment coverage artifacts into
// group reports. A group names a set of environments by glob pattern;
// once every member reaches a terminal state its artifacts are merged
// into a consolidated YAML report plus a combined raw artifact.
package artifact

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/arpitjain799/envmatrix/pkg/envfile"
)

// Group section setting keys.
const (
	keyPattern = "pattern"
	keyReport  = "report"
)

// Group is one aggregation group declared as a [group:NAME] section.
type Group struct {
	// Name is the group name without the section prefix.
	Name string
	// Pattern is the glob matched against environment names to pick
	// the group's members.
	Pattern string
	// Report is the absolute path of the consolidated YAML report.
	Report string
}

// GroupsFromFile reads every [group:NAME] section. Relative report
// paths are resolved against root; a group without a report defaults
// to {workroot}/reports/NAME.yaml.
func GroupsFromFile(f *envfile.File, root, workroot string) ([]Group, error) {
	var out []Group
	for _, name := range f.GroupSections() {
		sec := f.Section(envfile.GroupSectionPrefix + name)
		pattern := sec.GetRaw(keyPattern)
		if pattern == "" {
			return nil, &envfile.ParseError{
				Path: f.Path, Line: sec.Line,
				Msg: fmt.Sprintf("[group:%s] declares no pattern", name),
			}
		}
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, &envfile.ParseError{
				Path: f.Path, Line: sec.Line,
				Msg: fmt.Sprintf("[group:%s] has malformed pattern %q", name, pattern),
			}
		}

		report := sec.GetRaw(keyReport)
		if report == "" {
			report = filepath.Join(workroot, "reports", name+".yaml")
		} else if !filepath.IsAbs(report) {
			report = filepath.Join(root, report)
		}

		out = append(out, Group{Name: name, Pattern: pattern, Report: report})
	}
	return out, nil
}

// Members returns the environments matching the group's pattern, in
// input order.
func (g Group) Members(envs []string) []string {
	var out []string
	for _, env := range envs {
		if ok, _ := path.Match(g.Pattern, env); ok {
			out = append(out, env)
		}
	}
	return out
}

// CombinedPath is where the group's merged raw artifact is written,
// next to the YAML report.
func (g Group) CombinedPath() string {
	ext := filepath.Ext(g.Report)
	return g.Report[:len(g.Report)-len(ext)] + ".combined"
}
