// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/arpitjain799/envmatrix/internal/engine"
)

type (
	// Aggregator is the join barrier between the engine and group
	// reports. Terminal results are offered as environments finish; a
	// group aggregates as soon as its last member arrives. Safe for
	// concurrent use from engine workers.
	Aggregator struct {
		log    *slog.Logger
		runID  string
		groups []Group

		mu      sync.Mutex
		results map[string]*engine.Result
		members map[string][]string
		pending map[string]map[string]struct{}
		reports map[string]*Report
	}

	// Report is the consolidated outcome of one group.
	Report struct {
		Group    string         `yaml:"group"`
		RunID    string         `yaml:"run_id"`
		Complete bool           `yaml:"complete"`
		Members  []MemberReport `yaml:"members"`
		Units    []string       `yaml:"units"`
	}

	// MemberReport is one environment's contribution to a Report.
	MemberReport struct {
		Env      string `yaml:"env"`
		Status   string `yaml:"status"`
		Attempts int    `yaml:"attempts"`
		Units    int    `yaml:"units"`
		Error    string `yaml:"error,omitempty"`
	}
)

// NewAggregator wires the groups to the run's selected environments.
// Groups with no matching member are dropped with a warning; an
// environment may belong to several groups.
func NewAggregator(groups []Group, envs []string, runID string, log *slog.Logger) *Aggregator {
	a := &Aggregator{
		log:     log,
		runID:   runID,
		results: make(map[string]*engine.Result),
		members: make(map[string][]string),
		pending: make(map[string]map[string]struct{}),
		reports: make(map[string]*Report),
	}
	for _, g := range groups {
		members := g.Members(envs)
		if len(members) == 0 {
			log.Warn("aggregation group matches no selected environment",
				"group", g.Name, "pattern", g.Pattern)
			continue
		}
		a.groups = append(a.groups, g)
		a.members[g.Name] = members
		waiting := make(map[string]struct{}, len(members))
		for _, m := range members {
			waiting[m] = struct{}{}
		}
		a.pending[g.Name] = waiting
	}
	return a
}

// Offer feeds one terminal result to the barrier and aggregates every
// group the result completes. Aggregation failures are recorded in the
// reports, not returned.
func (a *Aggregator) Offer(res *engine.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.results[res.Env] = res
	for _, g := range a.groups {
		waiting, ok := a.pending[g.Name]
		if !ok {
			continue
		}
		delete(waiting, res.Env)
		if len(waiting) > 0 {
			continue
		}
		delete(a.pending, g.Name)
		a.reports[g.Name] = a.aggregate(g)
	}
}

// Reports returns the generated reports in group declaration order.
// Groups whose members never all terminated (the run was cut short
// before Offer saw them) are aggregated best-effort at this point,
// flagged incomplete.
func (a *Aggregator) Reports() []*Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []*Report
	for _, g := range a.groups {
		if _, waiting := a.pending[g.Name]; waiting {
			delete(a.pending, g.Name)
			a.reports[g.Name] = a.aggregate(g)
		}
		out = append(out, a.reports[g.Name])
	}
	return out
}

// aggregate merges the group's member artifacts and writes the YAML
// report plus the combined raw artifact. Called with mu held.
func (a *Aggregator) aggregate(g Group) *Report {
	report := &Report{Group: g.Name, RunID: a.runID, Complete: true}

	var lists [][]string
	for _, env := range a.members[g.Name] {
		res := a.results[env]
		member := MemberReport{Env: env}
		if res == nil {
			member.Status = string(engine.StatusPending)
			member.Error = (&AggregationError{Group: g.Name, Member: env, Msg: "environment never reached a terminal state"}).Error()
			report.Complete = false
			report.Members = append(report.Members, member)
			continue
		}

		member.Status = res.Status.String()
		member.Attempts = res.TotalAttempts()

		if res.Status == engine.StatusErrored || res.Status == engine.StatusCancelled {
			member.Error = (&AggregationError{Group: g.Name, Member: env, Msg: "environment did not run to completion"}).Error()
			report.Complete = false
			report.Members = append(report.Members, member)
			continue
		}

		units, err := ReadUnits(res.ArtifactPath)
		if err != nil {
			aerr := &AggregationError{Group: g.Name, Member: env, Msg: "unreadable artifact", Cause: err}
			a.log.Warn("skipping member artifact", "group", g.Name, "env", env, "error", err)
			member.Error = aerr.Error()
			report.Complete = false
			report.Members = append(report.Members, member)
			continue
		}

		member.Units = len(units)
		lists = append(lists, units)
		report.Members = append(report.Members, member)
	}

	report.Units = union(lists...)

	if err := a.write(g, report); err != nil {
		a.log.Error("writing group report", "group", g.Name, "error", err)
		report.Complete = false
	}
	return report
}

func (a *Aggregator) write(g Group, report *Report) error {
	if err := os.MkdirAll(filepath.Dir(g.Report), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(g.Report, data, 0o644); err != nil {
		return err
	}

	combined := ""
	if len(report.Units) > 0 {
		combined = strings.Join(report.Units, "\n") + "\n"
	}
	return os.WriteFile(g.CombinedPath(), []byte(combined), 0o644)
}
