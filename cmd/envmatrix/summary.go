// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/arpitjain799/envmatrix/internal/artifact"
	"github.com/arpitjain799/envmatrix/internal/engine"
)

// timeRounding trims summary durations to a readable precision.
const timeRounding = 10 * time.Millisecond

// renderSummary builds the styled end-of-run summary: one line per
// selected environment, then one line per aggregation group.
func renderSummary(results []*engine.Result, reports []*artifact.Report) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("run summary"))
	b.WriteString("\n")

	width := 0
	for _, res := range results {
		if len(res.Env) > width {
			width = len(res.Env)
		}
	}

	for _, res := range results {
		name := EnvStyle.Render(fmt.Sprintf("%-*s", width, res.Env))
		status := statusStyle(res.Status).Render(string(res.Status))
		detail := resultDetail(res)
		fmt.Fprintf(&b, "  %s  %s  %s\n", name, status, VerboseStyle.Render(detail))
	}

	if len(reports) > 0 {
		b.WriteString(SubtitleStyle.Render("group reports"))
		b.WriteString("\n")
		for _, rep := range reports {
			state := SuccessStyle.Render("complete")
			if !rep.Complete {
				state = WarningStyle.Render("incomplete")
			}
			fmt.Fprintf(&b, "  %s  %s  %s\n",
				EnvStyle.Render(rep.Group), state,
				VerboseStyle.Render(fmt.Sprintf("%d units", len(rep.Units))))
		}
	}

	return b.String()
}

// resultDetail is the per-environment tail of a summary line:
// commands run, total attempts, wall time, and the terminal error if
// one stands.
func resultDetail(res *engine.Result) string {
	parts := []string{
		fmt.Sprintf("%d commands", len(res.Commands)),
		fmt.Sprintf("%d attempts", res.TotalAttempts()),
		res.Duration.Round(timeRounding).String(),
	}
	if res.Status == engine.StatusFailed && len(res.Commands) > 0 {
		last := res.Commands[len(res.Commands)-1]
		parts = append(parts, fmt.Sprintf("exit %d: %s", last.ExitCode, last.Raw))
	}
	if res.Err != nil && res.Status != engine.StatusFailed {
		parts = append(parts, res.Err.Error())
	}
	return strings.Join(parts, ", ")
}
