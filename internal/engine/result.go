// SPDX-License-Identifier: MPL-2.0

package engine

import "time"

type (
	// Attempt records one execution of a command, including retried
	// executions that were superseded by a later attempt.
	Attempt struct {
		// Number is the 1-based attempt counter.
		Number int
		// ExitCode is the command's exit code, -1 when it never started.
		ExitCode int
		// Err describes a start failure; empty when the process ran.
		Err string
		// Duration is the wall time of this attempt.
		Duration time.Duration
	}

	// CommandResult is the outcome of one command line in an
	// environment's plan, across all of its attempts.
	CommandResult struct {
		// Raw is the resolved command line.
		Raw string
		// Attempts holds every execution in order; the last entry is
		// the one whose outcome stands.
		Attempts []Attempt
		// ExitCode is the final attempt's exit code.
		ExitCode int
		// TimedOut is set when the command was killed by its timeout.
		TimedOut bool
		// LogPath is the captured-output log file, if one was written.
		LogPath string
	}

	// Result is the terminal outcome of one environment.
	Result struct {
		// Env is the concrete environment name.
		Env string
		// RunID identifies the run this result belongs to.
		RunID string
		// Status is the terminal status.
		Status Status
		// Install is the install command's outcome, nil when no
		// install step ran.
		Install *CommandResult
		// Commands holds per-command outcomes in plan order; commands
		// never reached (fail-fast, cancellation) are absent.
		Commands []CommandResult
		// Err is the terminal error for Errored and Cancelled results.
		Err error
		// ArtifactPath is where the environment's artifact is expected.
		ArtifactPath string
		// Started is when the environment left Pending.
		Started time.Time
		// Duration is the environment's total wall time.
		Duration time.Duration
	}
)

// TotalAttempts sums attempts across all commands, counting retries.
func (r *Result) TotalAttempts() int {
	n := 0
	if r.Install != nil {
		n += len(r.Install.Attempts)
	}
	for _, c := range r.Commands {
		n += len(c.Attempts)
	}
	return n
}

// Retried reports whether any command needed more than one attempt.
func (r *Result) Retried() bool {
	for _, c := range r.Commands {
		if len(c.Attempts) > 1 {
			return true
		}
	}
	return false
}
