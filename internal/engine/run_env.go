// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/arpitjain799/envmatrix/internal/resolve"
)

// waitDelay bounds how long Wait blocks on I/O pipes after the process
// group has been killed.
const waitDelay = 5 * time.Second

// runEnvironment drives one environment from Pending to a terminal
// state. Failures are recorded in the result, never returned.
func (e *Engine) runEnvironment(ctx context.Context, plan *resolve.Plan) *Result {
	res := &Result{
		Env:          plan.Env,
		RunID:        e.runID,
		Status:       StatusPending,
		ArtifactPath: plan.ArtifactPath,
		Started:      e.clock.Now(),
	}
	defer func() {
		res.Duration = e.clock.Since(res.Started)
	}()

	if ctx.Err() != nil {
		res.Status = StatusCancelled
		res.Err = ctx.Err()
		return res
	}

	res.Status = StatusProvisioning
	e.log.Debug("provisioning", "env", plan.Env, "dir", plan.EnvDir)
	if err := e.provision(plan); err != nil {
		res.Status = StatusErrored
		res.Err = err
		return res
	}

	if plan.Install != nil {
		res.Status = StatusInstalling
		e.log.Debug("installing", "env", plan.Env, "command", plan.Install.Raw)
		cr := e.runCommand(ctx, plan, *plan.Install, 0)
		res.Install = &cr
		if !commandPassed(cr) {
			res.Status, res.Err = installOutcome(ctx, plan.Env, cr)
			return res
		}
	}

	res.Status = StatusRunning
	env := buildCommandEnv(plan)
	for i, cmd := range plan.Commands {
		if ctx.Err() != nil {
			res.Status = StatusCancelled
			res.Err = ctx.Err()
			return res
		}
		e.log.Debug("running command", "env", plan.Env, "command", cmd.Raw)
		cr := e.runCommandEnv(ctx, plan, cmd, i+1, env)
		res.Commands = append(res.Commands, cr)
		if commandPassed(cr) {
			continue
		}
		res.Status, res.Err = commandOutcome(ctx, plan.Env, cr)
		return res
	}

	res.Status = StatusPassed
	return res
}

// commandPassed reports whether the command's standing attempt exited
// zero.
func commandPassed(cr CommandResult) bool {
	if len(cr.Attempts) == 0 {
		return false
	}
	last := cr.Attempts[len(cr.Attempts)-1]
	return last.ExitCode == 0 && last.Err == ""
}

// commandOutcome classifies a failed command. Timeouts, start
// failures and cancellation are Errored or Cancelled; a plain
// non-zero exit is Failed.
func commandOutcome(ctx context.Context, env string, cr CommandResult) (Status, error) {
	if ctx.Err() != nil {
		return StatusCancelled, ctx.Err()
	}
	if cr.TimedOut {
		return StatusErrored, fmt.Errorf("environment %s: command %q timed out", env, cr.Raw)
	}
	last := cr.Attempts[len(cr.Attempts)-1]
	if last.Err != "" {
		return StatusErrored, fmt.Errorf("environment %s: command %q: %s", env, cr.Raw, last.Err)
	}
	return StatusFailed, nil
}

// installOutcome classifies a failed install step. Any install
// failure is terminal as a provisioning error, except cancellation.
func installOutcome(ctx context.Context, env string, cr CommandResult) (Status, error) {
	if ctx.Err() != nil {
		return StatusCancelled, ctx.Err()
	}
	last := cr.Attempts[len(cr.Attempts)-1]
	perr := &ProvisioningError{Env: env, Step: "install dependencies", ExitCode: last.ExitCode}
	if last.Err != "" {
		perr.Cause = errors.New(last.Err)
	}
	return StatusErrored, perr
}

func (e *Engine) runCommand(ctx context.Context, plan *resolve.Plan, cmd resolve.Command, seq int) CommandResult {
	return e.runCommandEnv(ctx, plan, cmd, seq, buildCommandEnv(plan))
}

// runCommandEnv executes one command with the plan's retry policy:
// a fixed delay between attempts, retrying exit failures and start
// failures. Timeouts and cancellation are never retried.
func (e *Engine) runCommandEnv(ctx context.Context, plan *resolve.Plan, cmd resolve.Command, seq int, env []string) CommandResult {
	cr := CommandResult{
		Raw:     cmd.Raw,
		LogPath: filepath.Join(plan.EnvDir, logDirName, fmt.Sprintf("%d-%s.log", seq, filepath.Base(cmd.Program))),
	}

	for attempt := 1; ; attempt++ {
		a, timedOut := e.attempt(ctx, plan, cmd, cr.LogPath, env, attempt)
		cr.Attempts = append(cr.Attempts, a)
		cr.ExitCode = a.ExitCode
		cr.TimedOut = timedOut

		if a.ExitCode == 0 && a.Err == "" {
			return cr
		}
		if timedOut || ctx.Err() != nil || attempt > plan.Retries {
			return cr
		}

		e.log.Debug("retrying command",
			"env", plan.Env, "command", cmd.Raw, "attempt", attempt, "delay", plan.RetryDelay)
		select {
		case <-e.clock.After(plan.RetryDelay):
		case <-ctx.Done():
			return cr
		}
	}
}

// attempt runs the command once, appending captured output to the log
// file. The second return value reports a timeout kill.
func (e *Engine) attempt(ctx context.Context, plan *resolve.Plan, cmd resolve.Command, logPath string, env []string, number int) (Attempt, bool) {
	a := Attempt{Number: number, ExitCode: -1}

	runCtx := ctx
	if plan.CommandTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, plan.CommandTimeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, cmd.Program, cmd.Args...)
	c.Dir = plan.Changedir
	c.Env = env
	setProcGroup(c)
	c.Cancel = func() error { return killProcGroup(c) }
	c.WaitDelay = waitDelay

	logf, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		a.Err = err.Error()
		return a, false
	}
	defer logf.Close()
	fmt.Fprintf(logf, "# attempt %d: %s\n", number, cmd.Raw)

	var stdout, stderr io.Writer = logf, logf
	if e.stdout != nil {
		stdout = io.MultiWriter(logf, e.stdout)
	}
	if e.stderr != nil {
		stderr = io.MultiWriter(logf, e.stderr)
	}
	c.Stdout = stdout
	c.Stderr = stderr

	start := e.clock.Now()
	err = c.Run()
	a.Duration = e.clock.Since(start)

	timedOut := plan.CommandTimeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded)

	switch {
	case err == nil:
		a.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			a.ExitCode = exitErr.ExitCode()
		} else {
			a.Err = err.Error()
		}
	}
	return a, timedOut
}
