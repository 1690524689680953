// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/arpitjain799/envmatrix/internal/resolve"
	"github.com/arpitjain799/envmatrix/internal/testutil"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sh(script string) resolve.Command {
	return resolve.Command{Program: "sh", Args: []string{"-c", script}, Raw: "sh -c " + script}
}

func testPlan(t *testing.T, name string, commands ...resolve.Command) *resolve.Plan {
	t.Helper()
	envdir := filepath.Join(t.TempDir(), name)
	return &resolve.Plan{
		Env:          name,
		EnvDir:       envdir,
		Changedir:    filepath.Dir(envdir),
		ArtifactPath: filepath.Join(envdir, "coverage.out"),
		Commands:     commands,
		RetryDelay:   time.Millisecond,
	}
}

func TestRun_Passed(t *testing.T) {
	skipWithoutShell(t)

	plan := testPlan(t, "py36", sh("echo hello"))
	e := New(WithLogger(quietLogger()))

	results := e.Run(context.Background(), []*resolve.Plan{plan})
	if len(results) != 1 {
		t.Fatalf("Run() returned %d results, want 1", len(results))
	}
	res := results[0]

	if res.Status != StatusPassed {
		t.Fatalf("Status = %s, want passed (err: %v)", res.Status, res.Err)
	}
	if res.RunID != e.RunID() {
		t.Errorf("RunID = %q, want %q", res.RunID, e.RunID())
	}
	if len(res.Commands) != 1 || res.Commands[0].ExitCode != 0 {
		t.Fatalf("Commands = %+v", res.Commands)
	}

	out, err := os.ReadFile(res.Commands[0].LogPath)
	if err != nil {
		t.Fatalf("reading command log: %v", err)
	}
	if !strings.Contains(string(out), "hello") {
		t.Errorf("command log %q does not contain command output", out)
	}
}

func TestRun_FailedFailFast(t *testing.T) {
	skipWithoutShell(t)

	plan := testPlan(t, "py36", sh("exit 3"), sh("echo never"))
	res := New(WithLogger(quietLogger())).Run(context.Background(), []*resolve.Plan{plan})[0]

	if res.Status != StatusFailed {
		t.Fatalf("Status = %s, want failed", res.Status)
	}
	if len(res.Commands) != 1 {
		t.Fatalf("ran %d commands, want fail-fast after the first", len(res.Commands))
	}
	if res.Commands[0].ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.Commands[0].ExitCode)
	}
}

func TestRun_StartFailureErrored(t *testing.T) {
	plan := testPlan(t, "py36", resolve.Command{
		Program: "definitely-not-a-real-program",
		Raw:     "definitely-not-a-real-program",
	})
	res := New(WithLogger(quietLogger())).Run(context.Background(), []*resolve.Plan{plan})[0]

	if res.Status != StatusErrored {
		t.Fatalf("Status = %s, want errored", res.Status)
	}
	last := res.Commands[0].Attempts[len(res.Commands[0].Attempts)-1]
	if last.ExitCode != -1 || last.Err == "" {
		t.Errorf("attempt = %+v, want start failure", last)
	}
}

func TestRun_RetryEventualSuccess(t *testing.T) {
	skipWithoutShell(t)

	marker := filepath.Join(t.TempDir(), "marker")
	plan := testPlan(t, "py36", sh("test -e "+marker+" || { touch "+marker+"; exit 1; }"))
	plan.Retries = 2

	res := New(WithLogger(quietLogger())).Run(context.Background(), []*resolve.Plan{plan})[0]

	if res.Status != StatusPassed {
		t.Fatalf("Status = %s, want passed after retry (err: %v)", res.Status, res.Err)
	}
	cr := res.Commands[0]
	if len(cr.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(cr.Attempts))
	}
	if cr.Attempts[0].ExitCode != 1 || cr.Attempts[1].ExitCode != 0 {
		t.Errorf("attempt exit codes = %d, %d", cr.Attempts[0].ExitCode, cr.Attempts[1].ExitCode)
	}
	if !res.Retried() {
		t.Error("Retried() = false, want true")
	}
}

func TestRun_RetryDelayWaitsOnClock(t *testing.T) {
	skipWithoutShell(t)

	marker := filepath.Join(t.TempDir(), "marker")
	plan := testPlan(t, "py36", sh("test -e "+marker+" || { touch "+marker+"; exit 1; }"))
	plan.Retries = 1
	plan.RetryDelay = time.Hour

	clock := testutil.NewFakeClock(time.Time{})
	e := New(WithLogger(quietLogger()), WithClock(clock))

	done := make(chan *Result, 1)
	go func() {
		done <- e.Run(context.Background(), []*resolve.Plan{plan})[0]
	}()

	// The hour-long delay only elapses when the fake clock is advanced;
	// with a real clock this test could not finish.
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case res := <-done:
			if res.Status != StatusPassed {
				t.Fatalf("Status = %s, want passed after retry (err: %v)", res.Status, res.Err)
			}
			if got := len(res.Commands[0].Attempts); got != 2 {
				t.Fatalf("attempts = %d, want 2", got)
			}
			return
		case <-deadline:
			t.Fatal("retry delay never released by the fake clock")
		case <-tick.C:
			clock.Advance(plan.RetryDelay)
		}
	}
}

func TestRun_RetriesExhausted(t *testing.T) {
	skipWithoutShell(t)

	plan := testPlan(t, "py36", sh("exit 1"))
	plan.Retries = 2

	res := New(WithLogger(quietLogger())).Run(context.Background(), []*resolve.Plan{plan})[0]

	if res.Status != StatusFailed {
		t.Fatalf("Status = %s, want failed", res.Status)
	}
	if got := len(res.Commands[0].Attempts); got != 3 {
		t.Errorf("attempts = %d, want 3 (initial + 2 retries)", got)
	}
}

func TestRun_TimeoutErrored(t *testing.T) {
	skipWithoutShell(t)

	plan := testPlan(t, "py36", sh("sleep 10"))
	plan.CommandTimeout = 100 * time.Millisecond
	plan.Retries = 2

	start := time.Now()
	res := New(WithLogger(quietLogger())).Run(context.Background(), []*resolve.Plan{plan})[0]

	if res.Status != StatusErrored {
		t.Fatalf("Status = %s, want errored", res.Status)
	}
	if !res.Commands[0].TimedOut {
		t.Error("TimedOut = false")
	}
	if got := len(res.Commands[0].Attempts); got != 1 {
		t.Errorf("attempts = %d, want no retry after timeout", got)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("run took %v, timeout did not kill the process", elapsed)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := testPlan(t, "py36", sh("echo hello"))
	res := New(WithLogger(quietLogger())).Run(ctx, []*resolve.Plan{plan})[0]

	if res.Status != StatusCancelled {
		t.Fatalf("Status = %s, want cancelled", res.Status)
	}
	if res.Err == nil {
		t.Error("Err = nil, want context error")
	}
}

func TestRun_InstallFailure(t *testing.T) {
	skipWithoutShell(t)

	plan := testPlan(t, "py36", sh("echo never"))
	install := sh("exit 7")
	plan.Install = &install

	res := New(WithLogger(quietLogger())).Run(context.Background(), []*resolve.Plan{plan})[0]

	if res.Status != StatusErrored {
		t.Fatalf("Status = %s, want errored", res.Status)
	}
	if !errors.Is(res.Err, ErrProvisioning) {
		t.Errorf("Err = %v, want ErrProvisioning", res.Err)
	}
	if res.Install == nil || res.Install.ExitCode != 7 {
		t.Errorf("Install = %+v", res.Install)
	}
	if len(res.Commands) != 0 {
		t.Errorf("commands ran after install failure: %+v", res.Commands)
	}
}

func TestRun_ResultHookAndSiblingIsolation(t *testing.T) {
	skipWithoutShell(t)

	plans := []*resolve.Plan{
		testPlan(t, "good", sh("echo ok")),
		testPlan(t, "bad", sh("exit 1")),
	}

	var hooked []string
	e := New(
		WithLogger(quietLogger()),
		WithParallel(2),
		WithResultHook(func(r *Result) { hooked = append(hooked, r.Env) }),
	)
	results := e.Run(context.Background(), plans)

	if results[0].Status != StatusPassed {
		t.Errorf("good = %s, want passed despite sibling failure", results[0].Status)
	}
	if results[1].Status != StatusFailed {
		t.Errorf("bad = %s, want failed", results[1].Status)
	}
	if len(hooked) != 2 {
		t.Errorf("result hook fired %d times, want 2", len(hooked))
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusProvisioning, false},
		{StatusInstalling, false},
		{StatusRunning, false},
		{StatusPassed, true},
		{StatusFailed, true},
		{StatusErrored, true},
		{StatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestPartitionShards(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "ids.txt")
	content := "tests/test_a.py\ntests/test_b.py\n\n# comment\ntests/test_c.py\ntests/test_d.py\ntests/test_e.py\n"
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	plan := &resolve.Plan{
		Env:        "shard",
		EnvDir:     filepath.Join(dir, "env"),
		ShardList:  list,
		ShardCount: 2,
	}
	if err := os.MkdirAll(plan.EnvDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := partitionShards(plan); err != nil {
		t.Fatalf("partitionShards() error: %v", err)
	}

	read := func(n string) []string {
		data, err := os.ReadFile(filepath.Join(plan.EnvDir, n))
		if err != nil {
			t.Fatalf("reading %s: %v", n, err)
		}
		return strings.Fields(string(data))
	}

	shard0 := read("shard-0.txt")
	shard1 := read("shard-1.txt")
	if len(shard0) != 3 || len(shard1) != 2 {
		t.Errorf("shard sizes = %d, %d, want 3, 2", len(shard0), len(shard1))
	}
	seen := make(map[string]struct{})
	for _, id := range append(shard0, shard1...) {
		if _, dup := seen[id]; dup {
			t.Errorf("id %q assigned to more than one shard", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) != 5 {
		t.Errorf("partition covers %d ids, want 5", len(seen))
	}
}

func TestBuildCommandEnv(t *testing.T) {
	t.Setenv("CI_BUILD_ID", "42")
	t.Setenv("CI_JOB_NAME", "unit")
	t.Setenv("SECRET_TOKEN", "hunter2")

	plan := &resolve.Plan{
		PassEnv: []string{"CI_*"},
		Setenv:  map[string]string{"MODE": "test", "CI_JOB_NAME": "overridden"},
	}

	env := make(map[string]string)
	for _, entry := range buildCommandEnv(plan) {
		k, v, _ := strings.Cut(entry, "=")
		env[k] = v
	}

	if env["CI_BUILD_ID"] != "42" {
		t.Errorf("CI_BUILD_ID = %q, want glob passenv match", env["CI_BUILD_ID"])
	}
	if env["CI_JOB_NAME"] != "overridden" {
		t.Errorf("CI_JOB_NAME = %q, want setenv to win", env["CI_JOB_NAME"])
	}
	if env["MODE"] != "test" {
		t.Errorf("MODE = %q", env["MODE"])
	}
	if _, leaked := env["SECRET_TOKEN"]; leaked {
		t.Error("SECRET_TOKEN leaked without a passenv match")
	}
	if _, ok := env["PATH"]; !ok {
		t.Error("PATH missing from base allowlist")
	}
}
