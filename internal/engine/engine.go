// SPDX-License-Identifier: MPL-2.0

// Package engine executes resolved environment plans: it provisions
// per-environment directories, runs install and test commands with
// retry and timeout handling, and drives each environment through its
// lifecycle states under a bounded worker pool.
package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/arpitjain799/envmatrix/internal/resolve"
	"github.com/arpitjain799/envmatrix/internal/testutil"
)

type (
	// Engine runs execution plans. Construct with New; the zero value
	// is not usable.
	Engine struct {
		log      *slog.Logger
		clock    testutil.Clock
		parallel int
		runID    string
		stdout   io.Writer
		stderr   io.Writer
		onResult func(*Result)
	}

	// Option configures an Engine.
	Option func(*Engine)
)

// WithLogger sets the engine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock substitutes the time source, used by tests to make retry
// delays deterministic.
func WithClock(c testutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithParallel bounds how many environments run concurrently.
func WithParallel(n int) Option {
	return func(e *Engine) { e.parallel = n }
}

// WithOutput streams live command output to the given writers in
// addition to the per-command log files.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithResultHook registers a callback invoked as each environment
// reaches a terminal state, from the worker goroutine that ran it.
func WithResultHook(fn func(*Result)) Option {
	return func(e *Engine) { e.onResult = fn }
}

// New builds an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:      slog.Default(),
		clock:    testutil.RealClock{},
		parallel: 1,
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parallel < 1 {
		e.parallel = 1
	}
	return e
}

// RunID returns the identifier stamped on this engine's results.
func (e *Engine) RunID() string {
	return e.runID
}

// OnResult registers the terminal-result callback after construction,
// for callers whose hook needs the engine's RunID. Must be called
// before Run.
func (e *Engine) OnResult(fn func(*Result)) {
	e.onResult = fn
}

// Run executes every plan and returns one terminal result per plan, in
// plan order. Environment failures are reported in the results, never
// as an error; ctx cancellation marks unfinished environments
// Cancelled and still returns the full result set.
func (e *Engine) Run(ctx context.Context, plans []*resolve.Plan) []*Result {
	results := make([]*Result, len(plans))

	var g errgroup.Group
	g.SetLimit(e.parallel)
	for i, plan := range plans {
		g.Go(func() error {
			res := e.runEnvironment(ctx, plan)
			results[i] = res
			e.log.Debug("environment finished",
				"env", res.Env, "status", res.Status, "duration", res.Duration)
			if e.onResult != nil {
				e.onResult(res)
			}
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	return results
}
