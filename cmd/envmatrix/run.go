// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arpitjain799/envmatrix/internal/artifact"
	"github.com/arpitjain799/envmatrix/internal/engine"
	"github.com/arpitjain799/envmatrix/internal/resolve"
	"github.com/arpitjain799/envmatrix/pkg/types"
)

var (
	// parallelFlag overrides the configured environment parallelism.
	parallelFlag int

	runCmd = &cobra.Command{
		Use:   "run [selector...] [-- posargs...]",
		Short: "Run selected environments and aggregate their artifacts",
		Long: `Run expands the envlist, resolves an execution plan per selected
environment, and executes the plans under a bounded worker pool.

Selectors are concrete environment names or glob patterns; with no
selector the whole envlist runs. Arguments after '--' are passed to
commands via the {posargs} token.`,
		RunE: runRun,
	}
)

func init() {
	runCmd.Flags().IntVarP(&parallelFlag, "parallel", "p", 0, "number of environments to run concurrently (default from settings or [matrix])")
}

func runRun(cmd *cobra.Command, args []string) error {
	selectors, posargs := splitAtDash(cmd, args)

	sess, err := loadSession()
	if err != nil {
		return configErr(err)
	}

	workers := sess.parallel
	if parallelFlag > 0 {
		workers = parallelFlag
	}

	r := resolve.New(sess.file, resolve.Inputs{
		PosArgs:  posargs,
		Workers:  workers,
		Root:     sess.root,
		WorkRoot: sess.workroot,
	})

	envs, err := r.Select(selectors)
	if err != nil {
		return configErr(err)
	}

	// A substitution failure is fatal for its own environment only;
	// siblings still run. Anything else is a configuration error that
	// stops the run before execution.
	plans := make([]*resolve.Plan, 0, len(envs))
	names := make([]string, 0, len(envs))
	unresolved := make(map[string]*engine.Result)
	for _, env := range envs {
		plan, err := r.Resolve(env)
		if err != nil {
			if !errors.Is(err, resolve.ErrSubstitution) {
				return configErr(err)
			}
			unresolved[env.Name] = &engine.Result{
				Env:    env.Name,
				Status: engine.StatusErrored,
				Err:    err,
			}
			names = append(names, env.Name)
			continue
		}
		plans = append(plans, plan)
		names = append(names, env.Name)
	}

	groups, err := artifact.GroupsFromFile(sess.file, sess.root, sess.workroot)
	if err != nil {
		return configErr(err)
	}

	log := slog.Default()
	eng := engine.New(
		engine.WithLogger(log),
		engine.WithParallel(workers),
		engine.WithOutput(os.Stdout, os.Stderr),
	)
	agg := artifact.NewAggregator(groups, names, eng.RunID(), log)
	eng.OnResult(agg.Offer)
	for _, res := range unresolved {
		res.RunID = eng.RunID()
		agg.Offer(res)
	}

	ran := eng.Run(cmd.Context(), plans)
	reports := agg.Reports()

	byEnv := make(map[string]*engine.Result, len(ran))
	for _, res := range ran {
		byEnv[res.Env] = res
	}
	results := make([]*engine.Result, 0, len(names))
	for _, name := range names {
		if res, ok := unresolved[name]; ok {
			results = append(results, res)
			continue
		}
		results = append(results, byEnv[name])
	}

	fmt.Fprint(cmd.OutOrStdout(), renderSummary(results, reports))

	for _, res := range results {
		if !res.Status.Success() {
			if verbose {
				printRemedy(cmd, worstIssue(results))
			}
			return &ExitError{Code: types.ExitRunFailed}
		}
	}
	return nil
}

// splitAtDash separates selectors from posargs at the '--' marker.
func splitAtDash(cmd *cobra.Command, args []string) (selectors, posargs []string) {
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		return args[:at], args[at:]
	}
	return args, nil
}

// configErr wraps a pre-execution failure with the config exit code.
func configErr(err error) error {
	return &ExitError{Code: types.ExitConfigError, Err: err}
}
