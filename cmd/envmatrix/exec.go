// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arpitjain799/envmatrix/internal/engine"
	"github.com/arpitjain799/envmatrix/internal/resolve"
	"github.com/arpitjain799/envmatrix/pkg/envfile"
	"github.com/arpitjain799/envmatrix/pkg/types"
)

var execCmd = &cobra.Command{
	Use:   "exec <environment> -- <command> [args...]",
	Short: "Run a single ad-hoc command inside one environment",
	Long: `Exec resolves one environment and runs the given command in its
provisioned context: same directory layout, same setenv/passenv
variables, same timeout. The environment's configured commands are
not run, and the install step is skipped when the environment
directory already exists from an earlier run.`,
	Args: func(cmd *cobra.Command, args []string) error {
		at := cmd.ArgsLenAtDash()
		if at != 1 || len(args) < 2 {
			return fmt.Errorf("usage: exec <environment> -- <command> [args...]")
		}
		return nil
	},
	RunE: runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	envName := args[0]
	override := args[1:]

	sess, err := loadSession()
	if err != nil {
		return configErr(err)
	}

	r := resolve.New(sess.file, resolve.Inputs{
		Workers:  1,
		Root:     sess.root,
		WorkRoot: sess.workroot,
	})

	envs, err := r.Select([]string{envName})
	if err != nil {
		return configErr(err)
	}
	if len(envs) != 1 {
		return configErr(&envfile.ParseError{
			Path: sess.path,
			Msg:  fmt.Sprintf("exec needs exactly one environment, %q matched %d", envName, len(envs)),
		})
	}

	plan, err := r.Resolve(envs[0])
	if err != nil {
		return configErr(err)
	}

	adhoc := *plan
	adhoc.Commands = []resolve.Command{{
		Program: override[0],
		Args:    override[1:],
		Raw:     strings.Join(override, " "),
	}}
	adhoc.Retries = 0
	if _, err := os.Stat(adhoc.EnvDir); err == nil {
		adhoc.Install = nil
	}

	eng := engine.New(
		engine.WithLogger(slog.Default()),
		engine.WithOutput(os.Stdout, os.Stderr),
	)
	results := eng.Run(cmd.Context(), []*resolve.Plan{&adhoc})

	res := results[0]
	if !res.Status.Success() {
		if verbose {
			printRemedy(cmd, worstIssue(results))
		}
		return &ExitError{Code: types.ExitRunFailed}
	}
	return nil
}
