// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arpitjain799/envmatrix/internal/resolve"
)

var listCmd = &cobra.Command{
	Use:   "list [selector...]",
	Short: "List the concrete environments the envlist expands to",
	Long: `List prints every concrete environment name after brace-group
expansion, one per line in envlist order. With selectors, only the
matching environments are printed.`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	sess, err := loadSession()
	if err != nil {
		return configErr(err)
	}

	r := resolve.New(sess.file, resolve.Inputs{
		Workers:  sess.parallel,
		Root:     sess.root,
		WorkRoot: sess.workroot,
	})
	envs, err := r.Select(args)
	if err != nil {
		return configErr(err)
	}

	for _, env := range envs {
		if verbose {
			section := env.Section
			if section == "" {
				section = "env"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n",
				env.Name, VerboseStyle.Render("["+section+"]"))
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), env.Name)
	}
	return nil
}
