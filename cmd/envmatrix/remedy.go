// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arpitjain799/envmatrix/internal/engine"
	"github.com/arpitjain799/envmatrix/internal/issue"
)

// worstIssue picks the remedy card for a failed run, preferring the
// most structural cause: provisioning over timeout over a plain
// command failure.
func worstIssue(results []*engine.Result) issue.Id {
	id := issue.CommandFailedId
	for _, res := range results {
		if errors.Is(res.Err, engine.ErrProvisioning) {
			return issue.ProvisioningFailedId
		}
		for _, cr := range res.Commands {
			if cr.TimedOut {
				id = issue.CommandTimeoutId
			}
		}
	}
	return id
}

// printRemedy renders the markdown remedy card for an issue to
// stderr. Rendering failures are swallowed; the card is advisory.
func printRemedy(cmd *cobra.Command, id issue.Id) {
	iss := issue.Get(id)
	if iss == nil {
		return
	}
	out, err := iss.Render("dark")
	if err != nil {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), out)
}
