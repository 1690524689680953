// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package engine

import "os/exec"

// setProcGroup is a no-op where process groups are unavailable;
// cancellation falls back to killing the immediate child only.
func setProcGroup(cmd *exec.Cmd) {}

// killProcGroup kills the immediate child. Grandchildren may survive
// on these platforms.
func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
