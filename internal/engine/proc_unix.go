// SPDX-License-Identifier: MPL-2.0

//go:build unix

package engine

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcGroup places the command in its own process group so a
// timeout or cancellation can take down the whole subtree, not just
// the immediate child. Test runners routinely fork workers; killing
// only the leader leaves them orphaned and holding the artifact file.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcGroup signals the command's entire process group. Safe to
// call only after the process has started.
func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
}
