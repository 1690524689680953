// SPDX-License-Identifier: MPL-2.0

package engine

// Environment lifecycle states.
const (
	StatusPending      Status = "pending"
	StatusProvisioning Status = "provisioning"
	StatusInstalling   Status = "installing"
	StatusRunning      Status = "running"
	StatusPassed       Status = "passed"
	StatusFailed       Status = "failed"
	StatusErrored      Status = "errored"
	StatusCancelled    Status = "cancelled"
)

// Status identifies where an environment is in its lifecycle.
// Pending, Provisioning, Installing and Running are transient;
// Passed, Failed, Errored and Cancelled are terminal.
type Status string

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusCancelled:
		return true
	}
	return false
}

// Success reports whether the environment completed with every command
// exiting zero.
func (s Status) Success() bool {
	return s == StatusPassed
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}
