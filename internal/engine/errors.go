// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
)

// ErrProvisioning is the sentinel error wrapped by ProvisioningError.
var ErrProvisioning = errors.New("provisioning failed")

// ProvisioningError reports a failure while preparing an environment
// before its commands run: directory setup, shard partitioning, or the
// install step. It is terminal for the affected environment only.
type ProvisioningError struct {
	// Env is the concrete environment name.
	Env string
	// Step names the provisioning stage that failed.
	Step string
	// Cause is the underlying error, nil for install exit failures.
	Cause error
	// ExitCode is the install command's exit code, 0 otherwise.
	ExitCode int
}

// Error implements the error interface.
func (e *ProvisioningError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("environment %s: %s: %v", e.Env, e.Step, e.Cause)
	}
	return fmt.Sprintf("environment %s: %s: exit status %d", e.Env, e.Step, e.ExitCode)
}

// Unwrap returns ErrProvisioning, and the cause when present.
func (e *ProvisioningError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrProvisioning, e.Cause}
	}
	return []error{ErrProvisioning}
}
