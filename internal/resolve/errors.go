// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
)

// ErrSubstitution is the sentinel error wrapped by SubstitutionError.
var ErrSubstitution = errors.New("substitution failed")

// SubstitutionError reports an unresolvable setting in one
// environment's plan: an unknown token, a cyclic reference, or a value
// that cannot be parsed into its setting's type. It is terminal for the
// affected environment and never aborts siblings.
type SubstitutionError struct {
	// Env is the concrete environment name.
	Env string
	// Token is the token or setting key that failed.
	Token string
	// Msg describes the failure.
	Msg string
}

// Error implements the error interface.
func (e *SubstitutionError) Error() string {
	return fmt.Sprintf("environment %s: %s: %s", e.Env, e.Token, e.Msg)
}

// Unwrap returns ErrSubstitution for programmatic detection.
func (e *SubstitutionError) Unwrap() error { return ErrSubstitution }

func substErrorf(env, token, format string, args ...any) *SubstitutionError {
	return &SubstitutionError{Env: env, Token: token, Msg: fmt.Sprintf(format, args...)}
}
