// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"fmt"
)

// ErrConfig is the sentinel error wrapped by every ParseError, so that
// callers can detect configuration-time failures with errors.Is.
var ErrConfig = errors.New("invalid configuration")

// ParseError reports a malformed configuration file. It is fatal: no
// environment may execute when the file itself cannot be loaded.
type ParseError struct {
	// Path is the configuration file path.
	Path string
	// Line is the 1-based line the problem was detected on (0 when the
	// problem is not tied to a single line, e.g. a cyclic base chain).
	Line int
	// Msg describes the problem.
	Msg string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Unwrap returns ErrConfig for programmatic detection.
func (e *ParseError) Unwrap() error { return ErrConfig }

func parseErrorf(path string, line int, format string, args ...any) *ParseError {
	return &ParseError{Path: path, Line: line, Msg: fmt.Sprintf(format, args...)}
}
