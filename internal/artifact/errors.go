// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"errors"
	"fmt"
)

// ErrAggregation is the sentinel error wrapped by AggregationError.
var ErrAggregation = errors.New("aggregation failed")

// AggregationError reports a member whose artifact could not be
// merged: the file is missing, unreadable, or corrupt. It never stops
// the group's merge; the report records it and is flagged incomplete.
type AggregationError struct {
	// Group is the aggregation group name.
	Group string
	// Member is the environment whose artifact failed.
	Member string
	// Msg describes the failure.
	Msg string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *AggregationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("group %s: member %s: %s: %v", e.Group, e.Member, e.Msg, e.Cause)
	}
	return fmt.Sprintf("group %s: member %s: %s", e.Group, e.Member, e.Msg)
}

// Unwrap returns ErrAggregation, and the cause when present.
func (e *AggregationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrAggregation, e.Cause}
	}
	return []error{ErrAggregation}
}
