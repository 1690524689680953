// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test helpers, chiefly the Clock
// abstraction that lets time-dependent code (retry delays) run under a
// real clock in production and a manually advanced FakeClock in tests.
package testutil
