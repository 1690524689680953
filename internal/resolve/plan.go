// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"time"

	"github.com/arpitjain799/envmatrix/internal/factor"
)

type (
	// Environment is one point in the factor cartesian product: a
	// concrete name plus the factor set derived from it, and the
	// configuration section that defines it (empty when only the shared
	// [env] template applies).
	Environment struct {
		// Name is the concrete environment name, e.g. "func-sklearn-py37".
		Name string
		// Factors is the set of dash-separated tokens of Name.
		Factors factor.Set
		// Section is the matching `env:` section name template, without
		// the prefix ("" when none matched).
		Section string
	}

	// Command is a compiled command: program plus argument vector, with
	// all tokens already substituted. Commands never pass through a
	// shell at execution time.
	Command struct {
		// Program is the executable name or path.
		Program string
		// Args is the argument vector, not including Program.
		Args []string
		// Raw is the resolved command line, kept for logs and summaries.
		Raw string
	}

	// Plan is the fully resolved execution plan for one environment.
	// It is immutable once built; re-resolving the same environment
	// from the same configuration and run inputs yields an identical
	// plan.
	Plan struct {
		// Env is the concrete environment name.
		Env string
		// Factors is the environment's factor set.
		Factors factor.Set

		// Deps is the resolved dependency list in declaration order.
		Deps []string
		// Install is the resolved install command, nil when the
		// environment declares no install_command or no deps.
		Install *Command
		// Commands is the resolved command sequence.
		Commands []Command

		// Setenv is the explicit environment variable map.
		Setenv map[string]string
		// PassEnv lists host variables allowed through to the commands.
		PassEnv []string

		// EnvDir is the environment's isolated working tree root.
		EnvDir string
		// Changedir is the working directory commands run in.
		Changedir string
		// ArtifactPath is the declared artifact file for aggregation.
		ArtifactPath string

		// Retries is the per-command retry budget (0 = no retries).
		Retries int
		// RetryDelay is the fixed delay between attempts.
		RetryDelay time.Duration
		// CommandTimeout limits each command's wall clock (0 = none).
		CommandTimeout time.Duration

		// ShardList is a file of test identifiers to pre-partition, and
		// ShardCount the number of partitions ("" / 0 disables).
		ShardList  string
		ShardCount int

		// Workers is the run's environment-level parallelism, exposed
		// to commands via the {workers} token.
		Workers int
	}
)
