// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for envmatrix.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/arpitjain799/envmatrix/internal/config"
	"github.com/arpitjain799/envmatrix/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level output
	verbose bool
	// matrixFile allows specifying an explicit envmatrix.ini path
	matrixFile string
	// cfgFile allows specifying a custom tool settings file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "envmatrix",
		Short: "A declarative multi-environment test orchestrator",
		Long: TitleStyle.Render("envmatrix") + SubtitleStyle.Render(" - A declarative multi-environment test orchestrator") + `

envmatrix expands a declarative environment matrix (factor-based names
like 'func-s1-py311'), provisions an isolated working directory per
environment, runs each environment's commands with retry and timeout
handling, and aggregates per-shard coverage artifacts into group
reports.

Environments are declared in an 'envmatrix.ini' file: an envlist with
brace groups, shared settings under [env], per-environment overrides
under [env:NAME], and aggregation groups under [group:NAME].

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create an envmatrix.ini in your project directory
  2. Declare an envlist and shared commands under [env]
  3. Run everything with: envmatrix run

` + SubtitleStyle.Render("Examples:") + `
  envmatrix list                     Show every concrete environment
  envmatrix run                      Run the whole envlist
  envmatrix run 'func-*' -- -k api   Glob selection plus posargs
  envmatrix exec py311 -- pytest -x  One ad-hoc command in an env
  envmatrix config show              Show current tool settings`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&matrixFile, "file", "f", "", "path to envmatrix.ini (default searches upward from the current directory)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "tool settings file (default is $HOME/.config/envmatrix/config.toml)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads the tool settings file and wires the logger.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	cfg, err := config.Load()
	if err != nil {
		// Always surface settings loading errors; defaults still apply.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
