// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arpitjain799/envmatrix/internal/config"
	"github.com/arpitjain799/envmatrix/internal/issue"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage envmatrix settings",
	Long: `Manage the per-user envmatrix settings file.

Settings are stored in:
  - Linux: ~/.config/envmatrix/config.toml
  - macOS: ~/Library/Application Support/envmatrix/config.toml
  - Windows: %APPDATA%\envmatrix\config.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initSettings(cmd)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the settings file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettingsPath(cmd)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a settings value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setSettingsValue(cmd, args[0], args[1])
		},
	})
}

func showSettings(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(cmd.ErrOrStderr(), rendered)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, TitleStyle.Render("Current settings"))
	fmt.Fprintln(out)

	if path := config.LoadedPath(); path != "" {
		fmt.Fprintf(out, "%s: %s\n", EnvStyle.Render("Settings file"), path)
	} else {
		fmt.Fprintf(out, "%s: %s\n", EnvStyle.Render("Settings file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "%s: %s\n", EnvStyle.Render("parallel"), SuccessStyle.Render(strconv.Itoa(cfg.Parallel)))
	if cfg.WorkRoot != "" {
		fmt.Fprintf(out, "%s: %s\n", EnvStyle.Render("workroot"), SuccessStyle.Render(cfg.WorkRoot))
	} else {
		fmt.Fprintf(out, "%s: %s\n", EnvStyle.Render("workroot"), SubtitleStyle.Render("(per project: .envmatrix beside the matrix file)"))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", EnvStyle.Render("ui"))
	fmt.Fprintf(out, "  color_scheme: %s\n", SuccessStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Fprintf(out, "  verbose: %s\n", SuccessStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))

	return nil
}

func initSettings(cmd *cobra.Command) error {
	if err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}

	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Created default settings at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showSettingsPath(cmd *cobra.Command) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Settings directory: %s\n", dir)
	fmt.Fprintf(cmd.OutOrStdout(), "Settings file: %s\n", path)
	return nil
}

func setSettingsValue(cmd *cobra.Command, key, value string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch key {
	case "parallel":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("parallel must be a positive integer, got %q", value)
		}
		cfg.Parallel = n
	case "workroot":
		cfg.WorkRoot = value
	case "ui.color_scheme":
		scheme := config.ColorScheme(value)
		if err := scheme.Validate(); err != nil {
			return err
		}
		cfg.UI.ColorScheme = scheme
	case "ui.verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ui.verbose must be true or false, got %q", value)
		}
		cfg.UI.Verbose = b
	default:
		return fmt.Errorf("unknown settings key %q (valid: parallel, workroot, ui.color_scheme, ui.verbose)", key)
	}

	if err := config.Save(cfg); err != nil {
		return err
	}
	config.Reset()

	fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}
