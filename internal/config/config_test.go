// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride(t.TempDir())

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want defaults (no file)", path)
	}
	if cfg.Parallel < 1 {
		t.Errorf("default Parallel = %d, want at least 1", cfg.Parallel)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("default ColorScheme = %q, want auto", cfg.UI.ColorScheme)
	}
}

func TestLoad_FromFile(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	SetConfigDirOverride(dir)

	content := "parallel = 3\nworkroot = \"/tmp/matrix\"\n\n[ui]\ncolor_scheme = \"dark\"\nverbose = true\n"
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Parallel != 3 {
		t.Errorf("Parallel = %d, want 3", cfg.Parallel)
	}
	if cfg.WorkRoot != "/tmp/matrix" {
		t.Errorf("WorkRoot = %q", cfg.WorkRoot)
	}
	if cfg.UI.ColorScheme != ColorSchemeDark || !cfg.UI.Verbose {
		t.Errorf("UI = %+v", cfg.UI)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Cleanup(Reset)

	_, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.toml"),
	})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"zero parallel", "parallel = 0\n"},
		{"bad scheme", "[ui]\ncolor_scheme = \"sepia\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "-")+".toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) && !strings.Contains(err.Error(), "invalid") {
				t.Errorf("error = %v, want validation failure", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	SetConfigDirOverride(dir)

	want := &Config{
		Parallel: 8,
		WorkRoot: "/builds/.envmatrix",
		UI:       UIConfig{ColorScheme: ColorSchemeLight, Verbose: true},
	}
	if err := Save(want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() after Save: %v", err)
	}
	if got.Parallel != want.Parallel || got.WorkRoot != want.WorkRoot || got.UI != want.UI {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestCreateDefaultConfig_DoesNotOverwrite(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	SetConfigDirOverride(dir)

	custom := []byte("parallel = 5\n")
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, custom, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(custom) {
		t.Error("CreateDefaultConfig() overwrote an existing file")
	}
}

func TestGlobalLoad_Caches(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride(t.TempDir())

	first, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	second, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if first != second {
		t.Error("Load() did not return the cached config")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}

	cfg.Parallel = -1
	err := cfg.Validate()
	var icErr *InvalidConfigError
	if !errors.As(err, &icErr) || icErr.Field != "parallel" {
		t.Errorf("Validate() = %v, want InvalidConfigError on parallel", err)
	}
}
