// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"sync"
)

var (
	// configDirOverride allows tests to override the config directory.
	// This is necessary because os.UserHomeDir() doesn't reliably
	// respect the HOME environment variable on all platforms (e.g.,
	// macOS in CI).
	configDirOverride string

	// configFilePathOverride forces loading from a specific file,
	// set via the --config flag.
	configFilePathOverride string

	mu           sync.Mutex
	globalConfig *Config
	configPath   string
)

// Reset clears test overrides and the cached config. Call from test
// cleanup to restore defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	configDirOverride = ""
	configFilePathOverride = ""
	globalConfig = nil
	configPath = ""
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir()
// which doesn't reliably respect the HOME env var on all platforms
// (e.g., macOS in CI).
func SetConfigDirOverride(dir string) {
	mu.Lock()
	defer mu.Unlock()
	configDirOverride = dir
	globalConfig = nil
	configPath = ""
}

// SetConfigFilePathOverride forces subsequent Load calls to read the
// given file exclusively, discarding any cached config.
func SetConfigFilePathOverride(path string) {
	mu.Lock()
	defer mu.Unlock()
	configFilePathOverride = path
	globalConfig = nil
	configPath = ""
}

// Load returns the tool configuration, reading it on first use and
// caching it for the process lifetime.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: configFilePathOverride,
	})
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	configPath = path
	return cfg, nil
}

// LoadedPath returns the file the cached config was read from, empty
// when defaults are in effect.
func LoadedPath() string {
	mu.Lock()
	defer mu.Unlock()
	return configPath
}
