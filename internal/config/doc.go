// SPDX-License-Identifier: MPL-2.0

// Package config loads and persists envmatrix's own settings.
//
// Configuration is loaded from ~/.config/envmatrix/config.toml (or the
// XDG equivalent on Linux, ~/Library/Application Support/envmatrix on
// macOS, %APPDATA%\envmatrix on Windows), with built-in defaults and
// ENVMATRIX_* environment variable overrides layered by viper. These
// are the tool's own preferences; what a run executes is declared in
// the project's envmatrix.ini, handled by pkg/envfile.
package config
