// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/arpitjain799/envmatrix/internal/engine"
)

// Color palette - shared hex colors for consistent theming across all CLI output.
// These colors are designed for dark terminal backgrounds with good contrast.
const (
	// ColorPrimary is purple - used for titles, headers, and primary emphasis.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray - used for subtitles, secondary text, and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green - used for passed environments and positive outcomes.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red - used for failed or errored environments.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - used for warnings and cancelled environments.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue - used for environment names and interactive elements.
	ColorHighlight = lipgloss.Color("#3B82F6")

	// ColorVerbose is light gray - used for verbose/debug output and supplementary details.
	ColorVerbose = lipgloss.Color("#9CA3AF")
)

// Base styles - reusable lipgloss styles built from the color palette.
// These can be used directly or extended with additional styling (margins, padding, etc.).
var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages and caution indicators.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// EnvStyle is for environment names and selectors.
	EnvStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// VerboseStyle is for verbose output and supplementary information.
	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)

	// statusStyles maps terminal environment statuses to their summary
	// rendering.
	statusStyles = map[engine.Status]lipgloss.Style{
		engine.StatusPassed:    SuccessStyle,
		engine.StatusFailed:    ErrorStyle,
		engine.StatusErrored:   ErrorStyle,
		engine.StatusCancelled: WarningStyle,
	}
)

// statusStyle returns the style for a status, falling back to the
// verbose style for non-terminal states.
func statusStyle(s engine.Status) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return VerboseStyle
}
