// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/tutor/internal/search"
	"github.com/morganforge/tutor/internal/ui/styles"
)

// init configures lipgloss for the detected terminal.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(12)

	// UserStyle labels the user's turns in transcripts
	UserStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// TutorStyle labels the assistant's turns in transcripts
	TutorStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// PromptStyle is the chat REPL prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// MatchStyle marks search matches
	MatchStyle = lipgloss.NewStyle().
			Foreground(styles.Amber).
			Bold(true).
			Underline(true)
)

// renderHighlight renders h with the match emphasized.
func renderHighlight(h search.Highlight) string {
	if !h.Matched() {
		return h.String()
	}
	return h.Before + MatchStyle.Render(h.Match) + h.After
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer renders assistant answers in terminal output.
type markdownRenderer struct {
	r *glamour.TermRenderer
}

func newMarkdownRenderer(wordWrap int) *markdownRenderer {
	if wordWrap <= 0 {
		wordWrap = DefaultTerminalWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return &markdownRenderer{}
	}
	return &markdownRenderer{r: r}
}

// Render returns content as styled terminal text, or unchanged when the
// renderer is unavailable.
func (m *markdownRenderer) Render(content string) string {
	if m == nil || m.r == nil {
		return content
	}
	out, err := m.r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// SuccessLine renders a confirmation line.
func SuccessLine(message string) string {
	return styles.RenderSuccess(message)
}
