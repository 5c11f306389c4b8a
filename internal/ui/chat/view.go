// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/search"
	"github.com/morganforge/tutor/internal/toast"
	"github.com/morganforge/tutor/internal/ui/styles"
	"github.com/morganforge/tutor/internal/util"
)

const (
	headerHeight   = 1
	footerHeight   = 1
	inputBoxHeight = 3
)

// =============================================================================
// LAYOUT
// =============================================================================

// conversationHeight is the number of rows left for the viewport.
func (m Model) conversationHeight() int {
	h := m.height - headerHeight - footerHeight - inputBoxHeight
	if m.ctrl.PendingAttachment() != nil {
		h--
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) render() string {
	main := m.renderMain()
	body := main
	if m.showSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), main)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderMain() string {
	width := m.mainWidth()

	var upper string
	switch m.overlay {
	case overlaySearch:
		upper = m.renderSearch(width, m.conversationHeight())
	case overlayHelp:
		upper = lipgloss.Place(width, m.conversationHeight(), lipgloss.Center, lipgloss.Center,
			m.theme.SearchBox.Render(m.help.FullHelpView(m.keyMap.FullHelp())))
	default:
		upper = m.renderConversation(width)
	}

	parts := []string{upper}
	if a := m.ctrl.PendingAttachment(); a != nil {
		chip := m.theme.PendingChip.Render(fmt.Sprintf("[%s] %s", strings.ToUpper(a.Type), a.Name))
		parts = append(parts, chip+" "+m.theme.Hint.Render("C-x to remove"))
	}
	if m.overlay == overlayUpload {
		parts = append(parts, m.theme.Prompt.Width(width-4).Render(m.pathInput.View()))
	} else {
		parts = append(parts, m.theme.InputContainer.Width(width-4).Render(m.input.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderConversation draws the viewport with toasts stacked at its bottom
// right.
func (m Model) renderConversation(width int) string {
	toasts := m.renderToasts(width)
	if toasts == "" {
		return m.viewport.View()
	}
	vp := m.viewport
	toastHeight := lipgloss.Height(toasts)
	vp.Height = m.conversationHeight() - toastHeight
	if vp.Height < 1 {
		vp.Height = 1
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		vp.View(),
		lipgloss.PlaceHorizontal(width, lipgloss.Right, toasts),
	)
}

// =============================================================================
// HEADER AND FOOTER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("AI Personal Tutor")

	ai := m.theme.ModeDocs.Render("AI: off")
	if m.ctrl.UseAI() {
		ai = m.theme.ModeAI.Render("AI: on")
	}

	mode := m.ctrl.ResponseMode()
	modeStyle := m.theme.ModeAI
	if mode == model.ModeDocumentOnly {
		modeStyle = m.theme.ModeDocs
	}
	status := ai + "  " + modeStyle.Render("Mode: "+mode.Label())
	if m.ctrl.IsUploading() {
		status = m.spinner.View() + " Uploading...  " + status
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + status)
}

func (m Model) renderFooter() string {
	return m.help.ShortHelpView(m.keyMap.ShortHelp())
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	inner := styles.SidebarWidth - 4
	entries := m.sidebarEntries()
	currentID := m.ctrl.Sessions().CurrentID()

	var b strings.Builder
	b.WriteString(m.theme.SidebarHeading.Render("Chats"))
	b.WriteString("\n")

	sessionCount := m.ctrl.Sessions().Len()
	if sessionCount == 0 {
		b.WriteString(m.theme.SidebarMuted.Render("No chats yet"))
		b.WriteString("\n")
	}
	for i, e := range entries {
		if i == sessionCount {
			b.WriteString(m.theme.SidebarHeading.Render("Library"))
			b.WriteString("\n")
		}
		label := util.TruncateWidth(e.label, inner-2)
		style := m.theme.SidebarItem
		switch {
		case m.focus == focusSidebar && i == m.sidebarCursor:
			style = m.theme.SidebarSelected
		case e.kind == entrySession && e.id == currentID:
			style = m.theme.SidebarActive
		}
		prefix := "  "
		if e.kind == entrySession && e.id == currentID {
			prefix = "> "
		}
		b.WriteString(style.Render(prefix + label))
		b.WriteString("\n")
	}
	if m.ctrl.Library().Len() == 0 {
		b.WriteString(m.theme.SidebarHeading.Render("Library"))
		b.WriteString("\n")
		b.WriteString(m.theme.SidebarMuted.Render("No documents"))
		b.WriteString("\n")
	}

	height := m.height - headerHeight - footerHeight
	if height < 1 {
		height = 1
	}
	return m.theme.Sidebar.Height(height).MaxHeight(height).Render(b.String())
}

// =============================================================================
// MESSAGES
// =============================================================================

// refreshViewport re-renders the active conversation and scrolls to the end.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages(m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m *Model) renderMessages(width int) string {
	var blocks []string
	for _, msg := range m.ctrl.Messages() {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	if m.ctrl.IsLoading() {
		blocks = append(blocks, m.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName())+
			"\n"+m.spinner.View()+" Thinking...")
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg model.Message, width int) string {
	if msg.IsUser() {
		var b strings.Builder
		b.WriteString(m.theme.UserLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		body := msg.Content
		if msg.Attachment != nil {
			body += "\n" + m.theme.Attachment.Render("[attached] "+msg.Attachment.Name)
		}
		b.WriteString(m.theme.UserBubble.Width(bubbleWidth(width)).Render(body))
		return b.String()
	}
	return m.theme.AssistantLabel.Render(msg.Role.DisplayName()) + "\n" + m.renderMarkdown(msg.Content, width)
}

// renderMarkdown renders assistant content with glamour, falling back to the
// raw text when the renderer is unavailable.
func (m *Model) renderMarkdown(content string, width int) string {
	wrap := width - 4
	if m.wordWrap > 0 && wrap > m.wordWrap {
		wrap = m.wordWrap
	}
	if wrap < 20 {
		wrap = 20
	}
	if m.renderer == nil || m.rendererWidth != wrap {
		style := "light"
		if m.theme.IsDark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return content
		}
		m.renderer = r
		m.rendererWidth = wrap
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func bubbleWidth(width int) int {
	w := width * 3 / 4
	if w < 20 {
		w = 20
	}
	return w
}

// =============================================================================
// TOASTS
// =============================================================================

func (m Model) renderToasts(width int) string {
	now := m.now()
	var rendered []string
	for _, t := range m.ctrl.Toasts().Active() {
		if t.IsExpired(now) {
			continue
		}
		style := m.theme.ToastSuccess
		indicator := styles.StatusIndicators.Success
		if t.Kind == toast.KindError {
			style = m.theme.ToastError
			indicator = styles.StatusIndicators.Error
		}
		maxWidth := width - 4
		if maxWidth < 20 {
			maxWidth = 20
		}
		rendered = append(rendered, style.Render(util.TruncateWidth(indicator+" "+t.Message, maxWidth)))
	}
	if len(rendered) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}

// =============================================================================
// SEARCH
// =============================================================================

func (m Model) renderSearch(width, height int) string {
	results := m.searchResults()
	query := m.searchInput.Value()

	var b strings.Builder
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	if len(results) == 0 {
		b.WriteString(m.theme.Empty.Render(search.NoResultsText))
	}

	// Each result takes two lines; keep the cursor visible.
	visible := (height - 6) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.searchCursor >= visible {
		start = m.searchCursor - visible + 1
	}
	for i := start; i < len(results) && i < start+visible; i++ {
		r := results[i]
		title := m.renderHighlight(r.Title, query, m.theme.SearchTitle)
		preview := m.renderHighlight(r.PreviewHighlight, query, m.theme.SearchPreview)
		prefix := "  "
		if i == m.searchCursor {
			prefix = m.theme.SidebarActive.Render("> ")
		}
		b.WriteString(prefix + title + "\n")
		b.WriteString("    " + preview + "\n")
	}

	return m.theme.SearchBox.Width(width - 4).Height(height - 2).MaxHeight(height).Render(b.String())
}

// renderHighlight styles the matched part of h. An empty query renders the
// text plainly.
func (m Model) renderHighlight(h search.Highlight, query string, base lipgloss.Style) string {
	if search.IsEmptyQuery(query) || !h.Matched() {
		return base.Render(h.String())
	}
	return base.Render(h.Before) + m.theme.Highlight.Render(h.Match) + base.Render(h.After)
}
