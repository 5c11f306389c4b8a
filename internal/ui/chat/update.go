// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/tutor/internal/conversation"
	"github.com/morganforge/tutor/internal/search"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ChatResponseMsg:
		m.ctrl.CompleteSubmit(msg.Response, msg.Err)
		m.refreshViewport()
		return m, nil

	case UploadResultMsg:
		// Failures are surfaced as a toast by the controller.
		_ = m.ctrl.CompleteUpload(msg.Name, msg.Err)
		m.clampSidebarCursor()
		return m.resized(), nil

	case ToastTickMsg:
		m.ctrl.Toasts().Prune(time.Time(msg))
		return m, toastTickCmd()

	case spinner.TickMsg:
		if !m.ctrl.IsLoading() && !m.ctrl.IsUploading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.ctrl.IsLoading() {
			m.refreshViewport()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.ready = true

	m.viewport.Width = m.mainWidth()
	m.viewport.Height = m.conversationHeight()
	m.input.Width = m.mainWidth() - 6
	m.searchInput.Width = m.mainWidth() - 14
	m.pathInput.Width = m.mainWidth() - 16
	m.help.Width = m.width
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	switch m.overlay {
	case overlaySearch:
		return m.handleSearchKey(msg)
	case overlayUpload:
		return m.handleUploadKey(msg)
	case overlayHelp:
		if key.Matches(msg, m.keyMap.Cancel, m.keyMap.Help) {
			m.overlay = overlayNone
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Help):
		m.overlay = overlayHelp
		return m, nil
	case key.Matches(msg, m.keyMap.NewChat):
		return m.newChat()
	case key.Matches(msg, m.keyMap.Search):
		return m.openSearch("")
	case key.Matches(msg, m.keyMap.Upload):
		return m.openUpload()
	case key.Matches(msg, m.keyMap.ToggleAI):
		m.ctrl.ToggleAI()
		return m, nil
	case key.Matches(msg, m.keyMap.ToggleSidebar):
		m.sidebarOpen = !m.sidebarOpen
		if !m.sidebarOpen {
			m.focusInput()
		}
		return m.resized(), nil
	case key.Matches(msg, m.keyMap.Detach):
		m.ctrl.RemovePendingAttachment()
		return m.resized(), nil
	case key.Matches(msg, m.keyMap.DismissToasts):
		m.ctrl.Toasts().Clear()
		return m, nil
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keyMap.FocusSidebar):
		if m.focus == focusSidebar {
			m.focusInput()
		} else if m.showSidebar() {
			m.focus = focusSidebar
			m.input.Blur()
			m.clampSidebarCursor()
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Submit) {
		value := m.input.Value()
		if strings.HasPrefix(strings.TrimSpace(value), "/") {
			m.input.SetValue("")
			m.ctrl.SetInput("")
			return m.handleCommand(value)
		}
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetInput(m.input.Value())
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.sidebarEntries()
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		m.focusInput()
	case key.Matches(msg, m.keyMap.Up):
		if m.sidebarCursor > 0 {
			m.sidebarCursor--
		}
	case key.Matches(msg, m.keyMap.Down):
		if m.sidebarCursor < len(entries)-1 {
			m.sidebarCursor++
		}
	case key.Matches(msg, m.keyMap.Submit):
		return m.activateEntry()
	case key.Matches(msg, m.keyMap.Delete):
		return m.deleteEntry()
	case key.Matches(msg, m.keyMap.Summarize):
		return m.summarizeEntry()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := m.searchResults()
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		return m.closeSearch(), nil
	case msg.Type == tea.KeyUp:
		if m.searchCursor > 0 {
			m.searchCursor--
		}
		return m, nil
	case msg.Type == tea.KeyDown:
		if m.searchCursor < len(results)-1 {
			m.searchCursor++
		}
		return m, nil
	case key.Matches(msg, m.keyMap.Submit):
		if len(results) == 0 {
			return m, nil
		}
		id := results[m.searchCursor].Session.ID
		m = m.closeSearch()
		if err := m.ctrl.SelectSession(id); err != nil {
			m.ctrl.Toasts().Error(err.Error())
		}
		m.refreshViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.searchCursor = 0
	return m, cmd
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		m.overlay = overlayNone
		m.pathInput.Blur()
		m.pathInput.SetValue("")
		m.focusInput()
		return m, nil
	case key.Matches(msg, m.keyMap.Submit):
		path := strings.TrimSpace(m.pathInput.Value())
		m.overlay = overlayNone
		m.pathInput.Blur()
		m.pathInput.SetValue("")
		m.focusInput()
		if path == "" {
			return m, nil
		}
		return m.startUpload(path)
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.ctrl.SetInput(m.input.Value())
	req, err := m.ctrl.BeginSubmit()
	if err != nil {
		// Nothing to send or a reply still pending: ignore the key.
		return m, nil
	}
	m.syncInput()
	m.clampSidebarCursor()
	m.refreshViewport()
	m = m.resized()
	return m, tea.Batch(m.spinner.Tick, chatCmd(m.ctx, m.ctrl.Gateway(), req))
}

func (m Model) startUpload(path string) (tea.Model, tea.Cmd) {
	path = expandHome(path)
	name, err := m.ctrl.BeginUpload(path)
	if err != nil {
		if errors.Is(err, conversation.ErrUploadInProgress) {
			m.ctrl.Toasts().Error("An upload is already in progress.")
		}
		return m, nil
	}
	return m, tea.Batch(m.spinner.Tick, uploadCmd(m.ctx, m.ctrl.Gateway(), name, path))
}

func (m Model) newChat() (tea.Model, tea.Cmd) {
	m.ctrl.NewChat()
	m.sidebarCursor = 0
	m.focusInput()
	m.refreshViewport()
	return m, nil
}

func (m Model) openSearch(query string) (tea.Model, tea.Cmd) {
	m.overlay = overlaySearch
	m.searchCursor = 0
	m.searchInput.SetValue(query)
	m.searchInput.CursorEnd()
	m.input.Blur()
	return m, m.searchInput.Focus()
}

func (m Model) closeSearch() Model {
	m.overlay = overlayNone
	m.searchInput.Blur()
	m.searchInput.SetValue("")
	m.searchCursor = 0
	m.focusInput()
	return m
}

func (m Model) openUpload() (tea.Model, tea.Cmd) {
	if m.ctrl.IsUploading() {
		m.ctrl.Toasts().Error("An upload is already in progress.")
		return m, nil
	}
	m.overlay = overlayUpload
	m.input.Blur()
	return m, m.pathInput.Focus()
}

func (m *Model) focusInput() {
	m.focus = focusInput
	m.input.Focus()
}

func (m Model) searchResults() []search.Result {
	return search.Search(m.ctrl.Sessions().Sessions(), m.searchInput.Value())
}

// resized recomputes widget sizes after the pending attachment changed.
func (m Model) resized() Model {
	if !m.ready {
		return m
	}
	next, _ := m.handleResize(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	return next.(Model)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
