// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"
)

// entryKind distinguishes sidebar rows.
type entryKind int

const (
	entrySession entryKind = iota
	entryDocument
)

// sidebarEntry is one selectable sidebar row.
type sidebarEntry struct {
	kind  entryKind
	id    string
	label string
}

// sidebarEntries lists the sessions, newest first, followed by the library.
func (m Model) sidebarEntries() []sidebarEntry {
	sessions := m.ctrl.Sessions().Sessions()
	docs := m.ctrl.Library().List()
	entries := make([]sidebarEntry, 0, len(sessions)+len(docs))
	for _, s := range sessions {
		entries = append(entries, sidebarEntry{kind: entrySession, id: s.ID, label: s.Title})
	}
	for _, d := range docs {
		entries = append(entries, sidebarEntry{kind: entryDocument, id: d.ID, label: d.Name})
	}
	return entries
}

func (m *Model) clampSidebarCursor() {
	n := len(m.sidebarEntries())
	if m.sidebarCursor >= n {
		m.sidebarCursor = n - 1
	}
	if m.sidebarCursor < 0 {
		m.sidebarCursor = 0
	}
}

func (m Model) selectedEntry() (sidebarEntry, bool) {
	entries := m.sidebarEntries()
	if m.sidebarCursor < 0 || m.sidebarCursor >= len(entries) {
		return sidebarEntry{}, false
	}
	return entries[m.sidebarCursor], true
}

// activateEntry opens a session or attaches a document.
func (m Model) activateEntry() (tea.Model, tea.Cmd) {
	entry, ok := m.selectedEntry()
	if !ok {
		return m, nil
	}
	switch entry.kind {
	case entrySession:
		if err := m.ctrl.SelectSession(entry.id); err != nil {
			m.ctrl.Toasts().Error(err.Error())
			return m, nil
		}
		m.refreshViewport()
	case entryDocument:
		if _, err := m.ctrl.SelectDocument(entry.id); err != nil {
			m.ctrl.Toasts().Error(err.Error())
			return m, nil
		}
		m = m.resized()
	}
	m.focusInput()
	return m, nil
}

// deleteEntry removes the selected session or document.
func (m Model) deleteEntry() (tea.Model, tea.Cmd) {
	entry, ok := m.selectedEntry()
	if !ok {
		return m, nil
	}
	var err error
	switch entry.kind {
	case entrySession:
		err = m.ctrl.DeleteSession(entry.id)
		m.refreshViewport()
	case entryDocument:
		err = m.ctrl.DeleteDocument(entry.id)
	}
	if err != nil {
		m.ctrl.Toasts().Error(err.Error())
	}
	m.clampSidebarCursor()
	return m, nil
}

// summarizeEntry fills the input with a summary request for the selected
// document.
func (m Model) summarizeEntry() (tea.Model, tea.Cmd) {
	entry, ok := m.selectedEntry()
	if !ok || entry.kind != entryDocument {
		return m, nil
	}
	if err := m.ctrl.Summarize(entry.id); err != nil {
		m.ctrl.Toasts().Error(err.Error())
		return m, nil
	}
	m.syncInput()
	m.focusInput()
	return m, nil
}
