// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/tutor/internal/export"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler handles one slash command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names to their handler functions.
var commandHandlers = map[string]CommandHandler{
	"new":       handleNewCommand,
	"n":         handleNewCommand,
	"upload":    handleUploadCommand,
	"u":         handleUploadCommand,
	"attach":    handleAttachCommand,
	"detach":    handleDetachCommand,
	"summarize": handleSummarizeCommand,
	"sum":       handleSummarizeCommand,
	"search":    handleSearchCommand,
	"ai":        handleAICommand,
	"export":    handleExportCommand,
	"help":      handleHelpCommand,
	"h":         handleHelpCommand,
	"?":         handleHelpCommand,
	"quit":      handleQuitCommand,
	"q":         handleQuitCommand,
	"exit":      handleQuitCommand,
}

// handleCommand dispatches a line starting with "/".
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(content), "/"))
	if len(fields) == 0 {
		return m, nil
	}
	name := strings.ToLower(fields[0])
	handler, ok := commandHandlers[name]
	if !ok {
		m.ctrl.Toasts().Error(fmt.Sprintf("Unknown command: /%s", name))
		return m, nil
	}
	return handler(&m, fields[1:])
}

func handleNewCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return m.newChat()
}

func handleUploadCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m.openUpload()
	}
	return m.startUpload(strings.Join(args, " "))
}

func handleAttachCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	name := strings.Join(args, " ")
	doc, err := m.ctrl.Library().FindByName(name)
	if err != nil {
		m.ctrl.Toasts().Error(fmt.Sprintf("No uploaded document named %q.", name))
		return *m, nil
	}
	if _, err := m.ctrl.SelectDocument(doc.ID); err != nil {
		m.ctrl.Toasts().Error(err.Error())
	}
	return m.resized(), nil
}

func handleDetachCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.ctrl.RemovePendingAttachment()
	return m.resized(), nil
}

// handleSummarizeCommand uses the named document, or the pending attachment
// when no name is given.
func handleSummarizeCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	name := strings.Join(args, " ")
	if name == "" {
		if a := m.ctrl.PendingAttachment(); a != nil {
			name = a.Name
		}
	}
	doc, err := m.ctrl.Library().FindByName(name)
	if err != nil {
		m.ctrl.Toasts().Error(fmt.Sprintf("No uploaded document named %q.", name))
		return *m, nil
	}
	if err := m.ctrl.Summarize(doc.ID); err != nil {
		m.ctrl.Toasts().Error(err.Error())
		return *m, nil
	}
	m.syncInput()
	return *m, nil
}

func handleSearchCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.openSearch(strings.Join(args, " "))
}

func handleAICommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.ctrl.ToggleAI()
		return *m, nil
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "yes":
		m.ctrl.SetUseAI(true)
	case "off", "false", "no":
		m.ctrl.SetUseAI(false)
	default:
		m.ctrl.Toasts().Error("Usage: /ai [on|off]")
	}
	return *m, nil
}

// handleExportCommand writes the active chat to the export directory.
func handleExportCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	store := m.ctrl.Sessions()
	if !store.HasActive() {
		m.ctrl.Toasts().Error("Nothing to export yet. Ask a question first.")
		return *m, nil
	}
	sess, err := store.Get(store.CurrentID())
	if err != nil {
		m.ctrl.Toasts().Error(err.Error())
		return *m, nil
	}

	format := ""
	if len(args) > 0 {
		format = args[0]
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		m.ctrl.Toasts().Error(err.Error())
		return *m, nil
	}
	opts := export.DefaultOptions()
	if m.exportDir != "" {
		opts.OutputDir = m.exportDir
	}
	exporter, err := export.New(f, opts)
	if err != nil {
		m.ctrl.Toasts().Error(err.Error())
		return *m, nil
	}
	path, err := export.ExportToFile(sess, exporter, opts)
	if err != nil {
		m.ctrl.Toasts().Error("Export failed: " + err.Error())
		return *m, nil
	}
	m.ctrl.Toasts().Success("Exported to " + path)
	return *m, nil
}

func handleHelpCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.overlay = overlayHelp
	return *m, nil
}

func handleQuitCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return *m, tea.Quit
}
