// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/morganforge/tutor/internal/conversation"
	"github.com/morganforge/tutor/internal/ui/styles"
)

// =============================================================================
// STATE
// =============================================================================

// focusArea is the pane receiving keys when no overlay is open.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// overlay is a modal view drawn over the conversation.
type overlay int

const (
	overlayNone overlay = iota
	overlaySearch
	overlayUpload
	overlayHelp
)

// Model is the Bubble Tea model of the tutor screen.
type Model struct {
	ctrl   *conversation.Controller
	theme  *styles.Theme
	keyMap KeyMap
	ctx    context.Context
	now    func() time.Time

	// Widgets
	viewport    viewport.Model
	input       textinput.Model
	searchInput textinput.Model
	pathInput   textinput.Model
	spinner     spinner.Model
	help        help.Model

	// Markdown rendering for assistant turns
	renderer      *glamour.TermRenderer
	rendererWidth int
	wordWrap      int

	// exportDir receives /export files.
	exportDir string

	width  int
	height int
	ready  bool

	focus       focusArea
	overlay     overlay
	sidebarOpen bool

	sidebarCursor int
	searchCursor  int
}

// Option configures a Model.
type Option func(*Model)

// WithContext sets the context used for backend requests.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// WithSidebar sets whether the sidebar starts open.
func WithSidebar(open bool) Option {
	return func(m *Model) {
		m.sidebarOpen = open
	}
}

// WithWordWrap caps the width of rendered assistant turns.
func WithWordWrap(width int) Option {
	return func(m *Model) {
		m.wordWrap = width
	}
}

// WithExportDir sets where /export writes files.
func WithExportDir(dir string) Option {
	return func(m *Model) {
		m.exportDir = dir
	}
}

// WithClock overrides the clock used to hide expired toasts.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// New creates the tutor screen around a conversation controller.
func New(ctrl *conversation.Controller, theme *styles.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask your tutor anything..."
	ti.CharLimit = 100000
	ti.Focus()

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "Type to search chats..."
	search.CharLimit = 256

	path := textinput.New()
	path.Prompt = "PDF path: "
	path.Placeholder = "~/Documents/notes.pdf"
	path.CharLimit = 4096

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	m := Model{
		ctrl:        ctrl,
		theme:       theme,
		keyMap:      DefaultKeyMap(),
		ctx:         context.Background(),
		now:         time.Now,
		viewport:    viewport.New(80, 20),
		input:       ti,
		searchInput: search,
		pathInput:   path,
		spinner:     sp,
		help:        help.New(),
		wordWrap:    80,
		sidebarOpen: true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.input.SetValue(ctrl.Input())
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the toast pruning loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, toastTickCmd())
}

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.render()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Controller returns the conversation controller.
func (m Model) Controller() *conversation.Controller {
	return m.ctrl
}

// SidebarOpen reports whether the sidebar is shown.
func (m Model) SidebarOpen() bool {
	return m.sidebarOpen
}

// InputValue returns the text in the input line.
func (m Model) InputValue() string {
	return m.input.Value()
}

// =============================================================================
// HELPERS
// =============================================================================

// syncInput copies the controller's input into the input widget after the
// controller changed it.
func (m *Model) syncInput() {
	m.input.SetValue(m.ctrl.Input())
	m.input.CursorEnd()
}

// showSidebar reports whether the sidebar is drawn at the current size.
func (m Model) showSidebar() bool {
	return m.sidebarOpen && m.theme.GetLayoutMode().ShowsSidebar()
}

// mainWidth is the width of the conversation pane.
func (m Model) mainWidth() int {
	w := m.width
	if m.showSidebar() {
		w -= styles.SidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}
