// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/conversation"
	"github.com/morganforge/tutor/internal/gateway"
	"github.com/morganforge/tutor/internal/library"
	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/search"
	"github.com/morganforge/tutor/internal/session"
	"github.com/morganforge/tutor/internal/storage"
	"github.com/morganforge/tutor/internal/toast"
	"github.com/morganforge/tutor/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fakeGateway struct {
	requests  []gateway.ChatRequest
	uploads   []string
	resp      *gateway.ChatResponse
	chatErr   error
	uploadErr error
}

func (f *fakeGateway) Chat(_ context.Context, req gateway.ChatRequest) (*gateway.ChatResponse, error) {
	f.requests = append(f.requests, req)
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return f.resp, nil
}

func (f *fakeGateway) UploadFile(_ context.Context, path string) error {
	f.uploads = append(f.uploads, path)
	return f.uploadErr
}

func tickingClock() func() time.Time {
	t := time.Unix(1718000000, 0)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestModel(t *testing.T) (Model, *fakeGateway) {
	t.Helper()
	state := storage.NewState(storage.NewMemoryKV())
	store := session.NewStore(state, zap.NewNop(), session.WithClock(tickingClock()))
	lib := library.New(state, zap.NewNop())
	lib.SetClock(tickingClock())
	gw := &fakeGateway{resp: &gateway.ChatResponse{Answer: "A derivative measures the rate of change.", Mode: model.ModeAI}}
	ctrl := conversation.New(store, lib, toast.NewManager(zap.NewNop()), gw, zap.NewNop())

	m := New(ctrl, styles.NewTheme())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, gw
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: k})
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// deliver runs cmd and feeds back the result messages of network calls.
func deliver(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case ChatResponseMsg, UploadResultMsg:
			m, _ = update(t, m, msg)
		}
	}
	return m
}

func sendMessage(t *testing.T, m Model, text string) Model {
	t.Helper()
	m = typeText(t, m, text)
	m, cmd := press(t, m, tea.KeyEnter)
	return deliver(t, m, cmd)
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_RoundTrip(t *testing.T) {
	m, gw := newTestModel(t)
	m = typeText(t, m, "What is a derivative?")
	assert.Equal(t, "What is a derivative?", m.Controller().Input())

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.True(t, m.Controller().IsLoading())
	assert.Empty(t, m.InputValue())
	assert.Len(t, m.Controller().Messages(), 2)
	assert.Contains(t, m.View(), "Thinking...")

	m = deliver(t, m, cmd)
	assert.False(t, m.Controller().IsLoading())

	msgs := m.Controller().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "A derivative measures the rate of change.", msgs[2].Content)

	require.Len(t, gw.requests, 1)
	assert.Equal(t, m.Controller().Sessions().CurrentID(), gw.requests[0].SessionID)
	assert.Contains(t, m.View(), "What is a derivative?")
}

func TestSubmit_EmptyInputIgnored(t *testing.T) {
	m, gw := newTestModel(t)

	m, cmd := press(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Equal(t, model.DefaultMessages(), m.Controller().Messages())
	assert.Empty(t, gw.requests)
}

func TestSubmit_FailureShowsErrorReply(t *testing.T) {
	m, gw := newTestModel(t)
	gw.chatErr = errors.New("connection refused")

	m = sendMessage(t, m, "hello")

	msgs := m.Controller().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.ErrorReplyText, msgs[2].Content)
}

func TestSubmit_DocumentOnlyShowsQuotaToast(t *testing.T) {
	m, gw := newTestModel(t)
	gw.resp = &gateway.ChatResponse{Answer: "From your notes...", Mode: model.ModeDocumentOnly}

	m = sendMessage(t, m, "Explain limits")

	assert.Equal(t, model.ModeDocumentOnly, m.Controller().ResponseMode())
	require.Equal(t, 1, m.Controller().Toasts().Len())
	assert.Contains(t, m.View(), conversation.QuotaWarningText)
}

// =============================================================================
// UPLOAD
// =============================================================================

func TestUpload_OverlayAttachesDocument(t *testing.T) {
	m, gw := newTestModel(t)

	m, _ = press(t, m, tea.KeyCtrlO)
	m = typeText(t, m, "/tmp/notes.pdf")
	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.True(t, m.Controller().IsUploading())

	m = deliver(t, m, cmd)
	assert.Equal(t, []string{"/tmp/notes.pdf"}, gw.uploads)
	assert.False(t, m.Controller().IsUploading())

	pending := m.Controller().PendingAttachment()
	require.NotNil(t, pending)
	assert.Equal(t, "notes.pdf", pending.Name)
	assert.Equal(t, 1, m.Controller().Library().Len())
	assert.Contains(t, m.View(), conversation.UploadedText("notes.pdf"))
	assert.Empty(t, gw.requests)
}

func TestUpload_FailureOnlyToasts(t *testing.T) {
	m, gw := newTestModel(t)
	gw.uploadErr = errors.New("status 500")

	m, cmd := update(t, m, UploadResultMsg{Name: "notes.pdf", Err: gw.uploadErr})
	assert.Nil(t, cmd)
	assert.Nil(t, m.Controller().PendingAttachment())
	assert.Equal(t, 0, m.Controller().Library().Len())
	assert.Contains(t, m.View(), conversation.UploadFailedText("notes.pdf"))
}

func TestUpload_EscCancels(t *testing.T) {
	m, gw := newTestModel(t)

	m, _ = press(t, m, tea.KeyCtrlO)
	m = typeText(t, m, "/tmp/notes.pdf")
	m, cmd := press(t, m, tea.KeyEsc)
	assert.Nil(t, cmd)
	assert.Empty(t, gw.uploads)
	assert.Equal(t, overlayNone, m.overlay)
}

func TestDetachRemovesPendingAttachment(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, UploadResultMsg{Name: "notes.pdf"})
	require.NotNil(t, m.Controller().PendingAttachment())

	m, _ = press(t, m, tea.KeyCtrlX)
	assert.Nil(t, m.Controller().PendingAttachment())
}

// =============================================================================
// SEARCH
// =============================================================================

func TestSearch_SelectsMatchingSession(t *testing.T) {
	m, _ := newTestModel(t)
	m = sendMessage(t, m, "History of Rome")
	rome := m.Controller().Sessions().CurrentID()
	m, _ = press(t, m, tea.KeyCtrlN)
	m = sendMessage(t, m, "What is a derivative?")
	require.NotEqual(t, rome, m.Controller().Sessions().CurrentID())

	m, _ = press(t, m, tea.KeyCtrlF)
	assert.Equal(t, overlaySearch, m.overlay)
	m = typeText(t, m, "ROME")
	require.Len(t, m.searchResults(), 1)

	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, overlayNone, m.overlay)
	assert.Equal(t, rome, m.Controller().Sessions().CurrentID())
	assert.Equal(t, "History of Rome", m.Controller().Messages()[1].Content)
}

func TestSearch_NoResults(t *testing.T) {
	m, _ := newTestModel(t)
	m = sendMessage(t, m, "History of Rome")

	m, _ = press(t, m, tea.KeyCtrlF)
	m = typeText(t, m, "zzz")
	assert.Empty(t, m.searchResults())
	assert.Contains(t, m.View(), search.NoResultsText)

	m, _ = press(t, m, tea.KeyEsc)
	assert.Equal(t, overlayNone, m.overlay)
}

// =============================================================================
// SIDEBAR
// =============================================================================

func TestSidebar_SelectAndDelete(t *testing.T) {
	m, _ := newTestModel(t)
	m = sendMessage(t, m, "first question")
	first := m.Controller().Sessions().CurrentID()
	m, _ = press(t, m, tea.KeyCtrlN)
	m = sendMessage(t, m, "second question")

	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, focusSidebar, m.focus)

	// Newest session is first; move down to the older one.
	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, first, m.Controller().Sessions().CurrentID())
	assert.Equal(t, focusInput, m.focus)

	m, _ = press(t, m, tea.KeyTab)
	m, _ = press(t, m, tea.KeyDown)
	m = typeText(t, m, "d")
	assert.Equal(t, 1, m.Controller().Sessions().Len())
	assert.False(t, m.Controller().Sessions().HasActive())
}

func TestSidebar_LibraryAttachAndSummarize(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, UploadResultMsg{Name: "notes.pdf"})
	m, _ = press(t, m, tea.KeyCtrlX)

	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "s")
	assert.Equal(t, conversation.SummarizePrompt("notes.pdf"), m.InputValue())
	assert.Equal(t, focusInput, m.focus)

	m, _ = press(t, m, tea.KeyTab)
	m, _ = press(t, m, tea.KeyEnter)
	pending := m.Controller().PendingAttachment()
	require.NotNil(t, pending)
	assert.Equal(t, "notes.pdf", pending.Name)
}

func TestSidebar_HiddenWhenNarrow(t *testing.T) {
	m, _ := newTestModel(t)
	assert.True(t, m.showSidebar())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 50, Height: 30})
	assert.False(t, m.showSidebar())

	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, focusInput, m.focus)
}

func TestToggleSidebar(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, tea.KeyCtrlB)
	assert.False(t, m.SidebarOpen())
	assert.NotContains(t, m.View(), "No chats yet")
}

// =============================================================================
// COMMANDS AND TOASTS
// =============================================================================

func TestSlashCommands(t *testing.T) {
	m, gw := newTestModel(t)

	m = typeText(t, m, "/ai off")
	m, _ = press(t, m, tea.KeyEnter)
	assert.False(t, m.Controller().UseAI())
	assert.Empty(t, gw.requests)

	m, _ = press(t, m, tea.KeyCtrlT)
	assert.True(t, m.Controller().UseAI())

	m = typeText(t, m, "/new")
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, 1, m.Controller().Sessions().Len())

	m = typeText(t, m, "/bogus")
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, 1, m.Controller().Toasts().Len())

	m, _ = update(t, m, UploadResultMsg{Name: "notes.pdf"})
	m = typeText(t, m, "/summarize")
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, conversation.SummarizePrompt("notes.pdf"), m.InputValue())

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestToastTickPrunesExpired(t *testing.T) {
	m, _ := newTestModel(t)
	m.Controller().Toasts().Success("saved")
	require.Equal(t, 1, m.Controller().Toasts().Len())

	m, cmd := update(t, m, ToastTickMsg(time.Now().Add(toast.Duration+time.Second)))
	assert.NotNil(t, cmd)
	assert.Equal(t, 0, m.Controller().Toasts().Len())
}

func TestHelpOverlay(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, tea.KeyF1)
	assert.Equal(t, overlayHelp, m.overlay)
	assert.Contains(t, m.View(), "new chat")

	m, _ = press(t, m, tea.KeyEsc)
	assert.Equal(t, overlayNone, m.overlay)
}

func TestExportCommand(t *testing.T) {
	m, _ := newTestModel(t)
	m.exportDir = t.TempDir()

	m = typeText(t, m, "/export")
	m, _ = press(t, m, tea.KeyEnter)
	toasts := m.Controller().Toasts().Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, toast.KindError, toasts[0].Kind)
	m.Controller().Toasts().Clear()

	m = sendMessage(t, m, "What is a limit?")
	m = typeText(t, m, "/export json")
	m, _ = press(t, m, tea.KeyEnter)

	toasts = m.Controller().Toasts().Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, toast.KindSuccess, toasts[0].Kind)

	matches, err := filepath.Glob(filepath.Join(m.exportDir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
