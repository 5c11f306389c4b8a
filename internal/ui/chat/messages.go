// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/tutor/internal/conversation"
	"github.com/morganforge/tutor/internal/gateway"
)

// toastTickInterval is how often expired toasts are pruned.
const toastTickInterval = time.Second

// =============================================================================
// RESULT MESSAGES
// =============================================================================

// ChatResponseMsg carries the backend's reply to a submitted message.
type ChatResponseMsg struct {
	Response *gateway.ChatResponse
	Err      error
}

// UploadResultMsg carries the outcome of a document upload.
type UploadResultMsg struct {
	Name string
	Err  error
}

// ToastTickMsg triggers pruning of expired toasts.
type ToastTickMsg time.Time

// =============================================================================
// COMMANDS
// =============================================================================

func chatCmd(ctx context.Context, gw conversation.Gateway, req gateway.ChatRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := gw.Chat(ctx, req)
		return ChatResponseMsg{Response: resp, Err: err}
	}
}

func uploadCmd(ctx context.Context, gw conversation.Gateway, name, path string) tea.Cmd {
	return func() tea.Msg {
		return UploadResultMsg{Name: name, Err: gw.UploadFile(ctx, path)}
	}
}

func toastTickCmd() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return ToastTickMsg(t)
	})
}
