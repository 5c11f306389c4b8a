// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status_cmd.go - reports backend reachability and local state.
//
// Command: status
// Aliases: s, info
//
// Examples:
//   tutor status                  Check the backend and show local counts
//   tutor status --json           Same, as JSON
//
// Exits with 3 when the backend cannot be reached.
package cli

import (
	"context"
	"fmt"

	"github.com/morganforge/tutor/internal/ui/styles"
)

// StatusData is the JSON form of the status command.
type StatusData struct {
	Server    string `json:"server"`
	Reachable bool   `json:"reachable"`
	UseAI     bool   `json:"use_ai"`
	Sessions  int    `json:"sessions"`
	Documents int    `json:"documents"`
	Current   string `json:"current_session,omitempty"`
}

// HandleStatus checks the backend's health endpoint and prints local counts.
func (a *App) HandleStatus(ctx context.Context) error {
	healthErr := a.Gateway.Health(ctx)
	data := StatusData{
		Server:    a.Gateway.BaseURL(),
		Reachable: healthErr == nil,
		UseAI:     a.Ctrl.UseAI(),
		Sessions:  a.Ctrl.Sessions().Len(),
		Documents: a.Ctrl.Library().Len(),
		Current:   a.Ctrl.Sessions().CurrentID(),
	}

	if a.JSON {
		if healthErr != nil {
			return NewCommandError("status", "reach backend", healthErr)
		}
		return a.writeJSON("status", data)
	}

	fmt.Fprintln(a.Out, TitleStyle.Render("Tutor status"))
	backend := styles.RenderSuccess("reachable")
	if healthErr != nil {
		backend = styles.RenderError("unreachable")
	}
	fmt.Fprintf(a.Out, "%s%s %s\n", LabelStyle.Render("Backend"), data.Server, backend)
	fmt.Fprintf(a.Out, "%s%s\n", LabelStyle.Render("AI answers"), onOff(data.UseAI))
	fmt.Fprintf(a.Out, "%s%d\n", LabelStyle.Render("Chats"), data.Sessions)
	fmt.Fprintf(a.Out, "%s%d\n", LabelStyle.Render("Documents"), data.Documents)
	if data.Current != "" {
		fmt.Fprintf(a.Out, "%s%s\n", LabelStyle.Render("Active"), data.Current)
	}

	if healthErr != nil {
		return NewCommandError("status", "reach backend", healthErr)
	}
	return nil
}
