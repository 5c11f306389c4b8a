// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation drives the active conversation: the input line, the
// pending document attachment, sending turns to the backend, and uploads.
//
// A Controller is single-threaded. Network calls are split into a Begin step
// that updates state and returns the work to do, and a Complete step that
// applies the result, so the TUI can run the call as a tea.Cmd and feed the
// result back through its update loop:
//
//	req, err := ctl.BeginSubmit()
//	if err != nil {
//	    return // nothing to send, or a reply is already pending
//	}
//	resp, err := client.Chat(ctx, req)
//	ctl.CompleteSubmit(resp, err)
//
// Line-oriented callers use Submit and Upload, which chain both steps.
package conversation
