// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen tutor interface.

The Model is a Bubble Tea model wrapped around a conversation.Controller.
All state changes go through the controller; the model only owns widgets,
focus and overlays.

# Layout

  - Header with the title, the AI toggle and the last response mode
  - Sidebar listing chat sessions and the document library (hidden on
    narrow terminals)
  - Viewport with the active conversation; assistant turns are rendered
    as Markdown with glamour
  - Pending attachment chip and the input line
  - Toasts stacked in the bottom right, pruned every second

# Network calls

Chat and upload requests run as tea.Cmd. The controller's Begin step runs in
Update before the command is returned; the Complete step runs when the
result message arrives. A reply is applied to whichever session is active at
that moment.

# Slash commands

	/new                start a new chat
	/upload <path>      upload a PDF and attach it
	/attach <name>      attach a library document
	/detach             remove the pending attachment
	/summarize <name>   fill the input with a summary request
	/search [query]     open chat search
	/ai [on|off]        toggle AI answers
	/export [format]    save the active chat as markdown, html or json
	/help               show key bindings
	/quit               exit
*/
package chat
