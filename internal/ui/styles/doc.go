// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the tutor TUI and
// the line-oriented commands.
//
// All colors use Lip Gloss AdaptiveColor so light and dark terminals both
// render legibly. Theme groups the styles the chat screen needs; the Render*
// helpers are used by CLI output that has no Theme.
package styles
