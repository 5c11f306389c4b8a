// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the tutor packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: rune-safe truncation with a trailing ellipsis
//   - TruncateWidth: truncation by terminal display width
//   - RuneIndexFold, RuneSpanFold: Unicode case-folded substring search in
//     rune offsets (golang.org/x/text cases and norm)
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateRunes(firstQuestion, 30)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
