// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved tutoring chats to shareable files.
//
// # Supported Formats
//
//   - Markdown: study notes with YAML frontmatter
//   - HTML: a standalone page with embedded CSS
//   - JSON: the transcript with its metadata
//
// # Usage
//
//	exporter, err := export.New(export.FormatMarkdown, nil)
//	if err != nil {
//	    return err
//	}
//	path, err := export.ExportToFile(sess, exporter, nil)
package export
