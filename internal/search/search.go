// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search filters chat sessions by a case-insensitive substring.
//
// It is a linear scan over titles and message bodies with no index; a
// single user's local history is small enough that this stays instant.
package search

import (
	"strings"

	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/util"
)

// Preview window around a match inside a message body, in characters.
const (
	PreviewBefore = 30
	PreviewAfter  = 50
)

// NoResultsText is shown when a query matches nothing.
const NoResultsText = "No chats found"

// Result is one matching session with its display preview.
type Result struct {
	Session model.Session
	// Preview is a window around the first match in a message body, or the
	// session title when only the title matched.
	Preview string
	// Title and PreviewHighlight isolate the first match for rendering.
	Title            Highlight
	PreviewHighlight Highlight
}

// Highlight splits text around the first occurrence of a query.
type Highlight struct {
	Before string
	Match  string
	After  string
}

// Matched reports whether the highlight isolated a match.
func (h Highlight) Matched() bool {
	return h.Match != ""
}

// String reassembles the original text.
func (h Highlight) String() string {
	return h.Before + h.Match + h.After
}

// IsEmptyQuery reports whether query selects every session.
func IsEmptyQuery(query string) bool {
	return strings.TrimSpace(query) == ""
}

// Search returns the sessions matching query in their original order. An
// empty query returns every session with its title as preview.
func Search(sessions []model.Session, query string) []Result {
	results := make([]Result, 0, len(sessions))
	for _, s := range sessions {
		if !IsEmptyQuery(query) && !Matches(s, query) {
			continue
		}
		preview := Preview(s, query)
		results = append(results, Result{
			Session:          s,
			Preview:          preview,
			Title:            HighlightFirst(s.Title, query),
			PreviewHighlight: HighlightFirst(preview, query),
		})
	}
	return results
}

// Matches reports whether the session title or any message contains query.
func Matches(s model.Session, query string) bool {
	if util.ContainsFold(s.Title, query) {
		return true
	}
	for _, m := range s.Messages {
		if util.ContainsFold(m.Content, query) {
			return true
		}
	}
	return false
}

// Preview returns a window around the first match in the session's
// messages, with "..." marking each cut, or the title when no message
// matches.
func Preview(s model.Session, query string) string {
	if IsEmptyQuery(query) {
		return s.Title
	}
	for _, m := range s.Messages {
		idx, matchEnd := util.RuneSpanFold(m.Content, query)
		if idx < 0 {
			continue
		}
		total := util.RuneLen(m.Content)
		start := max(0, idx-PreviewBefore)
		end := min(total, matchEnd+PreviewAfter)

		var b strings.Builder
		if start > 0 {
			b.WriteString(util.Ellipsis)
		}
		b.WriteString(util.SafeSubstring(m.Content, start, end))
		if end < total {
			b.WriteString(util.Ellipsis)
		}
		return b.String()
	}
	return s.Title
}

// HighlightFirst isolates the first case-insensitive occurrence of query in
// text. Later occurrences are left as plain text.
func HighlightFirst(text, query string) Highlight {
	if IsEmptyQuery(query) {
		return Highlight{Before: text}
	}
	idx, end := util.RuneSpanFold(text, query)
	if idx < 0 {
		return Highlight{Before: text}
	}
	return Highlight{
		Before: util.SafeSubstring(text, 0, idx),
		Match:  util.SafeSubstring(text, idx, end),
		After:  util.SafeSubstring(text, end, -1),
	}
}
