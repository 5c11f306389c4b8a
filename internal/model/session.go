// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strconv"
	"time"

	"github.com/morganforge/tutor/internal/util"
)

// TitleMaxRunes is the number of characters of the first question kept in a
// session title.
const TitleMaxRunes = 30

// DefaultTitle names a session that has no user message yet.
const DefaultTitle = "New Chat"

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is a persisted conversation.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSession creates a session whose only message is the greeting. The ID
// is the creation time in Unix milliseconds.
func NewSession(now time.Time) Session {
	return Session{
		ID:        SessionIDAt(now),
		Title:     DefaultTitle,
		Messages:  DefaultMessages(),
		CreatedAt: now,
	}
}

// SessionIDAt formats the session ID for a creation time.
func SessionIDAt(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// SessionTitle derives a title from the first user message, or DefaultTitle.
func SessionTitle(msgs []Message) string {
	for _, m := range msgs {
		if m.Role == RoleUser {
			return TitleFrom(m.Content)
		}
	}
	return DefaultTitle
}

// TitleFrom truncates text to TitleMaxRunes characters, adding an ellipsis
// when it was longer.
func TitleFrom(text string) string {
	return util.TruncateRunes(text, TitleMaxRunes)
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	s.Messages = CloneMessages(s.Messages)
	return s
}

// FirstUserMessage returns the first user message, if any.
func (s Session) FirstUserMessage() (Message, bool) {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m, true
		}
	}
	return Message{}, false
}

// =============================================================================
// UPLOADED DOCUMENTS
// =============================================================================

// UploadedPDF is an entry in the library of documents sent to the backend.
type UploadedPDF struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// =============================================================================
// RESPONSE MODE
// =============================================================================

// Mode reports how the backend produced an answer.
type Mode string

const (
	ModeAI           Mode = "ai"
	ModeDocumentOnly Mode = "document_only"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeAI || m == ModeDocumentOnly
}

// Label returns a short human-readable label.
func (m Mode) Label() string {
	switch m {
	case ModeAI:
		return "AI"
	case ModeDocumentOnly:
		return "Documents only"
	default:
		return string(m)
	}
}
