// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTitle(t *testing.T) {
	long := "Explain the fundamental theorem of calculus in detail"

	tests := []struct {
		name string
		msgs []Message
		want string
	}{
		{"greeting only", DefaultMessages(), DefaultTitle},
		{"short question", []Message{Greeting(), NewUserMessage("What is a derivative?", nil)}, "What is a derivative?"},
		{"long question", []Message{Greeting(), NewUserMessage(long, nil)}, long[:30] + "..."},
		{"exactly thirty", []Message{Greeting(), NewUserMessage(strings.Repeat("x", 30), nil)}, strings.Repeat("x", 30)},
		{
			"first user message wins",
			[]Message{Greeting(), NewUserMessage("first", nil), NewAssistantMessage("a"), NewUserMessage("second", nil)},
			"first",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionTitle(tt.msgs))
		})
	}
}

func TestNewSession(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	s := NewSession(now)

	assert.Equal(t, "1700000000123", s.ID)
	assert.Equal(t, DefaultTitle, s.Title)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, Greeting(), s.Messages[0])
	assert.True(t, s.CreatedAt.Equal(now))
}

func TestNewAttachment(t *testing.T) {
	assert.Equal(t, &Attachment{Name: "notes.pdf", Type: "pdf"}, NewAttachment("notes.pdf"))
	assert.Equal(t, &Attachment{Name: "Slides.PDF", Type: "pdf"}, NewAttachment("Slides.PDF"))
	assert.Equal(t, &Attachment{Name: "README", Type: DefaultAttachmentType}, NewAttachment("README"))
}

func TestNewUserMessageCopiesAttachment(t *testing.T) {
	a := NewAttachment("notes.pdf")
	msg := NewUserMessage("hi", a)
	a.Name = "changed.pdf"

	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "notes.pdf", msg.Attachment.Name)
}

func TestSessionJSONLayout(t *testing.T) {
	s := NewSession(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	s.Messages = append(s.Messages, NewUserMessage("Analyze this document: notes.pdf", NewAttachment("notes.pdf")))

	data, err := json.Marshal(s)
	require.NoError(t, err)

	raw := string(data)
	assert.Contains(t, raw, `"createdAt":"2025-03-01T12:00:00Z"`)
	assert.Contains(t, raw, `"attachment":{"name":"notes.pdf","type":"pdf"}`)
	// The greeting has no attachment field at all.
	assert.Contains(t, raw, `{"role":"assistant","content":"`+GreetingText+`"}`)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSession(time.Now())
	s.Messages = append(s.Messages, NewUserMessage("q", NewAttachment("a.pdf")))

	c := s.Clone()
	c.Messages[1].Attachment.Name = "b.pdf"
	c.Messages[0].Content = "changed"

	assert.Equal(t, "a.pdf", s.Messages[1].Attachment.Name)
	assert.Equal(t, GreetingText, s.Messages[0].Content)
}

func TestModeValid(t *testing.T) {
	assert.True(t, ModeAI.Valid())
	assert.True(t, ModeDocumentOnly.Valid())
	assert.False(t, Mode("").Valid())
	assert.Equal(t, "Documents only", ModeDocumentOnly.Label())
}
