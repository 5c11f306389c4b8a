// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"path/filepath"
	"strings"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Tutor"
	default:
		return string(r)
	}
}

// =============================================================================
// ATTACHMENT
// =============================================================================

// Attachment references an uploaded document sent along with a message.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DefaultAttachmentType is used when a file name carries no extension.
const DefaultAttachmentType = "pdf"

// NewAttachment builds an attachment for the named file, deriving Type from
// the lower-cased extension.
func NewAttachment(name string) *Attachment {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		ext = DefaultAttachmentType
	}
	return &Attachment{Name: name, Type: ext}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one turn of a conversation. Messages are never edited after
// they are appended.
type Message struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// GreetingText opens every conversation.
const GreetingText = "Hello! I am your AI Tutor. How can I help you today?"

// ErrorReplyText is appended when a chat request fails.
const ErrorReplyText = "Sorry, I encountered an error. Please try again."

// Greeting returns the assistant message every session starts with.
func Greeting() Message {
	return Message{Role: RoleAssistant, Content: GreetingText}
}

// DefaultMessages returns a fresh message list holding only the greeting.
func DefaultMessages() []Message {
	return []Message{Greeting()}
}

// NewUserMessage creates a user message, optionally carrying an attachment.
func NewUserMessage(content string, attachment *Attachment) Message {
	msg := Message{Role: RoleUser, Content: content}
	if attachment != nil {
		a := *attachment
		msg.Attachment = &a
	}
	return msg
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// CloneMessages returns a copy of msgs that shares no attachment pointers.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		if m.Attachment != nil {
			a := *m.Attachment
			m.Attachment = &a
		}
		out[i] = m
	}
	return out
}
