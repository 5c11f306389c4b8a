// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/morganforge/tutor/internal/model"
)

// Keys used by the client.
const (
	KeyChatSessions     = "chatSessions"
	KeyCurrentSessionID = "currentSessionId"
	KeyUploadedPDFs     = "uploadedPDFs"
)

// State provides typed access to the persisted client state.
type State struct {
	kv KV
}

// NewState wraps a KV backend.
func NewState(kv KV) *State {
	return &State{kv: kv}
}

// KV returns the underlying backend.
func (s *State) KV() KV {
	return s.kv
}

// Close closes the underlying backend.
func (s *State) Close() error {
	return s.kv.Close()
}

// =============================================================================
// SESSIONS
// =============================================================================

// LoadSessions returns the persisted session list, or ErrNotFound.
func (s *State) LoadSessions() ([]model.Session, error) {
	var sessions []model.Session
	if err := s.getJSON(KeyChatSessions, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SaveSessions persists the session list.
func (s *State) SaveSessions(sessions []model.Session) error {
	return s.setJSON(KeyChatSessions, sessions)
}

// ClearSessions removes the persisted session list.
func (s *State) ClearSessions() error {
	return s.kv.Remove(KeyChatSessions)
}

// LoadCurrentSessionID returns the ID of the last active session, or
// ErrNotFound.
func (s *State) LoadCurrentSessionID() (string, error) {
	id, err := s.kv.Get(KeyCurrentSessionID)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

// SaveCurrentSessionID persists the active session ID.
func (s *State) SaveCurrentSessionID(id string) error {
	return s.kv.Set(KeyCurrentSessionID, id)
}

// ClearCurrentSessionID forgets the active session ID.
func (s *State) ClearCurrentSessionID() error {
	return s.kv.Remove(KeyCurrentSessionID)
}

// =============================================================================
// LIBRARY
// =============================================================================

// LoadLibrary returns the persisted uploaded-document list, or ErrNotFound.
func (s *State) LoadLibrary() ([]model.UploadedPDF, error) {
	var docs []model.UploadedPDF
	if err := s.getJSON(KeyUploadedPDFs, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// SaveLibrary persists the uploaded-document list.
func (s *State) SaveLibrary(docs []model.UploadedPDF) error {
	return s.setJSON(KeyUploadedPDFs, docs)
}

// ClearLibrary removes the persisted uploaded-document list.
func (s *State) ClearLibrary() error {
	return s.kv.Remove(KeyUploadedPDFs)
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *State) getJSON(key string, v any) error {
	raw, err := s.kv.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

func (s *State) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.Set(key, string(data))
}
