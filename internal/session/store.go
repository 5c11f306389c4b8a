// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/storage"
)

// ErrSessionNotFound is returned when an ID does not name a stored session.
var ErrSessionNotFound = errors.New("session not found")

// Store owns the session list and the active conversation.
//
// Store is not safe for concurrent use. The TUI mutates it only from its
// update loop, and the CLI commands are sequential.
type Store struct {
	state  *storage.State
	logger *zap.Logger
	now    func() time.Time

	sessions  []model.Session
	currentID string
	messages  []model.Message

	lastPersistErr error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for session IDs and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a store in the fresh default state: no sessions, no
// active session, and a greeting-only message list.
func NewStore(state *storage.State, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		state:    state,
		logger:   logger.Named("session"),
		now:      time.Now,
		messages: model.DefaultMessages(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// LOAD
// =============================================================================

// Load restores the persisted sessions and the last active session.
//
// Missing or unreadable data leaves the store in its fresh default state;
// only backend read failures are returned.
func (s *Store) Load() error {
	sessions, err := s.state.LoadSessions()
	switch {
	case storage.IsNotFound(err):
		return nil
	case errors.Is(err, storage.ErrCorrupt):
		s.logger.Warn("discarding unreadable sessions", zap.Error(err))
		return nil
	case err != nil:
		return err
	}
	s.sessions = sessions

	lastID, err := s.state.LoadCurrentSessionID()
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.Warn("reading current session id", zap.Error(err))
		}
		return nil
	}
	if idx := s.indexOf(lastID); idx >= 0 {
		s.currentID = lastID
		s.messages = model.CloneMessages(s.sessions[idx].Messages)
	}

	s.logger.Debug("sessions loaded",
		zap.Int("count", len(s.sessions)),
		zap.String("current", s.currentID))
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Sessions returns a copy of the session list, most recently created first.
func (s *Store) Sessions() []model.Session {
	out := make([]model.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	return len(s.sessions)
}

// Get returns a copy of the session with the given ID.
func (s *Store) Get(id string) (model.Session, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.sessions[idx].Clone(), nil
}

// CurrentID returns the active session ID, or "" when none is active.
func (s *Store) CurrentID() string {
	return s.currentID
}

// HasActive reports whether a session is active.
func (s *Store) HasActive() bool {
	return s.currentID != ""
}

// Messages returns a copy of the active message list.
func (s *Store) Messages() []model.Message {
	return model.CloneMessages(s.messages)
}

// LastPersistError returns the most recent persistence failure, if any.
func (s *Store) LastPersistError() error {
	return s.lastPersistErr
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// CreateNewChat allocates a greeting-only session, puts it at the head of the
// list and makes it active.
func (s *Store) CreateNewChat() model.Session {
	sess := model.NewSession(s.now())
	sess.ID = s.uniqueID(sess.ID)
	s.insertHead(sess)
	s.setCurrent(sess.ID)
	s.messages = model.CloneMessages(sess.Messages)
	s.logger.Debug("session created", zap.String("id", sess.ID))
	return sess.Clone()
}

// StartFromCurrent turns the active message list into a new session when no
// session is active yet. The title comes from the first user message in the
// list; titleSource is only used when there is none. The new session becomes
// active.
func (s *Store) StartFromCurrent(titleSource string) model.Session {
	if titleSource == "" {
		titleSource = model.DefaultTitle
	}
	now := s.now()
	sess := model.Session{
		ID:        s.uniqueID(model.SessionIDAt(now)),
		Title:     model.TitleFrom(titleSource),
		Messages:  model.CloneMessages(s.messages),
		CreatedAt: now,
	}
	if first, ok := sess.FirstUserMessage(); ok {
		sess.Title = model.TitleFrom(first.Content)
	}
	s.insertHead(sess)
	s.setCurrent(sess.ID)
	s.logger.Debug("session started from conversation", zap.String("id", sess.ID))
	return sess.Clone()
}

// Select makes the stored session active and shows its messages as stored.
func (s *Store) Select(id string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.setCurrent(id)
	s.messages = model.CloneMessages(s.sessions[idx].Messages)
	return nil
}

// Delete removes a session. Deleting the active session resets the active
// conversation to a fresh greeting; deleting the last session removes the
// persisted list.
func (s *Store) Delete(id string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.sessions = append(s.sessions[:idx:idx], s.sessions[idx+1:]...)

	if s.currentID == id {
		s.currentID = ""
		s.messages = model.DefaultMessages()
		s.persist(s.state.ClearCurrentSessionID())
	}

	if len(s.sessions) == 0 {
		s.sessions = nil
		s.persist(s.state.ClearSessions())
	} else {
		s.saveSessions()
	}
	s.logger.Debug("session deleted", zap.String("id", id), zap.Int("remaining", len(s.sessions)))
	return nil
}

// DeleteAll removes every session and resets the active conversation.
func (s *Store) DeleteAll() {
	s.sessions = nil
	s.currentID = ""
	s.messages = model.DefaultMessages()
	s.persist(s.state.ClearSessions())
	s.persist(s.state.ClearCurrentSessionID())
}

// =============================================================================
// ACTIVE MESSAGES
// =============================================================================

// SetMessages replaces the active message list. While a session is active
// its stored messages and title are updated to match.
func (s *Store) SetMessages(msgs []model.Message) {
	s.messages = model.CloneMessages(msgs)
	s.upsertCurrent()
}

// AppendMessage appends msg to the active message list.
func (s *Store) AppendMessage(msg model.Message) {
	s.messages = append(s.messages, model.CloneMessages([]model.Message{msg})...)
	s.upsertCurrent()
}

func (s *Store) upsertCurrent() {
	if s.currentID == "" {
		return
	}
	idx := s.indexOf(s.currentID)
	if idx < 0 {
		return
	}
	s.sessions[idx].Messages = model.CloneMessages(s.messages)
	s.sessions[idx].Title = model.SessionTitle(s.messages)
	s.saveSessions()
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueID bumps a millisecond ID until no stored session uses it, so two
// sessions created within the same millisecond stay distinct.
func (s *Store) uniqueID(id string) string {
	for s.indexOf(id) >= 0 {
		ms, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return id + "-1"
		}
		id = model.SessionIDAt(time.UnixMilli(ms + 1))
	}
	return id
}

func (s *Store) insertHead(sess model.Session) {
	s.sessions = append([]model.Session{sess}, s.sessions...)
	s.saveSessions()
}

func (s *Store) setCurrent(id string) {
	s.currentID = id
	s.persist(s.state.SaveCurrentSessionID(id))
}

func (s *Store) saveSessions() {
	if len(s.sessions) == 0 {
		return
	}
	s.persist(s.state.SaveSessions(s.sessions))
}

func (s *Store) persist(err error) {
	if err == nil {
		return
	}
	s.lastPersistErr = err
	s.logger.Error("persisting session state", zap.Error(err))
}
