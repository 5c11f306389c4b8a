// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/storage"
)

// fakeClock returns a clock that advances one second per call.
func fakeClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) (*Store, *storage.State) {
	t.Helper()
	state := storage.NewState(storage.NewMemoryKV())
	store := NewStore(state, zap.NewNop(), WithClock(fakeClock(time.Unix(1700000000, 0))))
	return store, state
}

func TestNewStore_FreshDefaultState(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Equal(t, 0, store.Len())
	assert.False(t, store.HasActive())
	assert.Equal(t, model.DefaultMessages(), store.Messages())
}

func TestCreateNewChat_InsertsAtHeadAndActivates(t *testing.T) {
	store, state := newTestStore(t)

	first := store.CreateNewChat()
	second := store.CreateNewChat()

	sessions := store.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, first.ID, sessions[1].ID)
	assert.Equal(t, second.ID, store.CurrentID())
	assert.Equal(t, model.DefaultMessages(), store.Messages())
	assert.Equal(t, model.DefaultTitle, sessions[0].Title)

	persisted, err := state.LoadSessions()
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	id, err := state.LoadCurrentSessionID()
	require.NoError(t, err)
	assert.Equal(t, second.ID, id)
}

func TestCreateNewChat_SameMillisecondGetsDistinctIDs(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	store := NewStore(storage.NewState(storage.NewMemoryKV()), nil, WithClock(func() time.Time { return fixed }))

	a := store.CreateNewChat()
	b := store.CreateNewChat()

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "1700000000001", b.ID)
}

func TestAppendMessage_UpsertsTitleWithoutReordering(t *testing.T) {
	store, state := newTestStore(t)
	older := store.CreateNewChat()
	store.CreateNewChat()

	require.NoError(t, store.Select(older.ID))
	store.AppendMessage(model.NewUserMessage("Explain the chain rule with an example please", nil))

	sessions := store.Sessions()
	assert.Equal(t, older.ID, sessions[1].ID, "updating must not move the session")
	assert.Equal(t, "Explain the chain rule with an...", sessions[1].Title)
	assert.Len(t, sessions[1].Messages, 2)

	persisted, err := state.LoadSessions()
	require.NoError(t, err)
	assert.Equal(t, "Explain the chain rule with an...", persisted[1].Title)
}

func TestAppendMessage_WithoutActiveSessionOnlyTouchesActiveList(t *testing.T) {
	store, state := newTestStore(t)

	store.AppendMessage(model.NewUserMessage("hi", nil))

	assert.Len(t, store.Messages(), 2)
	assert.Equal(t, 0, store.Len())
	_, err := state.LoadSessions()
	assert.True(t, storage.IsNotFound(err))
}

func TestStartFromCurrent(t *testing.T) {
	store, _ := newTestStore(t)
	store.AppendMessage(model.NewUserMessage("What is a derivative?", nil))

	sess := store.StartFromCurrent("What is a derivative?")

	assert.Equal(t, sess.ID, store.CurrentID())
	assert.Equal(t, "What is a derivative?", sess.Title)
	assert.Len(t, sess.Messages, 2)
	assert.Equal(t, 1, store.Len())
}

func TestStartFromCurrent_TitleFromFirstUserMessage(t *testing.T) {
	store, state := newTestStore(t)
	att := &model.Attachment{Name: "notes.pdf", Type: "pdf"}
	store.AppendMessage(model.NewUserMessage("Analyze this document: notes.pdf", att))

	sess := store.StartFromCurrent("notes.pdf")

	want := model.TitleFrom("Analyze this document: notes.pdf")
	assert.Equal(t, want, sess.Title)
	persisted, err := state.LoadSessions()
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, want, persisted[0].Title)
}

func TestStartFromCurrent_NoUserMessageUsesSource(t *testing.T) {
	store, _ := newTestStore(t)

	sess := store.StartFromCurrent("notes.pdf")
	assert.Equal(t, "notes.pdf", sess.Title)
}

func TestSelect(t *testing.T) {
	store, _ := newTestStore(t)
	a := store.CreateNewChat()
	store.AppendMessage(model.NewUserMessage("about limits", nil))
	store.CreateNewChat()

	require.NoError(t, store.Select(a.ID))
	assert.Equal(t, a.ID, store.CurrentID())
	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "about limits", msgs[1].Content)

	err := store.Select("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, a.ID, store.CurrentID())
}

func TestDelete_ActiveSessionResetsConversation(t *testing.T) {
	store, state := newTestStore(t)
	keep := store.CreateNewChat()
	gone := store.CreateNewChat()
	store.AppendMessage(model.NewUserMessage("question", nil))

	require.NoError(t, store.Delete(gone.ID))

	assert.False(t, store.HasActive())
	assert.Equal(t, model.DefaultMessages(), store.Messages())
	sessions := store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, keep.ID, sessions[0].ID)

	_, err := state.LoadCurrentSessionID()
	assert.True(t, storage.IsNotFound(err))
}

func TestDelete_InactiveSessionKeepsActive(t *testing.T) {
	store, _ := newTestStore(t)
	other := store.CreateNewChat()
	active := store.CreateNewChat()
	store.AppendMessage(model.NewUserMessage("still here", nil))

	require.NoError(t, store.Delete(other.ID))

	assert.Equal(t, active.ID, store.CurrentID())
	assert.Len(t, store.Messages(), 2)
}

func TestDelete_LastSessionClearsPersistedState(t *testing.T) {
	store, state := newTestStore(t)
	only := store.CreateNewChat()
	store.AppendMessage(model.NewUserMessage("q", nil))

	require.NoError(t, store.Delete(only.ID))

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, []model.Message{model.Greeting()}, store.Messages())
	_, err := state.LoadSessions()
	assert.True(t, storage.IsNotFound(err))
}

func TestDelete_Unknown(t *testing.T) {
	store, _ := newTestStore(t)
	assert.ErrorIs(t, store.Delete("missing"), ErrSessionNotFound)
}

func TestLoad_RestoresSessionsAndActiveConversation(t *testing.T) {
	kv := storage.NewMemoryKV()
	state := storage.NewState(kv)

	first := NewStore(state, nil, WithClock(fakeClock(time.Unix(1700000000, 0))))
	s := first.CreateNewChat()
	first.AppendMessage(model.NewUserMessage("persist me", nil))

	second := NewStore(state, nil)
	require.NoError(t, second.Load())

	assert.Equal(t, s.ID, second.CurrentID())
	msgs := second.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "persist me", msgs[1].Content)
}

func TestLoad_UnknownCurrentIDFallsBack(t *testing.T) {
	state := storage.NewState(storage.NewMemoryKV())
	require.NoError(t, state.SaveSessions([]model.Session{model.NewSession(time.Unix(1, 0))}))
	require.NoError(t, state.SaveCurrentSessionID("ghost"))

	store := NewStore(state, nil)
	require.NoError(t, store.Load())

	assert.Equal(t, 1, store.Len())
	assert.False(t, store.HasActive())
	assert.Equal(t, model.DefaultMessages(), store.Messages())
}

func TestLoad_CorruptSessionsFallBack(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(storage.KeyChatSessions, "not json"))

	store := NewStore(storage.NewState(kv), nil)
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestDeleteAll(t *testing.T) {
	store, state := newTestStore(t)
	store.CreateNewChat()
	store.CreateNewChat()

	store.DeleteAll()

	assert.Equal(t, 0, store.Len())
	assert.False(t, store.HasActive())
	_, err := state.LoadSessions()
	assert.True(t, storage.IsNotFound(err))
}
