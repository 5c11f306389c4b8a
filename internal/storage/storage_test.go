// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morganforge/tutor/internal/model"
)

// backends opens every KV implementation against a fresh directory.
func backends(t *testing.T) map[string]KV {
	t.Helper()

	fileKV, err := OpenFileKV(filepath.Join(t.TempDir(), StateFileName))
	require.NoError(t, err)

	sqliteKV, err := OpenSQLiteKV(filepath.Join(t.TempDir(), SQLiteFileName))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteKV.Close() })

	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   fileKV,
		"sqlite": sqliteKV,
	}
}

func TestKV_Contract(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get("missing")
			assert.True(t, IsNotFound(err), "want ErrNotFound, got %v", err)

			require.NoError(t, kv.Set("k", "v1"))
			got, err := kv.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "v1", got)

			require.NoError(t, kv.Set("k", "v2"))
			got, err = kv.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "v2", got)

			require.NoError(t, kv.Remove("k"))
			_, err = kv.Get("k")
			assert.True(t, IsNotFound(err))

			assert.NoError(t, kv.Remove("never-set"))
		})
	}
}

func TestFileKV_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFileName)

	kv, err := OpenFileKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(KeyCurrentSessionID, "42"))

	reopened, err := OpenFileKV(path)
	require.NoError(t, err)
	got, err := reopened.Get(KeyCurrentSessionID)
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}

func TestFileKV_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := OpenFileKV(path)
	assert.Error(t, err)
}

func TestSQLiteKV_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), SQLiteFileName)

	kv, err := OpenSQLiteKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set("a", "1"))
	require.NoError(t, kv.Close())

	reopened, err := OpenSQLiteKV(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("SQLite")
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, b)

	b, err = ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendFile, b)

	_, err = ParseBackend("redis")
	assert.Error(t, err)
}

func TestState_SessionsRoundTripRehydratesTimes(t *testing.T) {
	state := NewState(NewMemoryKV())

	_, err := state.LoadSessions()
	assert.True(t, IsNotFound(err))

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s := model.NewSession(created)
	s.Messages = append(s.Messages, model.NewUserMessage("hello", nil))
	s.Title = model.SessionTitle(s.Messages)

	require.NoError(t, state.SaveSessions([]model.Session{s}))

	loaded, err := state.LoadSessions()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, s.ID, loaded[0].ID)
	assert.Equal(t, "hello", loaded[0].Title)
	assert.True(t, loaded[0].CreatedAt.Equal(created))
	assert.Len(t, loaded[0].Messages, 2)

	require.NoError(t, state.ClearSessions())
	_, err = state.LoadSessions()
	assert.True(t, IsNotFound(err))
}

func TestState_CurrentSessionID(t *testing.T) {
	state := NewState(NewMemoryKV())

	_, err := state.LoadCurrentSessionID()
	assert.True(t, IsNotFound(err))

	require.NoError(t, state.SaveCurrentSessionID("123"))
	id, err := state.LoadCurrentSessionID()
	require.NoError(t, err)
	assert.Equal(t, "123", id)

	require.NoError(t, state.ClearCurrentSessionID())
	_, err = state.LoadCurrentSessionID()
	assert.True(t, IsNotFound(err))
}

func TestState_Library(t *testing.T) {
	state := NewState(NewMemoryKV())
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, state.SaveLibrary([]model.UploadedPDF{{ID: "1", Name: "notes.pdf", UploadedAt: at}}))

	docs, err := state.LoadLibrary()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes.pdf", docs[0].Name)
	assert.True(t, docs[0].UploadedAt.Equal(at))
}

func TestState_ReadsWebClientLayout(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(KeyChatSessions,
		`[{"id":"1718000000000","title":"Limits","messages":[{"role":"assistant","content":"hi"},{"role":"user","content":"Limits"}],"createdAt":"2024-06-10T06:13:20.000Z"}]`))

	sessions, err := NewState(kv).LoadSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Limits", sessions[0].Title)
	assert.Equal(t, 2024, sessions[0].CreatedAt.Year())
}

func TestState_CorruptValue(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(KeyUploadedPDFs, "[{"))

	_, err := NewState(kv).LoadLibrary()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.False(t, IsNotFound(err))
}
