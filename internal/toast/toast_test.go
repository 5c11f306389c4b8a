// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package toast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	got []Toast
	err error
}

func (r *recordingNotifier) Notify(t Toast) error {
	r.got = append(r.got, t)
	return r.err
}

func TestShow_AssignsUniqueIDs(t *testing.T) {
	m := NewManager(nil)

	a := m.Success("uploaded")
	b := m.Success("uploaded")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Len(), "duplicates are not collapsed")
	assert.Equal(t, KindSuccess, a.Kind)
}

func TestShow_NoQueueLimit(t *testing.T) {
	m := NewManager(nil)
	for i := 0; i < 25; i++ {
		m.Error("boom")
	}
	assert.Equal(t, 25, m.Len())
}

func TestDismiss(t *testing.T) {
	m := NewManager(nil)
	a := m.Error("first")
	b := m.Error("second")

	assert.True(t, m.Dismiss(a.ID))
	assert.False(t, m.Dismiss(a.ID))

	active := m.Active()
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)
}

func TestPrune_ExpiresAfterDuration(t *testing.T) {
	m := NewManager(nil)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	m.SetClock(func() time.Time { return now })

	old := m.Success("old")
	now = start.Add(3 * time.Second)
	fresh := m.Success("fresh")

	active := m.Prune(start.Add(4 * time.Second))
	assert.Len(t, active, 2)

	active = m.Prune(start.Add(Duration))
	require.Len(t, active, 1)
	assert.Equal(t, fresh.ID, active[0].ID)
	assert.True(t, old.IsExpired(start.Add(Duration)))
	assert.False(t, fresh.IsExpired(start.Add(Duration)))
}

func TestNotifier(t *testing.T) {
	m := NewManager(nil)
	n := &recordingNotifier{err: errors.New("no dbus")}
	m.SetNotifier(n)

	m.Error("AI quota exceeded. Showing document results instead.")

	require.Len(t, n.got, 1)
	assert.Equal(t, KindError, n.got[0].Kind)
	assert.Equal(t, 1, m.Len(), "notifier failure does not drop the toast")
}
