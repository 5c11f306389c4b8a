// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package toast implements ephemeral, non-blocking notifications.
//
// A toast carries a unique ID, a kind and a message. It disappears after
// Duration or when dismissed. There is no limit on how many are visible and
// identical messages are not collapsed.
package toast

import (
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind is the severity of a toast.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Duration is how long a toast stays visible.
const Duration = 5 * time.Second

// Toast is a single notification.
type Toast struct {
	ID        string
	Kind      Kind
	Message   string
	CreatedAt time.Time
}

// ExpiresAt returns when the toast auto-dismisses.
func (t Toast) ExpiresAt() time.Time {
	return t.CreatedAt.Add(Duration)
}

// IsExpired reports whether the toast should be gone at now.
func (t Toast) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt())
}

// Notifier mirrors toasts outside the terminal.
type Notifier interface {
	Notify(t Toast) error
}

// DesktopNotifier forwards toasts to the OS notification center.
type DesktopNotifier struct {
	Title string
}

// Notify implements Notifier.
func (d DesktopNotifier) Notify(t Toast) error {
	title := d.Title
	if title == "" {
		title = "AI Tutor"
	}
	// Empty icon lets beeep pick the platform default.
	return beeep.Notify(title, t.Message, "")
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager holds the visible toasts, oldest first.
type Manager struct {
	mu       sync.Mutex
	toasts   []Toast
	now      func() time.Time
	notifier Notifier
	logger   *zap.Logger
}

// NewManager creates an empty manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		now:    time.Now,
		logger: logger.Named("toast"),
	}
}

// SetClock overrides the clock used for creation times.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetNotifier mirrors every new toast through n. Pass nil to disable.
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// Show adds a toast and returns it.
func (m *Manager) Show(kind Kind, message string) Toast {
	m.mu.Lock()
	t := Toast{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: m.now(),
	}
	m.toasts = append(m.toasts, t)
	notifier := m.notifier
	m.mu.Unlock()

	m.logger.Debug("toast", zap.String("kind", string(kind)), zap.String("message", message))
	if notifier != nil {
		if err := notifier.Notify(t); err != nil {
			m.logger.Warn("desktop notification failed", zap.Error(err))
		}
	}
	return t
}

// Success is shorthand for Show(KindSuccess, message).
func (m *Manager) Success(message string) Toast {
	return m.Show(KindSuccess, message)
}

// Error is shorthand for Show(KindError, message).
func (m *Manager) Error(message string) Toast {
	return m.Show(KindError, message)
}

// Dismiss removes the toast with the given ID. It reports whether a toast
// was removed.
func (m *Manager) Dismiss(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Prune drops toasts that have expired at now and returns the rest.
func (m *Manager) Prune(now time.Time) []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := m.toasts[:0:0]
	for _, t := range m.toasts {
		if !t.IsExpired(now) {
			active = append(active, t)
		}
	}
	m.toasts = active
	return append([]Toast(nil), m.toasts...)
}

// Active returns a copy of the visible toasts, oldest first.
func (m *Manager) Active() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// Len returns the number of visible toasts.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts)
}

// Clear removes every toast.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}
