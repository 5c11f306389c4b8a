// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable key/value persistence for the tutor client.
//
// The client keeps three keys, mirroring what the web client kept in the
// browser's local storage:
//
//   - chatSessions: JSON array of sessions
//   - currentSessionId: ID of the session that was active on exit
//   - uploadedPDFs: JSON array of library entries
//
// # Key Types
//
//   - KV: minimal key/value contract implemented by every backend
//   - FileKV: one JSON document on disk, rewritten atomically
//   - SQLiteKV: a single table in a SQLite database
//   - State: typed accessors for the three keys on top of any KV
//
// # Usage
//
//	kv, err := storage.Open(storage.BackendFile, dataDir)
//	state := storage.NewState(kv)
//	sessions, err := state.LoadSessions()
//
// Missing keys are reported with ErrNotFound; callers fall back to a fresh
// default state.
package storage
