// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the ordered list of chat sessions and the active
// conversation's message list.
//
// # Key Types
//
//   - Store: session list, active session ID and active messages, persisted
//     through storage.State on every change
//
// # Usage
//
//	store := session.NewStore(state, logger)
//	store.Load()
//	s := store.CreateNewChat()
//	store.AppendMessage(model.NewUserMessage("What is a limit?", nil))
//
// # Ordering
//
// New sessions are inserted at the head of the list. Updating a session's
// messages never moves it.
//
// # Persistence
//
// The list is written whenever it changes and is non-empty; deleting the last
// session removes the key entirely. The active session ID is written whenever
// it is set. Persistence failures are logged and kept in LastPersistError;
// they never roll back in-memory state.
package session
