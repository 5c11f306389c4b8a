// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the tutor client.
//
// # Key Types
//
//   - Message: a single chat turn with role, content and optional attachment
//   - Attachment: a document reference staged for the next outgoing message
//   - Session: a titled, persisted conversation
//   - UploadedPDF: an entry in the uploaded-document library
//   - Mode: the backend's report of how an answer was produced
//
// # Usage
//
//	s := model.NewSession(time.Now())
//	s.Messages = append(s.Messages, model.NewUserMessage("What is a derivative?", nil))
//	s.Title = model.SessionTitle(s.Messages)
//
// JSON field names follow the layout the web client kept in local storage,
// so state files written by either client can be read by the other.
package model
