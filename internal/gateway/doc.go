// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway is the HTTP client for the tutor backend.
//
// Two calls are made against the backend:
//
//   - POST /api/chat    JSON {message, session_id, use_ai} -> {answer, mode?}
//   - POST /api/upload  multipart form with a single "file" field
//
// # Usage
//
//	client := gateway.New("http://localhost:3000", gateway.WithLogger(logger))
//	resp, err := client.Chat(ctx, gateway.ChatRequest{
//	    Message:   "What is a derivative?",
//	    SessionID: "1718000000000",
//	    UseAI:     true,
//	})
//
// Requests are never retried. Callers turn failures into a visible message
// and let the user try again.
package gateway
