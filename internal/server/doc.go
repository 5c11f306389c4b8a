// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is a local stand-in for the tutor backend, started with
// "tutor serve". It speaks the same wire format as the real backend so the
// client can be used and tested offline.
//
// Endpoints:
//   - POST /api/chat   - answer a question from the uploaded documents
//   - POST /api/upload - store a PDF and index its text
//   - GET  /health     - liveness and document count
//
// The server has no language model. Every answer is built from the uploaded
// passages that share the most words with the question, and is reported with
// mode "document_only".
//
// Middleware (applied in order):
//   - Panic recovery with stack trace logging
//   - Security headers
//   - Request logging with request IDs
//   - Per-client rate limiting (token bucket)
package server
