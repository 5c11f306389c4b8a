// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morganforge/tutor/internal/config"
	"github.com/morganforge/tutor/internal/gateway"
	"github.com/morganforge/tutor/internal/library"
	"github.com/morganforge/tutor/internal/session"
)

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		cmd   Command
		check func(t *testing.T, a Args)
	}{
		{
			name: "no args starts the TUI",
			argv: nil,
			cmd:  CmdTUI,
		},
		{
			name: "ask joins the question",
			argv: []string{"ask", "what", "is", "entropy"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "what is entropy", a.Query)
			},
		},
		{
			name: "ask flags",
			argv: []string{"ask", "-f", "notes.pdf", "--session=42", "--no-ai", "summarize"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "notes.pdf", a.File)
				assert.Equal(t, "42", a.Session)
				assert.True(t, a.NoAI)
				assert.Equal(t, "summarize", a.Query)
			},
		},
		{
			name: "status alias",
			argv: []string{"info"},
			cmd:  CmdStatus,
		},
		{
			name: "ask with library document",
			argv: []string{"a", "--doc", "bio.pdf", "explain"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "bio.pdf", a.Document)
				assert.Equal(t, "explain", a.Query)
			},
		},
		{
			name: "global flags anywhere",
			argv: []string{"sessions", "--json", "list", "--server", "http://x:1", "-q"},
			cmd:  CmdSessions,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.JSON)
				assert.True(t, a.Quiet)
				assert.Equal(t, "http://x:1", a.ServerURL)
				assert.Equal(t, "list", a.Subcommand)
				assert.Equal(t, []string{"list"}, a.Raw)
			},
		},
		{
			name: "search joins the query",
			argv: []string{"search", "cell", "division"},
			cmd:  CmdSearch,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "cell division", a.Query)
			},
		},
		{
			name: "upload path",
			argv: []string{"upload", "my notes.pdf"},
			cmd:  CmdUpload,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "my notes.pdf", a.File)
			},
		},
		{
			name: "library alias",
			argv: []string{"docs", "delete", "bio.pdf"},
			cmd:  CmdLibrary,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "delete", a.Subcommand)
			},
		},
		{
			name: "config set joins the value",
			argv: []string{"config", "set", "server.url", "http://a", "b"},
			cmd:  CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "set", a.Subcommand)
				assert.Equal(t, "server.url", a.ConfigKey)
				assert.Equal(t, "http://a b", a.ConfigVal)
			},
		},
		{name: "serve", argv: []string{"serve", "--addr", ":9000"}, cmd: CmdServe},
		{name: "chat", argv: []string{"chat"}, cmd: CmdChat},
		{name: "version", argv: []string{"--version"}, cmd: CmdVersion},
		{name: "help", argv: []string{"-h"}, cmd: CmdHelp},
		{
			name: "unknown keeps the word",
			argv: []string{"frobnicate", "x"},
			cmd:  CmdUnknown,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, []string{"frobnicate", "x"}, a.Raw)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.argv)
			assert.Equal(t, tt.cmd, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"delete-all", "--confirm", "extra", "--addr", ":9000", "--limit=5", "--dry=true"}, "confirm")

	assert.Equal(t, "delete-all", p.Subcommand())
	assert.True(t, p.BoolFlag("confirm"))
	assert.True(t, p.BoolFlag("dry"))
	assert.Equal(t, ":9000", p.Flag("addr"))
	assert.Equal(t, 5, p.FlagIntOrDefault("limit", 1))
	assert.Equal(t, 7, p.FlagIntOrDefault("missing", 7))
	assert.Equal(t, "fallback", p.FlagOrDefault("missing", "fallback"))
	assert.Equal(t, "extra", p.Positional(1))
	assert.Equal(t, "", p.Positional(5))
	assert.Equal(t, 2, p.PositionalCount())
	assert.Equal(t, "extra", p.PositionalFrom(1))
	assert.Equal(t, "", p.PositionalFrom(2))
}

func TestArgParser_ValueFlagConsumesNext(t *testing.T) {
	p := NewArgParser([]string{"--addr", "host:1", "list"})
	assert.Equal(t, "host:1", p.Flag("addr"))
	assert.Equal(t, "list", p.Subcommand())
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"usage", ErrMissingArgument("x", "y"), ExitUsage},
		{"validation", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "server.url", Message: "bad"}}), ExitUsage},
		{"backend", NewCommandError("ask", "send", &gateway.StatusError{Path: "/api/chat", Status: 500}), ExitBackend},
		{"malformed", NewCommandError("ask", "send", gateway.ErrMalformedResponse), ExitBackend},
		{"missing session", NewCommandError("sessions", "show", session.ErrSessionNotFound), ExitMissing},
		{"missing document", fmt.Errorf("%w: x", library.ErrDocumentNotFound), ExitMissing},
		{"other", errors.New("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestNewCommandError_NilPassesThrough(t *testing.T) {
	assert.NoError(t, NewCommandError("ask", "send", nil))

	err := NewCommandError("ask", "send", gateway.ErrRequestFailed)
	assert.EqualError(t, err, "ask: send: request failed")
	assert.ErrorIs(t, err, gateway.ErrRequestFailed)
}

func TestDisplayError_JSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "ask", errors.New("boom"), true)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "boom", *resp.Error)
	assert.Equal(t, "ask", resp.Command)
}

func TestUsageError_IncludesUsage(t *testing.T) {
	err := ErrUnknownSubcommand("library", "zap", libraryUsage)
	assert.Contains(t, err.Error(), `unknown library subcommand "zap"`)
	assert.Contains(t, err.Error(), "Usage: tutor library")
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), "tutor "+Version)
}
