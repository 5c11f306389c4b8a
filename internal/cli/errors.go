// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/morganforge/tutor/internal/config"
	"github.com/morganforge/tutor/internal/gateway"
	"github.com/morganforge/tutor/internal/library"
	"github.com/morganforge/tutor/internal/session"
	"github.com/morganforge/tutor/internal/ui/styles"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitUsage   = 2
	ExitBackend = 3
	ExitMissing = 4
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports a malformed command line.
type UsageError struct {
	Message string
	Usage   string
}

func (e *UsageError) Error() string {
	if e.Usage != "" {
		return fmt.Sprintf("%s\nUsage: %s", e.Message, e.Usage)
	}
	return e.Message
}

// ErrMissingArgument returns a UsageError for a required argument.
func ErrMissingArgument(argName, usage string) error {
	return &UsageError{Message: "missing " + argName, Usage: usage}
}

// ErrUnknownSubcommand returns a UsageError for an unrecognized subcommand.
func ErrUnknownSubcommand(command, sub, usage string) error {
	return &UsageError{Message: fmt.Sprintf("unknown %s subcommand %q", command, sub), Usage: usage}
}

// CommandError wraps a failure with the command and action that produced it.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError wraps err; it returns nil when err is nil.
func NewCommandError(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// =============================================================================
// EXIT CODES AND DISPLAY
// =============================================================================

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var usage *UsageError
	var validation config.ValidateErrors
	switch {
	case errors.As(err, &usage), errors.As(err, &validation):
		return ExitUsage
	case errors.Is(err, gateway.ErrRequestFailed), errors.Is(err, gateway.ErrMalformedResponse):
		return ExitBackend
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, library.ErrDocumentNotFound):
		return ExitMissing
	default:
		return ExitError
	}
}

// DisplayError writes err to w, as a JSON error response in JSON mode.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Write(w)
		return
	}
	fmt.Fprintln(w, styles.RenderError(err.Error()))
}
