// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/model"
)

const askUsage = `tutor ask [--file PATH | --doc NAME] [--session ID] [--no-ai] "question"`

// AskData is the JSON form of an answer.
type AskData struct {
	Answer    string     `json:"answer"`
	Mode      model.Mode `json:"mode"`
	SessionID string     `json:"session_id"`
	Failed    bool       `json:"failed,omitempty"`
}

// HandleAsk sends one question, optionally with a document, and prints the
// answer. The exchange is saved as part of the active chat, or a new chat
// when none is active.
func (a *App) HandleAsk(ctx context.Context, args Args) error {
	if args.Query == "" && args.File == "" && args.Document == "" {
		return ErrMissingArgument("question", askUsage)
	}
	if args.File != "" && args.Document != "" {
		return &UsageError{Message: "--file and --doc cannot be combined", Usage: askUsage}
	}

	if args.Session != "" {
		if err := a.Ctrl.SelectSession(args.Session); err != nil {
			return NewCommandError("ask", "open session", err)
		}
	}
	if args.NoAI {
		a.Ctrl.SetUseAI(false)
	}

	if args.File != "" {
		if err := a.Ctrl.Upload(ctx, args.File); err != nil {
			a.flushToasts()
			return NewCommandError("ask", "upload "+args.File, err)
		}
	}
	if args.Document != "" {
		if err := a.attachByName(args.Document); err != nil {
			return NewCommandError("ask", "attach document", err)
		}
	}

	a.Ctrl.SetInput(args.Query)
	reply, err := a.Ctrl.Submit(ctx)
	a.flushToasts()
	a.Logger.Debug("ask completed",
		zap.String("session", a.Ctrl.Sessions().CurrentID()),
		zap.Bool("failed", err != nil))

	if a.JSON {
		if jsonErr := a.writeJSON("ask", AskData{
			Answer:    reply.Content,
			Mode:      a.Ctrl.ResponseMode(),
			SessionID: a.Ctrl.Sessions().CurrentID(),
			Failed:    err != nil,
		}); jsonErr != nil {
			return jsonErr
		}
	} else if reply.Content != "" {
		fmt.Fprintln(a.Out, a.renderAnswer(reply.Content))
	}
	return NewCommandError("ask", "send question", err)
}

// attachByName attaches a library document by file name.
func (a *App) attachByName(name string) error {
	doc, err := a.Ctrl.Library().FindByName(name)
	if err != nil {
		return err
	}
	_, err = a.Ctrl.SelectDocument(doc.ID)
	a.flushToasts()
	return err
}
