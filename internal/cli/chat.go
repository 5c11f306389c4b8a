// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/morganforge/tutor/internal/config"
	"github.com/morganforge/tutor/internal/conversation"
	"github.com/morganforge/tutor/internal/model"
)

// HistoryFileName is the chat REPL input history file in the config dir.
const HistoryFileName = "history"

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads its history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, HistoryFileName),
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// Prompt reads a line and records non-empty input in the history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (c *ChatCLI) Close() {
	defer c.line.Close()
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

const chatHelp = `Commands:
  /new                start a new chat
  /sessions           list saved chats
  /open <id>          continue a saved chat
  /search <query>     search saved chats
  /upload <path>      upload a PDF and attach it
  /library            list uploaded documents
  /attach <name>      attach an uploaded document
  /detach             remove the pending attachment
  /summarize [name]   ask for a summary of a document
  /ai [on|off]        toggle AI answers
  /help               show this help
  /quit               exit (Ctrl+D also works)`

// HandleChat runs the line-oriented chat loop until EOF or /quit.
func (a *App) HandleChat(ctx context.Context, _ Args) error {
	in := NewChatCLI()
	defer in.Close()
	return a.RunChat(ctx, in)
}

// RunChat runs the chat loop reading from in.
func (a *App) RunChat(ctx context.Context, in LineReader) error {
	if !a.Quiet {
		fmt.Fprintln(a.Out, TitleStyle.Render("AI Personal Tutor"))
		a.printMessage(model.Greeting())
		fmt.Fprintln(a.Out, DimStyle.Render("Type /help for commands."))
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := in.Prompt(a.prompt())
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(a.Out)
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/"):
			if quit := a.chatCommand(ctx, line); quit {
				return nil
			}
		default:
			a.Ctrl.SetInput(line)
			a.sendChat(ctx)
		}
	}
}

func (a *App) prompt() string {
	prefix := ""
	if att := a.Ctrl.PendingAttachment(); att != nil {
		prefix = "[" + att.Name + "] "
	}
	if !a.Ctrl.UseAI() {
		prefix += "(docs) "
	}
	return prefix + "> "
}

// sendChat submits the controller input and prints the reply.
func (a *App) sendChat(ctx context.Context) {
	reply, err := a.Ctrl.Submit(ctx)
	a.flushToasts()
	if errors.Is(err, conversation.ErrNothingToSend) {
		return
	}
	fmt.Fprintln(a.Out)
	a.printMessage(reply)
	fmt.Fprintln(a.Out)
}

// chatCommand runs a slash command and reports whether the loop should end.
func (a *App) chatCommand(ctx context.Context, line string) bool {
	name, rest, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch strings.ToLower(name) {
	case "quit", "q", "exit":
		return true
	case "help", "h", "?":
		fmt.Fprintln(a.Out, chatHelp)
	case "new", "n":
		sess := a.Ctrl.NewChat()
		a.status("Started chat %s", sess.ID)
	case "sessions", "list":
		err = a.listSessions()
	case "open":
		if err = a.Ctrl.SelectSession(rest); err == nil {
			for _, msg := range a.Ctrl.Messages() {
				a.printMessage(msg)
			}
		}
	case "search":
		err = a.HandleSearch(Args{Query: rest})
	case "upload", "u":
		if rest == "" {
			err = ErrMissingArgument("path", "/upload <path>")
			break
		}
		// Failures are reported by the upload toast.
		_ = a.Ctrl.Upload(ctx, expandUserPath(rest))
		a.flushToasts()
	case "library", "docs":
		err = a.listLibrary()
	case "attach":
		err = a.attachByName(rest)
	case "detach":
		a.Ctrl.RemovePendingAttachment()
	case "summarize", "sum":
		err = a.summarizeInChat(ctx, rest)
	case "ai":
		switch strings.ToLower(rest) {
		case "":
			a.Ctrl.ToggleAI()
		case "on":
			a.Ctrl.SetUseAI(true)
		case "off":
			a.Ctrl.SetUseAI(false)
		default:
			err = &UsageError{Message: "expected on or off", Usage: "/ai [on|off]"}
		}
		if err == nil {
			a.status("AI answers: %s", onOff(a.Ctrl.UseAI()))
		}
	default:
		err = fmt.Errorf("unknown command /%s (try /help)", name)
	}

	if err != nil {
		DisplayError(a.Err, "chat", err, false)
	}
	return false
}

// summarizeInChat asks for a summary of the named document, or of the
// pending attachment.
func (a *App) summarizeInChat(ctx context.Context, name string) error {
	if name == "" {
		if att := a.Ctrl.PendingAttachment(); att != nil {
			name = att.Name
		}
	}
	if name == "" {
		return ErrMissingArgument("document name", "/summarize <name>")
	}
	doc, err := a.findDocument(name)
	if err != nil {
		return err
	}
	if err := a.Ctrl.Summarize(doc.ID); err != nil {
		return err
	}
	a.sendChat(ctx)
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func expandUserPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
