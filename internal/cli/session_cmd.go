// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/morganforge/tutor/internal/export"
	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/util"
)

const sessionsUsage = "tutor sessions [list|show <id>|open <id>|new|export <id>|delete <id>|delete-all --confirm]"

const exportUsage = "tutor sessions export <id> [--format markdown|html|json] [--out DIR]"

// SessionInfo is the JSON form of a saved chat in listings.
type SessionInfo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	Current      bool      `json:"current"`
}

// HandleSessions handles the "sessions" command.
func (a *App) HandleSessions(args Args) error {
	p := NewArgParser(args.Raw, "confirm")

	switch p.Subcommand() {
	case "", "list", "ls":
		return a.listSessions()
	case "show", "view":
		id := p.Positional(1)
		if id == "" {
			return ErrMissingArgument("session id", "tutor sessions show <id>")
		}
		return a.showSession(id)
	case "open", "resume":
		id := p.Positional(1)
		if id == "" {
			return ErrMissingArgument("session id", "tutor sessions open <id>")
		}
		if err := a.Ctrl.SelectSession(id); err != nil {
			return NewCommandError("sessions", "open", err)
		}
		a.status("Opened chat %s", id)
		return nil
	case "new":
		sess := a.Ctrl.NewChat()
		if a.JSON {
			return a.writeJSON("sessions new", sessionInfo(sess, true))
		}
		a.status("Started chat %s", sess.ID)
		return nil
	case "export":
		id := p.Positional(1)
		if id == "" {
			return ErrMissingArgument("session id", exportUsage)
		}
		return a.exportSession(id, p.Flag("format"), p.FlagOrDefault("out", "."))
	case "delete", "rm":
		id := p.Positional(1)
		if id == "" {
			return ErrMissingArgument("session id", "tutor sessions delete <id>")
		}
		if err := a.Ctrl.DeleteSession(id); err != nil {
			return NewCommandError("sessions", "delete", err)
		}
		a.status("Deleted chat %s", id)
		return nil
	case "delete-all":
		if !p.BoolFlag("confirm") {
			return &UsageError{Message: "refusing to delete every chat without --confirm", Usage: "tutor sessions delete-all --confirm"}
		}
		n := a.Ctrl.Sessions().Len()
		a.Ctrl.Sessions().DeleteAll()
		a.status("Deleted %d chats", n)
		return nil
	default:
		return ErrUnknownSubcommand("sessions", p.Subcommand(), sessionsUsage)
	}
}

func (a *App) listSessions() error {
	store := a.Ctrl.Sessions()
	sessions := store.Sessions()

	if a.JSON {
		infos := make([]SessionInfo, 0, len(sessions))
		for _, s := range sessions {
			infos = append(infos, sessionInfo(s, s.ID == store.CurrentID()))
		}
		return a.writeJSON("sessions list", infos)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(a.Out, DimStyle.Render("No chats yet. Start one with: tutor ask \"your question\""))
		return nil
	}

	fmt.Fprintln(a.Out, TitleStyle.Render(fmt.Sprintf("Chats (%d)", len(sessions))))
	width := GetTerminalWidth()
	for _, s := range sessions {
		marker := "  "
		if s.ID == store.CurrentID() {
			marker = "* "
		}
		meta := DimStyle.Render(fmt.Sprintf("%s  %d messages", s.CreatedAt.Local().Format("2006-01-02 15:04"), len(s.Messages)))
		fmt.Fprintf(a.Out, "%s%s  %s  %s\n", marker, s.ID, util.TruncateWidth(s.Title, width/2), meta)
	}
	return nil
}

func (a *App) showSession(id string) error {
	sess, err := a.Ctrl.Sessions().Get(id)
	if err != nil {
		return NewCommandError("sessions", "show", err)
	}
	if a.JSON {
		return a.writeJSON("sessions show", sess)
	}

	fmt.Fprintln(a.Out, TitleStyle.Render(sess.Title))
	fmt.Fprintln(a.Out, DimStyle.Render(fmt.Sprintf("%s  created %s", sess.ID, sess.CreatedAt.Local().Format(time.RFC1123))))
	for _, msg := range sess.Messages {
		fmt.Fprintln(a.Out)
		a.printMessage(msg)
	}
	return nil
}

// ExportData is the JSON form of an export result.
type ExportData struct {
	ID     string        `json:"id"`
	Format export.Format `json:"format"`
	Path   string        `json:"path"`
}

func (a *App) exportSession(id, format, dir string) error {
	sess, err := a.Ctrl.Sessions().Get(id)
	if err != nil {
		return NewCommandError("sessions", "export", err)
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return &UsageError{Message: err.Error(), Usage: exportUsage}
	}
	opts := export.DefaultOptions()
	opts.OutputDir = dir
	exporter, err := export.New(f, opts)
	if err != nil {
		return err
	}
	path, err := export.ExportToFile(sess, exporter, opts)
	if err != nil {
		return NewCommandError("sessions", "export", err)
	}
	if a.JSON {
		return a.writeJSON("sessions export", ExportData{ID: id, Format: f, Path: path})
	}
	a.status("Exported chat %s to %s", id, path)
	return nil
}

func sessionInfo(s model.Session, current bool) SessionInfo {
	return SessionInfo{
		ID:           s.ID,
		Title:        s.Title,
		CreatedAt:    s.CreatedAt,
		MessageCount: len(s.Messages),
		Current:      current,
	}
}

// status prints a confirmation line unless output is JSON or quiet.
func (a *App) status(format string, args ...interface{}) {
	if a.JSON || a.Quiet {
		return
	}
	fmt.Fprintln(a.Out, SuccessLine(fmt.Sprintf(format, args...)))
}
