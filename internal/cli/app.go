// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/config"
	"github.com/morganforge/tutor/internal/conversation"
	"github.com/morganforge/tutor/internal/gateway"
	"github.com/morganforge/tutor/internal/library"
	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/session"
	"github.com/morganforge/tutor/internal/storage"
	"github.com/morganforge/tutor/internal/toast"
	"github.com/morganforge/tutor/internal/ui/styles"
)

// =============================================================================
// APP
// =============================================================================

// App wires the tutor's components for one process.
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger

	State   *storage.State
	Ctrl    *conversation.Controller
	Gateway *gateway.Client

	Out io.Writer
	Err io.Writer

	// Rich enables markdown rendering of answers.
	Rich  bool
	Quiet bool
	JSON  bool

	markdown *markdownRenderer
}

// AppOptions configures NewApp.
type AppOptions struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger
	Args       Args

	// KV overrides the configured storage backend.
	KV storage.KV

	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

// NewApp opens storage, restores sessions and the library, and connects the
// conversation controller to the backend.
func NewApp(opts AppOptions) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("cli: config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out, errOut := opts.Out, opts.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	kv := opts.KV
	if kv == nil {
		backend, err := storage.ParseBackend(cfg.Storage.Backend)
		if err != nil {
			return nil, err
		}
		dataDir, err := cfg.DataDir()
		if err != nil {
			return nil, err
		}
		kv, err = storage.Open(backend, dataDir)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}
	state := storage.NewState(kv)

	sessions := session.NewStore(state, logger)
	if err := sessions.Load(); err != nil {
		state.Close()
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	lib := library.New(state, logger)
	if err := lib.Load(); err != nil {
		state.Close()
		return nil, fmt.Errorf("load library: %w", err)
	}

	toasts := toast.NewManager(logger)
	if cfg.UI.DesktopNotifications {
		toasts.SetNotifier(toast.DesktopNotifier{})
	}

	serverURL := cfg.Server.URL
	if opts.Args.ServerURL != "" {
		serverURL = opts.Args.ServerURL
	}
	client := gateway.New(serverURL,
		gateway.WithTimeout(cfg.Server.Timeout()),
		gateway.WithLogger(logger),
		gateway.WithUserAgent("tutor/"+Version),
	)

	ctrl := conversation.New(sessions, lib, toasts, client, logger)
	ctrl.SetUseAI(cfg.Chat.UseAI)

	return &App{
		Config:     cfg,
		ConfigPath: opts.ConfigPath,
		Logger:     logger,
		State:      state,
		Ctrl:       ctrl,
		Gateway:    client,
		Out:        out,
		Err:        errOut,
		Rich:       ColorsEnabled() && !opts.Args.JSON,
		Quiet:      opts.Args.Quiet,
		JSON:       opts.Args.JSON,
		markdown:   newMarkdownRenderer(cfg.UI.WordWrap),
	}, nil
}

// Close releases storage.
func (a *App) Close() error {
	return a.State.Close()
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

// flushToasts prints pending notifications to Err and clears them.
func (a *App) flushToasts() {
	toasts := a.Ctrl.Toasts()
	defer toasts.Clear()
	if a.Quiet {
		return
	}
	for _, t := range toasts.Active() {
		switch t.Kind {
		case toast.KindError:
			fmt.Fprintln(a.Err, styles.RenderError(t.Message))
		default:
			fmt.Fprintln(a.Err, styles.RenderSuccess(t.Message))
		}
	}
}

// printMessage writes one conversation turn.
func (a *App) printMessage(msg model.Message) {
	if msg.IsUser() {
		fmt.Fprintln(a.Out, UserStyle.Render(msg.Role.DisplayName()+":"))
		fmt.Fprintln(a.Out, msg.Content)
		if msg.Attachment != nil {
			fmt.Fprintln(a.Out, DimStyle.Render("[attached] "+msg.Attachment.Name))
		}
		return
	}
	fmt.Fprintln(a.Out, TutorStyle.Render(msg.Role.DisplayName()+":"))
	fmt.Fprintln(a.Out, a.renderAnswer(msg.Content))
}

func (a *App) renderAnswer(content string) string {
	if !a.Rich {
		return content
	}
	return a.markdown.Render(content)
}

func (a *App) writeJSON(command string, data interface{}) error {
	return NewJSONResponse(command, data).Write(a.Out)
}
