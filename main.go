// tutor - a terminal client for the AI Personal Tutor.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/cli"
	"github.com/morganforge/tutor/internal/config"
	"github.com/morganforge/tutor/internal/logging"
	"github.com/morganforge/tutor/internal/ui/chat"
	"github.com/morganforge/tutor/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])
	os.Exit(run(cmd, args))
}

// run executes one command and returns the process exit code.
func run(cmd cli.Command, args cli.Args) int {
	switch cmd {
	case cli.CmdVersion:
		if args.JSON {
			_ = cli.NewJSONResponse("version", cli.VersionData{
				Version:   cli.Version,
				GitCommit: cli.GitCommit,
				BuildDate: cli.BuildDate,
				GoVersion: runtime.Version(),
			}).Write(os.Stdout)
		} else {
			cli.PrintVersion(os.Stdout)
		}
		return cli.ExitOK
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitOK
	case cli.CmdUnknown:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args.Raw[0])
		cli.PrintUsage(os.Stderr)
		return cli.ExitUsage
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return fail("config", err, args.JSON)
	}
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		if cmd != cli.CmdConfig {
			return fail("config", err, args.JSON)
		}
		// Let "config set" repair a broken file.
		fmt.Fprintln(os.Stderr, styles.RenderWarning(err.Error()))
		cfg = config.Default()
	}

	logFile, err := cfg.LogFile()
	if err != nil {
		return fail("log", err, args.JSON)
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    logFile,
		Verbose: args.Verbose,
	})
	if err != nil {
		return fail("log", err, args.JSON)
	}
	defer closeLog()
	logger.Debug("starting", zap.String("version", Version), zap.Int("command", int(cmd)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case cli.CmdConfig:
		return finish("config", cli.HandleConfig(os.Stdout, cfg, configPath, args), args.JSON)
	case cli.CmdServe:
		return finish("serve", cli.HandleServe(ctx, os.Stdout, cfg, logger, args), args.JSON)
	}

	app, err := cli.NewApp(cli.AppOptions{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger,
		Args:       args,
	})
	if err != nil {
		return fail("startup", err, args.JSON)
	}
	defer app.Close()

	switch cmd {
	case cli.CmdAsk:
		return finish("ask", app.HandleAsk(ctx, args), args.JSON)
	case cli.CmdChat:
		return finish("chat", app.HandleChat(ctx, args), args.JSON)
	case cli.CmdSessions:
		return finish("sessions", app.HandleSessions(args), args.JSON)
	case cli.CmdSearch:
		return finish("search", app.HandleSearch(args), args.JSON)
	case cli.CmdUpload:
		return finish("upload", app.HandleUpload(ctx, args), args.JSON)
	case cli.CmdLibrary:
		return finish("library", app.HandleLibrary(ctx, args), args.JSON)
	case cli.CmdStatus:
		return finish("status", app.HandleStatus(ctx), args.JSON)
	default:
		return finish("tui", runTUI(ctx, app), false)
	}
}

// runTUI starts the full-screen interface.
func runTUI(ctx context.Context, app *cli.App) error {
	if err := cli.RequiresTTY("start the chat interface"); err != nil {
		return err
	}

	opts := []chat.Option{
		chat.WithContext(ctx),
		chat.WithSidebar(app.Config.UI.SidebarOpen),
		chat.WithWordWrap(app.Config.UI.WordWrap),
	}
	if dir, err := app.Config.DataDir(); err == nil {
		opts = append(opts, chat.WithExportDir(filepath.Join(dir, "exports")))
	}

	m := chat.New(app.Ctrl, styles.NewTheme(), opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}

func finish(command string, err error, jsonMode bool) int {
	if err == nil {
		return cli.ExitOK
	}
	return fail(command, err, jsonMode)
}

func fail(command string, err error, jsonMode bool) int {
	w := os.Stderr
	if jsonMode {
		w = os.Stdout
	}
	cli.DisplayError(w, command, err, jsonMode)
	return cli.ExitCode(err)
}
