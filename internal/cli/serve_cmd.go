// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/config"
	"github.com/morganforge/tutor/internal/server"
)

// shutdownTimeout bounds graceful shutdown of the development backend.
const shutdownTimeout = 5 * time.Second

// HandleServe runs the local development backend until ctx is cancelled.
func HandleServe(ctx context.Context, w io.Writer, cfg *config.Config, logger *zap.Logger, args Args) error {
	p := NewArgParser(args.Raw, "no-watch")

	uploadDir, err := cfg.UploadDir()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Addr:           p.FlagOrDefault("addr", cfg.Serve.Addr),
		UploadDir:      uploadDir,
		MaxUploadBytes: int64(cfg.Serve.MaxUploadMB) << 20,
		RateLimit:      cfg.Serve.RateLimit,
		RateBurst:      cfg.Serve.RateBurst,
		Logger:         logger,
	})
	if err != nil {
		return NewCommandError("serve", "start", err)
	}

	n, err := srv.LoadUploads()
	if err != nil {
		logger.Warn("indexing stored uploads", zap.Error(err))
	}

	if !p.BoolFlag("no-watch") {
		watcher, err := srv.WatchUploads(ctx, 0)
		if err != nil {
			logger.Warn("watching upload directory", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	fmt.Fprintln(w, TitleStyle.Render("Tutor development backend"))
	fmt.Fprintf(w, "%s http://%s\n", LabelStyle.Render("Listening"), srv.Addr())
	fmt.Fprintf(w, "%s %s (%d indexed)\n", LabelStyle.Render("Uploads"), uploadDir, n)
	fmt.Fprintln(w, DimStyle.Render("Answers come from uploaded documents only. Press Ctrl+C to stop."))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return NewCommandError("serve", "listen", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return NewCommandError("serve", "shutdown", err)
	}
	fmt.Fprintln(w, DimStyle.Render("Stopped."))
	return nil
}
