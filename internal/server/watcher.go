// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultWatchDebounce is how long a file must be quiet before it is
// re-indexed.
const DefaultWatchDebounce = 500 * time.Millisecond

// =============================================================================
// UPLOAD DIRECTORY WATCHER
// =============================================================================

// UploadWatcher keeps the index in step with PDFs that other programs copy
// into, change in or delete from the upload directory.
type UploadWatcher struct {
	s        *Server
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time // file name -> last change

	done chan struct{}
}

// WatchUploads starts watching the upload directory until ctx is done or
// Close is called. A debounce of zero means DefaultWatchDebounce.
func (s *Server) WatchUploads(ctx context.Context, debounce time.Duration) (*UploadWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(s.opts.UploadDir); err != nil {
		w.Close()
		return nil, err
	}

	uw := &UploadWatcher{
		s:        s,
		watcher:  w,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		done:     make(chan struct{}),
	}
	go uw.run(ctx)
	return uw, nil
}

// Close stops watching. It is safe to call more than once.
func (uw *UploadWatcher) Close() error {
	err := uw.watcher.Close()
	<-uw.done
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}

func (uw *UploadWatcher) run(ctx context.Context) {
	defer close(uw.done)
	defer uw.watcher.Close()

	ticker := time.NewTicker(uw.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-uw.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !isPDF(name) || name[0] == '.' {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				uw.mu.Lock()
				uw.pending[name] = time.Now()
				uw.mu.Unlock()
			}

		case err, ok := <-uw.watcher.Errors:
			if !ok {
				return
			}
			uw.s.logger.Warn("upload watcher", zap.Error(err))

		case now := <-ticker.C:
			uw.flush(now)
		}
	}
}

// flush re-indexes every file that has been quiet for the debounce period.
func (uw *UploadWatcher) flush(now time.Time) {
	uw.mu.Lock()
	var ready []string
	for name, changed := range uw.pending {
		if now.Sub(changed) >= uw.debounce {
			ready = append(ready, name)
			delete(uw.pending, name)
		}
	}
	uw.mu.Unlock()

	for _, name := range ready {
		uw.s.reindex(name)
	}
}

// reindex indexes the named upload, or drops it when the file is gone.
func (s *Server) reindex(name string) {
	data, err := os.ReadFile(filepath.Join(s.opts.UploadDir, name))
	if errors.Is(err, os.ErrNotExist) {
		if s.index.Remove(name) {
			s.logger.Info("document removed", zap.String("file", name))
		}
		return
	}
	if err != nil {
		s.logger.Warn("reading changed upload", zap.String("file", name), zap.Error(err))
		return
	}
	text, err := s.opts.Extract(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("skipping upload without text", zap.String("file", name), zap.Error(err))
		return
	}
	chunks := s.index.Add(name, text)
	s.logger.Info("document re-indexed", zap.String("file", name), zap.Int("chunks", chunks))
}
