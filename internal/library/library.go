// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package library keeps the list of documents the user has uploaded.
//
// Entries are unique by file name. Adding a name that is already present
// drops the old entry and puts the new one at the head with the new upload
// time, so the list reads newest first.
package library

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/storage"
)

// ErrDocumentNotFound is returned when no library entry matches.
var ErrDocumentNotFound = errors.New("document not found")

// Library is the deduplicated uploaded-document list.
type Library struct {
	state  *storage.State
	logger *zap.Logger
	now    func() time.Time

	docs []model.UploadedPDF
}

// New creates an empty library backed by state.
func New(state *storage.State, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{
		state:  state,
		logger: logger.Named("library"),
		now:    time.Now,
	}
}

// SetClock overrides the clock used for IDs and upload times.
func (l *Library) SetClock(now func() time.Time) {
	l.now = now
}

// Load restores the persisted list. Missing or corrupt data leaves the
// library empty.
func (l *Library) Load() error {
	docs, err := l.state.LoadLibrary()
	switch {
	case storage.IsNotFound(err):
		return nil
	case errors.Is(err, storage.ErrCorrupt):
		l.logger.Warn("discarding unreadable library", zap.Error(err))
		return nil
	case err != nil:
		return err
	}
	l.docs = docs
	return nil
}

// List returns the entries, newest first.
func (l *Library) List() []model.UploadedPDF {
	out := make([]model.UploadedPDF, len(l.docs))
	copy(out, l.docs)
	return out
}

// Len returns the number of entries.
func (l *Library) Len() int {
	return len(l.docs)
}

// Add registers an upload of name, replacing any entry with the same name.
func (l *Library) Add(name string) (model.UploadedPDF, error) {
	kept := make([]model.UploadedPDF, 0, len(l.docs))
	for _, d := range l.docs {
		if d.Name != name {
			kept = append(kept, d)
		}
	}

	now := l.now()
	doc := model.UploadedPDF{
		ID:         uniqueID(kept, now.UnixMilli()),
		Name:       name,
		UploadedAt: now,
	}
	l.docs = append([]model.UploadedPDF{doc}, kept...)

	return doc, l.save()
}

// Remove deletes the entry with the given ID. The persisted key is removed
// once the library is empty.
func (l *Library) Remove(id string) error {
	idx := -1
	for i, d := range l.docs {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	l.docs = append(l.docs[:idx:idx], l.docs[idx+1:]...)
	return l.save()
}

// Get returns the entry with the given ID.
func (l *Library) Get(id string) (model.UploadedPDF, error) {
	for _, d := range l.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return model.UploadedPDF{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
}

// FindByName returns the entry with the given file name.
func (l *Library) FindByName(name string) (model.UploadedPDF, error) {
	for _, d := range l.docs {
		if d.Name == name {
			return d, nil
		}
	}
	return model.UploadedPDF{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
}

func (l *Library) save() error {
	var err error
	if len(l.docs) == 0 {
		l.docs = nil
		err = l.state.ClearLibrary()
	} else {
		err = l.state.SaveLibrary(l.docs)
	}
	if err != nil {
		l.logger.Error("persisting library", zap.Error(err))
		return fmt.Errorf("save library: %w", err)
	}
	return nil
}

// uniqueID bumps a millisecond ID until no entry in docs uses it, so two
// uploads within the same millisecond stay distinct.
func uniqueID(docs []model.UploadedPDF, ms int64) string {
	for {
		id := strconv.FormatInt(ms, 10)
		taken := false
		for _, d := range docs {
			if d.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		ms++
	}
}
