// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/morganforge/tutor/internal/library"
	"github.com/morganforge/tutor/internal/model"
)

const libraryUsage = "tutor library [list|delete <id|name>|summarize <name>]"

// HandleUpload uploads a document and records it in the library.
func (a *App) HandleUpload(ctx context.Context, args Args) error {
	if args.File == "" {
		return ErrMissingArgument("file", "tutor upload <file.pdf>")
	}
	err := a.Ctrl.Upload(ctx, args.File)
	a.flushToasts()
	if err != nil {
		return NewCommandError("upload", args.File, err)
	}
	if a.JSON {
		docs := a.Ctrl.Library().List()
		return a.writeJSON("upload", docs[0])
	}
	return nil
}

// HandleLibrary handles the "library" command.
func (a *App) HandleLibrary(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)

	switch p.Subcommand() {
	case "", "list", "ls":
		return a.listLibrary()
	case "delete", "rm":
		ref := p.PositionalFrom(1)
		if ref == "" {
			return ErrMissingArgument("document id or name", "tutor library delete <id|name>")
		}
		doc, err := a.findDocument(ref)
		if err != nil {
			return NewCommandError("library", "delete", err)
		}
		if err := a.Ctrl.DeleteDocument(doc.ID); err != nil {
			return NewCommandError("library", "delete", err)
		}
		a.status("Removed %s from the library", doc.Name)
		return nil
	case "summarize", "sum":
		ref := p.PositionalFrom(1)
		if ref == "" {
			return ErrMissingArgument("document name", "tutor library summarize <name>")
		}
		doc, err := a.findDocument(ref)
		if err != nil {
			return NewCommandError("library", "summarize", err)
		}
		if err := a.Ctrl.Summarize(doc.ID); err != nil {
			return NewCommandError("library", "summarize", err)
		}
		return a.HandleAsk(ctx, Args{Query: a.Ctrl.Input()})
	default:
		return ErrUnknownSubcommand("library", p.Subcommand(), libraryUsage)
	}
}

func (a *App) listLibrary() error {
	docs := a.Ctrl.Library().List()
	if a.JSON {
		if docs == nil {
			docs = []model.UploadedPDF{}
		}
		return a.writeJSON("library list", docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(a.Out, DimStyle.Render("No documents uploaded. Upload one with: tutor upload <file.pdf>"))
		return nil
	}
	fmt.Fprintln(a.Out, TitleStyle.Render(fmt.Sprintf("Library (%d)", len(docs))))
	for _, d := range docs {
		fmt.Fprintf(a.Out, "  %s  %s  %s\n", d.ID, d.Name,
			DimStyle.Render(d.UploadedAt.Local().Format("2006-01-02 15:04")))
	}
	return nil
}

// findDocument resolves a library reference by ID, then by name.
func (a *App) findDocument(ref string) (model.UploadedPDF, error) {
	lib := a.Ctrl.Library()
	doc, err := lib.Get(ref)
	if errors.Is(err, library.ErrDocumentNotFound) {
		return lib.FindByName(ref)
	}
	return doc, err
}
