// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/morganforge/tutor/internal/search"
)

// SearchHit is the JSON form of a search result.
type SearchHit struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
}

// HandleSearch prints the saved chats matching args.Query. An empty query
// lists every chat.
func (a *App) HandleSearch(args Args) error {
	results := search.Search(a.Ctrl.Sessions().Sessions(), args.Query)

	if a.JSON {
		hits := make([]SearchHit, 0, len(results))
		for _, r := range results {
			hits = append(hits, SearchHit{ID: r.Session.ID, Title: r.Session.Title, Preview: r.Preview})
		}
		return a.writeJSON("search", hits)
	}

	if len(results) == 0 {
		fmt.Fprintln(a.Out, DimStyle.Render(search.NoResultsText))
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(a.Out, "%s  %s\n", DimStyle.Render(r.Session.ID), renderHighlight(r.Title))
		if !search.IsEmptyQuery(args.Query) {
			fmt.Fprintf(a.Out, "    %s\n", renderHighlight(r.PreviewHighlight))
		}
	}
	return nil
}
