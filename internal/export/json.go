// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/morganforge/tutor/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports chats as JSON. The output always holds the complete
// transcript; IncludeMetadata has no effect.
type JSONExporter struct {
	options *Options
}

// Transcript is the JSON export document.
type Transcript struct {
	model.Session
	Documents  []string  `json:"documents,omitempty"`
	ExportedAt time.Time `json:"exported_at"`
	Generator  string    `json:"generator"`
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a chat to indented JSON.
func (e *JSONExporter) Export(sess model.Session) ([]byte, error) {
	if err := validate(sess); err != nil {
		return nil, err
	}
	return json.MarshalIndent(Transcript{
		Session:    sess,
		Documents:  attachments(sess),
		ExportedAt: e.options.now().UTC(),
		Generator:  "tutor",
	}, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
