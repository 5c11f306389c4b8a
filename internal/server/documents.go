// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Chunking parameters for indexed documents.
const (
	ChunkSize    = 1000
	ChunkOverlap = 200
	DefaultTopK  = 4
)

// ExtractPDFText reads a whole PDF from r and returns its plain text. A PDF
// without extractable text yields "" and no error.
func ExtractPDFText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// =============================================================================
// CHUNKING
// =============================================================================

// Chunk splits text into word-aligned pieces of at most size runes, each
// repeating up to overlap runes from the end of the previous one. A single
// word longer than size becomes its own chunk.
func Chunk(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || size <= 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(words) {
		end, n := start, 0
		for end < len(words) {
			w := utf8.RuneCountInString(words[end])
			if n > 0 && n+1+w > size {
				break
			}
			if n > 0 {
				n++
			}
			n += w
			end++
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}

		next, back := end, 0
		for next > start+1 {
			w := utf8.RuneCountInString(words[next-1]) + 1
			if back+w > overlap {
				break
			}
			back += w
			next--
		}
		start = next
	}
	return chunks
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "can": true, "was": true, "one": true, "our": true,
	"has": true, "had": true, "how": true, "what": true, "why": true, "who": true,
	"this": true, "that": true, "with": true, "from": true, "they": true, "have": true,
	"will": true, "your": true, "about": true, "which": true, "there": true, "their": true,
	"please": true, "does": true, "into": true, "than": true, "then": true, "when": true,
}

// Terms returns the distinct lower-cased words of text worth matching on.
func Terms(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	terms := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 3 || stopWords[f] {
			continue
		}
		terms[f] = struct{}{}
	}
	return terms
}

// =============================================================================
// INDEX
// =============================================================================

// Passage is one retrieved chunk.
type Passage struct {
	Document string
	Text     string
	Score    int

	chunk int
}

type indexedChunk struct {
	text  string
	terms map[string]struct{}
}

// Index holds the chunked text of every uploaded document. It is safe for
// concurrent use.
type Index struct {
	mu   sync.RWMutex
	docs map[string][]indexedChunk
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{docs: make(map[string][]indexedChunk)}
}

// Add indexes text under name, replacing any earlier version. It returns the
// number of chunks stored.
func (ix *Index) Add(name, text string) int {
	pieces := Chunk(text, ChunkSize, ChunkOverlap)
	chunks := make([]indexedChunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = indexedChunk{text: p, terms: Terms(p)}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs[name] = chunks
	return len(chunks)
}

// Remove drops a document. It reports whether the document was indexed.
func (ix *Index) Remove(name string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, ok := ix.docs[name]
	delete(ix.docs, name)
	return ok
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Names returns the indexed document names in sorted order.
func (ix *Index) Names() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	names := make([]string, 0, len(ix.docs))
	for name := range ix.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Search returns up to k passages ranked by how many distinct query terms
// they contain. When the query names an indexed document, only that
// document is searched, and its opening passages are returned if no term
// matches.
func (ix *Index) Search(query string, k int) []Passage {
	if k <= 0 {
		k = DefaultTopK
	}
	terms := Terms(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	names := ix.namedInLocked(query)
	scoped := len(names) > 0
	if !scoped {
		names = make([]string, 0, len(ix.docs))
		for name := range ix.docs {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var hits []Passage
	for _, name := range names {
		for i, c := range ix.docs[name] {
			score := 0
			for t := range terms {
				if _, ok := c.terms[t]; ok {
					score++
				}
			}
			if score > 0 {
				hits = append(hits, Passage{Document: name, Text: c.text, Score: score, chunk: i})
			}
		}
	}

	if len(hits) == 0 && scoped {
		for _, name := range names {
			for i, c := range ix.docs[name] {
				hits = append(hits, Passage{Document: name, Text: c.text, chunk: i})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Document != hits[j].Document {
			return hits[i].Document < hits[j].Document
		}
		return hits[i].chunk < hits[j].chunk
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func (ix *Index) namedInLocked(query string) []string {
	lower := strings.ToLower(query)
	var names []string
	for name := range ix.docs {
		if strings.Contains(lower, strings.ToLower(name)) {
			names = append(names, name)
		}
	}
	return names
}

// =============================================================================
// ANSWERS
// =============================================================================

// NoPassagesText is the answer when nothing in the uploaded documents
// matches the question.
const NoPassagesText = "I couldn't find anything about that in your uploaded documents. Upload a PDF or rephrase the question."

// ComposeAnswer renders passages as a markdown answer.
func ComposeAnswer(passages []Passage) string {
	if len(passages) == 0 {
		return NoPassagesText
	}

	var b strings.Builder
	b.WriteString("Here is what your documents say:\n")
	for _, p := range passages {
		fmt.Fprintf(&b, "\n**%s**\n\n> %s\n", p.Document, p.Text)
	}
	return b.String()
}
