// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CHUNK TESTS
// =============================================================================

func TestChunk_Empty(t *testing.T) {
	assert.Nil(t, Chunk("   \n\t ", 100, 10))
}

func TestChunk_ShortTextIsOneChunk(t *testing.T) {
	chunks := Chunk("The chain  rule\ndifferentiates compositions.", 100, 10)
	assert.Equal(t, []string{"The chain rule differentiates compositions."}, chunks)
}

func TestChunk_RespectsSizeAndOverlap(t *testing.T) {
	words := make([]string, 500)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	chunks := Chunk(text, 100, 20)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
	}
	// 20 runes of overlap fit four "word " units.
	assert.True(t, strings.HasPrefix(chunks[1], "word word word word"))
}

func TestChunk_LongWordAlone(t *testing.T) {
	long := strings.Repeat("x", 50)
	chunks := Chunk("a "+long+" b", 10, 2)
	assert.Equal(t, []string{"a", long, "b"}, chunks)
}

func TestTerms(t *testing.T) {
	terms := Terms("What is the Derivative of x^2? Derivative!")
	_, ok := terms["derivative"]
	assert.True(t, ok)
	_, ok = terms["the"]
	assert.False(t, ok)
	_, ok = terms["x"]
	assert.False(t, ok)
	assert.Len(t, terms, 1)
}

// =============================================================================
// INDEX TESTS
// =============================================================================

func TestIndex_SearchRanksByOverlap(t *testing.T) {
	ix := NewIndex()
	ix.Add("calculus.pdf", "A derivative measures instantaneous rate of change.")
	ix.Add("history.pdf", "The printing press changed Europe.")
	ix.Add("limits.pdf", "Limits underpin the derivative and instantaneous velocity.")

	hits := ix.Search("derivative instantaneous change", 4)
	require.Len(t, hits, 2)
	assert.Equal(t, "calculus.pdf", hits[0].Document)
	assert.Equal(t, 3, hits[0].Score)
	assert.Equal(t, "limits.pdf", hits[1].Document)
	assert.Equal(t, 2, hits[1].Score)
}

func TestIndex_SearchNoMatch(t *testing.T) {
	ix := NewIndex()
	ix.Add("calculus.pdf", "A derivative measures change.")
	assert.Empty(t, ix.Search("photosynthesis", 4))
}

func TestIndex_SearchScopedToNamedDocument(t *testing.T) {
	ix := NewIndex()
	ix.Add("notes.pdf", "Vectors have magnitude and direction.")
	ix.Add("other.pdf", "Please summarize everything about vectors.")

	hits := ix.Search("Please analyze and summarize the document: notes.pdf", 4)
	require.Len(t, hits, 1)
	assert.Equal(t, "notes.pdf", hits[0].Document)
	assert.Equal(t, "Vectors have magnitude and direction.", hits[0].Text)
}

func TestIndex_SearchLimitsToK(t *testing.T) {
	ix := NewIndex()
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		ix.Add(name, "matrix algebra")
	}
	assert.Len(t, ix.Search("matrix", 2), 2)
}

func TestIndex_AddReplacesAndRemove(t *testing.T) {
	ix := NewIndex()
	ix.Add("notes.pdf", "old content about gravity")
	ix.Add("notes.pdf", "new content about magnetism")

	assert.Equal(t, 1, ix.Len())
	assert.Empty(t, ix.Search("gravity", 4))
	assert.Len(t, ix.Search("magnetism", 4), 1)

	assert.True(t, ix.Remove("notes.pdf"))
	assert.False(t, ix.Remove("notes.pdf"))
	assert.Equal(t, 0, ix.Len())
}

func TestComposeAnswer(t *testing.T) {
	assert.Equal(t, NoPassagesText, ComposeAnswer(nil))

	answer := ComposeAnswer([]Passage{{Document: "notes.pdf", Text: "Vectors have direction."}})
	assert.Contains(t, answer, "**notes.pdf**")
	assert.Contains(t, answer, "> Vectors have direction.")
}

func TestExtractPDFText_Empty(t *testing.T) {
	text, err := ExtractPDFText(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractPDFText_NotAPDF(t *testing.T) {
	_, err := ExtractPDFText(strings.NewReader("plain text, not a pdf"))
	assert.Error(t, err)
}
