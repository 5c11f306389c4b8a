// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	require.NoError(t, AtomicWriteFile(path, []byte("hello"), 0644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "state.json")

	require.NoError(t, AtomicWriteFile(path, []byte("x"), 0644))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestAtomicWriteFile_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, AtomicWriteFile(path, []byte("first"), 0644))
	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "What is a derivative?", 30, "What is a derivative?"},
		{"exact", "abc", 3, "abc"},
		{"cut", "abcdef", 3, "abc..."},
		{"unicode", "héllo wörld", 5, "héllo..."},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateRunes(tt.in, tt.max))
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	assert.Equal(t, "hello", TruncateWidth("hello", 10))
	assert.Equal(t, "hello...", TruncateWidth("hello world", 8))
	assert.LessOrEqual(t, StringWidth(TruncateWidth("日本語のテキスト", 7)), 7)
}

func TestRuneIndexFold(t *testing.T) {
	assert.Equal(t, 0, RuneIndexFold("Derivative", "deriv"))
	assert.Equal(t, 8, RuneIndexFold("What is DERIVATIVE", "derivative"))
	assert.Equal(t, 2, RuneIndexFold("ÀÉxyz", "XY"))
	assert.Equal(t, -1, RuneIndexFold("calculus", "algebra"))
	assert.True(t, ContainsFold("Integral Calculus", "CALC"))
	assert.True(t, ContainsFold("Straße", "STRASSE"))
	assert.True(t, ContainsFold("ΟΔΥΣΣΕΥΣ", "οδυσσευς"))
}

func TestRuneSpanFold(t *testing.T) {
	tests := []struct {
		name      string
		s, substr string
		start     int
		end       int
	}{
		{"ascii", "What is DERIVATIVE", "derivative", 8, 18},
		{"expanding fold", "Die Straße ist lang", "STRASSE", 4, 10},
		{"decomposed text, composed query", "cafe\u0301 au lait", "CAFÉ", 0, 5},
		{"composed text, decomposed query", "Le café", "cafe\u0301", 3, 7},
		{"no match", "calculus", "algebra", -1, -1},
		{"empty query", "calculus", "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := RuneSpanFold(tt.s, tt.substr)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestSafeSubstring(t *testing.T) {
	assert.Equal(t, "bc", SafeSubstring("abcd", 1, 3))
	assert.Equal(t, "abcd", SafeSubstring("abcd", -5, 99))
	assert.Equal(t, "", SafeSubstring("abcd", 3, 1))
	assert.Equal(t, "ö", SafeSubstring("wörld", 1, 2))
}
