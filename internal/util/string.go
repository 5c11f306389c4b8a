// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended by the truncation helpers when text is cut.
const Ellipsis = "..."

// TruncateRunes keeps the first maxRunes characters of s and appends
// Ellipsis when anything was cut. The ellipsis does not count towards
// maxRunes, so TruncateRunes("abcdef", 3) is "abc...".
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + Ellipsis
}

// TruncateWidth truncates s to at most maxWidth terminal columns, including
// the trailing ellipsis. Wide (CJK) characters count as two columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(Ellipsis) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// SafeSubstring returns runes [start, end) of s, clamping both bounds.
func SafeSubstring(s string, start, end int) string {
	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if end < 0 || end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

// RuneIndexFold reports the rune offset of the first case-insensitive
// occurrence of substr in s, or -1.
func RuneIndexFold(s, substr string) int {
	start, _ := RuneSpanFold(s, substr)
	return start
}

// RuneSpanFold reports the rune span [start, end) of s covered by the first
// case-insensitive occurrence of substr, or -1, -1. Both strings are
// NFC-normalized and Unicode case-folded before comparing, so "Straße"
// matches "STRASSE" and composed and decomposed accents match each other.
// The span refers to the original runes of s and may differ in length from
// substr.
func RuneSpanFold(s, substr string) (start, end int) {
	needle := foldText(substr).runes
	if len(needle) == 0 {
		return 0, 0
	}
	hay := foldText(s)
	for i := 0; i+len(needle) <= len(hay.runes); i++ {
		match := true
		for j := range needle {
			if hay.runes[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return hay.start[i], hay.end[i+len(needle)-1]
		}
	}
	return -1, -1
}

// ContainsFold reports whether substr occurs in s, ignoring case.
func ContainsFold(s, substr string) bool {
	return RuneIndexFold(s, substr) >= 0
}

// foldedText is the folded form of a string. start[i] and end[i] give the
// rune span of the original normalization segment that produced runes[i].
type foldedText struct {
	runes []rune
	start []int
	end   []int
}

func foldText(s string) foldedText {
	var ft foldedText
	caser := cases.Fold()
	offset := 0
	for len(s) > 0 {
		n := norm.NFC.NextBoundaryInString(s, true)
		if n <= 0 {
			n = len(s)
		}
		segment := s[:n]
		s = s[n:]

		width := utf8.RuneCountInString(segment)
		folded := norm.NFC.String(caser.String(norm.NFC.String(segment)))
		for _, r := range folded {
			ft.runes = append(ft.runes, r)
			ft.start = append(ft.start, offset)
			ft.end = append(ft.end, offset+width)
		}
		offset += width
	}
	return ft
}
