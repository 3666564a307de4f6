// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content derives reading metadata from a post body: word count,
// estimated reading time, and a short excerpt for listings.
package content

import (
	"strings"
	"unicode/utf8"
)

const (
	// WordsPerMinute is the reading speed used for reading-time estimates.
	WordsPerMinute = 200

	// MaxExcerptLen is the maximum excerpt length in characters.
	MaxExcerptLen = 300
)

// WordCount returns the number of whitespace-delimited tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadingTime estimates minutes to read text, rounded up and never below 1.
// Example: 250 words → 2 minutes.
func ReadingTime(text string) int {
	words := WordCount(text)
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Excerpt returns the first MaxExcerptLen characters of text verbatim.
// The cut may land mid-word; it never splits a multi-byte character.
func Excerpt(text string) string {
	if utf8.RuneCountInString(text) <= MaxExcerptLen {
		return text
	}
	n := 0
	for i := range text {
		if n == MaxExcerptLen {
			return text[:i]
		}
		n++
	}
	return text
}
