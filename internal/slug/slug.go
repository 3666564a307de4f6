// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps generated slugs. Longer results are cut at the last
// hyphen that fits.
const MaxLength = 200

var (
	// wellFormed matches lowercase alphanumeric words joined by single hyphens.
	wellFormed = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	// ligatures maps letters that do not decompose under NFD to ASCII.
	ligatures = strings.NewReplacer(
		"ß", "ss", "æ", "ae", "Æ", "ae", "œ", "oe", "Œ", "oe",
		"ø", "o", "Ø", "o", "đ", "d", "Đ", "d", "ł", "l", "Ł", "l",
		"þ", "th", "Þ", "th",
	)
)

// Generate creates a URL-friendly slug from the given string.
// Diacritics are stripped, and every run of characters outside [a-z0-9]
// becomes a single hyphen.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	folded := fold(ligatures.Replace(s))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return truncate(b.String())
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return len(s) <= MaxLength && wellFormed.MatchString(s)
}

// WithSuffix appends a numeric disambiguator, keeping the result within MaxLength.
// Example: WithSuffix("hello-world", 2) → "hello-world-2"
func WithSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > MaxLength {
		base = strings.TrimRight(base[:MaxLength-len(suffix)], "-")
	}
	return base + suffix
}

// fold removes combining marks after canonical decomposition ("é" → "e").
// A fresh transformer is built per call because chains keep internal state.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func truncate(s string) string {
	if len(s) <= MaxLength {
		return s
	}
	cut := s[:MaxLength]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		cut = cut[:i]
	}
	return strings.Trim(cut, "-")
}
