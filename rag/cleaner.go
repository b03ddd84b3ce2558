package rag

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// \s alone is ASCII-only in RE2
	whitespaceRun = regexp.MustCompile(`[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`)
	// everything except a-z, 0-9, whitespace and . , ? ! '
	disallowedChars = regexp.MustCompile(`[^a-z0-9\s.,?!']`)
)

// Cleaner lowercases and normalises extracted text.
type Cleaner struct {
	RemoveSpecialChars bool
}

func NewCleaner(removeSpecialChars bool) *Cleaner {
	return &Cleaner{RemoveSpecialChars: removeSpecialChars}
}

// Clean lowercases text, collapses whitespace and, if enabled, strips every
// character outside the allow-list.
func (c *Cleaner) Clean(text string) string {
	text = cases.Lower(language.Und).String(text)
	text = NormalizeWhitespace(text)
	if c.RemoveSpecialChars {
		text = disallowedChars.ReplaceAllString(text, "")
	}
	return text
}

// NormalizeWhitespace replaces each run of whitespace with a single space and
// trims both ends.
func NormalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
