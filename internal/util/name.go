// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Matches runs of whitespace, including tabs and newlines.
var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeTagName converts user input to the canonical stored form of a tag name.
// The canonical name is what (owner_id, name) uniqueness is checked against.
//
// Normalization rules:
//  1. Unicode NFC composition, so "é" typed two ways is one name
//  2. Trim surrounding whitespace
//  3. Collapse inner whitespace runs to a single space
//
// Case is preserved: "Work" and "work" are different tags.
//
// Examples:
//
//	"  work  "         → "work"
//	"road\t trip"      → "road trip"
//	"cafe\u0301"      → "caf\u00e9"
func NormalizeTagName(input string) string {
	s := norm.NFC.String(input)
	s = strings.TrimSpace(s)
	return whitespaceRe.ReplaceAllString(s, " ")
}

// NameLength returns the length of a name in runes.
func NameLength(name string) int {
	return utf8.RuneCountInString(name)
}
