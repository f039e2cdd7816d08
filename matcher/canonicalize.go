// Package matcher screens a product list against normalized reference tables.
// It reduces product names to discriminating tokens, finds them as whole words
// in reference rows, and flags matches that were absent from a previous run.
package matcher

import (
	"regexp"
	"strings"
)

var (
	parentheticalPattern = regexp.MustCompile(`\s*\(.*?\)`)

	glyphReplacer = strings.NewReplacer("®", "", "™", "", "*", "")
)

// Canonicalize cleans a raw extracted label into a product name: parenthesized
// notes, trademark glyphs and asterisks are removed and the result is trimmed.
func Canonicalize(raw string) string {
	name := parentheticalPattern.ReplaceAllString(raw, "")
	name = glyphReplacer.Replace(name)
	return strings.TrimSpace(name)
}
