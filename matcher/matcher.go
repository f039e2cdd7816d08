package matcher

import (
	"regexp"
	"strings"

	"github.com/giygas/nitrosamine-monitor/entities"
)

// nonWord is a character outside words; letters of any script count as word
// characters, unlike the ASCII-only \b.
const nonWord = `[^\p{L}\p{M}\p{N}_]`

// Pattern finds any of a product's core tokens as a whole word.
// The zero Pattern matches nothing.
type Pattern struct {
	re *regexp.Regexp
}

// CompileTokens builds the word-boundary pattern for a token set.
func CompileTokens(tokens []string) Pattern {
	if len(tokens) == 0 {
		return Pattern{}
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return Pattern{re: regexp.MustCompile(`(?:^|` + nonWord + `)(?:` + strings.Join(quoted, "|") + `)(?:$|` + nonWord + `)`)}
}

// MatchText reports whether an uppercase text blob contains a token.
func (p Pattern) MatchText(blob string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(blob)
}

// MatchRow reports whether the row contains a token.
func (p Pattern) MatchRow(row entities.Row) bool {
	return p.MatchText(RowText(row))
}

// RowText joins the row's present cells into one uppercase blob.
func RowText(row entities.Row) string {
	parts := make([]string, 0, len(row))
	for _, k := range row.Keys() {
		if c := row[k]; c.Valid {
			parts = append(parts, strings.ToUpper(c.Value))
		}
	}
	return strings.Join(parts, " ")
}

// Matches reports whether any core token appears as a whole word in the row.
// A token embedded in a longer word ("AMIDE" in "FORMAMIDE") does not count.
func Matches(tokens []string, row entities.Row) bool {
	return CompileTokens(tokens).MatchRow(row)
}
