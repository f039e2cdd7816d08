// Package normalizer maps heterogeneous regulatory tables onto the canonical
// reference schema. Header rows are located by keyword scoring when unknown,
// column names are de-duplicated, and columns are renamed by an ordered rule
// table.
package normalizer

import (
	"strings"

	"github.com/giygas/nitrosamine-monitor/entities"
)

// Rule renames a source column to a canonical column when its lowercased
// name contains one of Keywords, or equals one when Exact is set.
type Rule struct {
	Keywords []string
	Exact    bool
	Column   entities.Column
}

// Match reports whether the lowercased column name satisfies the rule.
func (r Rule) Match(lowerName string) bool {
	for _, k := range r.Keywords {
		if r.Exact && lowerName == k {
			return true
		}
		if !r.Exact && strings.Contains(lowerName, k) {
			return true
		}
	}
	return false
}

// DefaultRules is the column policy, evaluated in priority order.
var DefaultRules = []Rule{
	{Keywords: []string{"nitrosamine", "impurity"}, Column: entities.ColumnNitrosamine},
	{Keywords: []string{"limit", "ai", "intake"}, Column: entities.ColumnLimit},
	{Keywords: []string{"note", "comment", "remark"}, Column: entities.ColumnNotes},
	{Keywords: []string{"source", "drug", "product", "api"}, Column: entities.ColumnSource},
	{Keywords: []string{"iupac", "chemical"}, Column: entities.ColumnIUPAC},
}

// Classify returns the canonical column for a source column name.
func Classify(name string, rules []Rule) (entities.Column, bool) {
	lower := strings.ToLower(name)
	for _, r := range rules {
		if r.Match(lower) {
			return r.Column, true
		}
	}
	return "", false
}

// MapColumns assigns canonical columns to header names. The first header
// claiming a canonical column keeps it; later claimants stay unmapped.
// hasNitrosamine reports whether the table looks like a nitrosamine table.
func MapColumns(header []string, rules []Rule) (mapping map[string]entities.Column, hasNitrosamine bool) {
	mapping = make(map[string]entities.Column)
	claimed := make(map[entities.Column]bool)
	for _, name := range header {
		col, ok := Classify(name, rules)
		if !ok || claimed[col] {
			continue
		}
		claimed[col] = true
		mapping[name] = col
		if col == entities.ColumnNitrosamine {
			hasNitrosamine = true
		}
	}
	return mapping, hasNitrosamine
}

// Key is one keyword of a column preference.
type Key struct {
	Word  string
	Exact bool
}

func (k Key) match(lowerName string) bool {
	if k.Exact {
		return lowerName == k.Word
	}
	return strings.Contains(lowerName, k.Word)
}

// Preference picks the header for one canonical column. Keys are tried in
// order, each against every header, so an earlier key beats an earlier
// header.
type Preference struct {
	Column entities.Column
	Keys   []Key
}

// SelectColumns assigns canonical columns by preference. Preferences are
// resolved in order and a header serves at most one canonical column.
func SelectColumns(header []string, prefs []Preference) (mapping map[string]entities.Column, hasNitrosamine bool) {
	mapping = make(map[string]entities.Column)
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(h)
	}
	for _, p := range prefs {
	keys:
		for _, k := range p.Keys {
			for i, name := range header {
				if _, taken := mapping[name]; taken || !k.match(lower[i]) {
					continue
				}
				mapping[name] = p.Column
				if p.Column == entities.ColumnNitrosamine {
					hasNitrosamine = true
				}
				break keys
			}
		}
	}
	return mapping, hasNitrosamine
}
