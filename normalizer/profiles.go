package normalizer

import "github.com/giygas/nitrosamine-monitor/entities"

// emaPreferences follows the workbook conventions: a bare "name" column
// holds the nitrosamine, "AI (ng/day)" is the limit, and the reference value
// falls back to the substance column when there is no source.
var emaPreferences = []Preference{
	{Column: entities.ColumnNitrosamine, Keys: []Key{{Word: "name", Exact: true}, {Word: "nitrosamine"}, {Word: "impurity"}}},
	{Column: entities.ColumnLimit, Keys: []Key{{Word: "ai (ng/day)"}, {Word: "limit"}, {Word: "intake"}, {Word: "ai"}}},
	{Column: entities.ColumnSource, Keys: []Key{{Word: "source"}, {Word: "substance"}, {Word: "api"}, {Word: "product"}, {Word: "active"}}},
	{Column: entities.ColumnNotes, Keys: []Key{{Word: "note"}, {Word: "comment"}, {Word: "remark"}}},
	{Column: entities.ColumnIUPAC, Keys: []Key{{Word: "iupac"}, {Word: "chemical name"}}},
}

// FDAProfile normalizes the guidance page tables. The authoritative list is
// paginated across two consecutive tables.
var FDAProfile = Profile{
	Name:      string(entities.OriginFDA),
	Rules:     DefaultRules,
	MaxTables: 2,
}

// EMAProfile normalizes every sheet of the limits workbook.
var EMAProfile = Profile{
	Name:           string(entities.OriginEMA),
	Preferences:    emaPreferences,
	HeaderKeywords: HeaderKeywords,
	ScanRows:       DefaultScanRows,
	MinRows:        5,
}

// ProfileFor returns the profile for a reference origin.
func ProfileFor(o entities.Origin) Profile {
	if o == entities.OriginEMA {
		return EMAProfile
	}
	return FDAProfile
}
