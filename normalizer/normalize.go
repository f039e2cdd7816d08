package normalizer

import (
	"fmt"

	"github.com/giygas/nitrosamine-monitor/entities"
)

// Profile describes how one source's candidate tables are normalized.
type Profile struct {
	Name string
	// Rules is the column policy; nil means DefaultRules.
	Rules []Rule
	// Preferences, when set, replaces Rules with per-column preference lists.
	Preferences []Preference
	// HeaderKeywords scores header rows of tables whose header is unknown;
	// nil means HeaderKeywords.
	HeaderKeywords []string
	// ScanRows bounds header scoring; zero means DefaultScanRows.
	ScanRows int
	// MinRows skips header-less tables that score zero and are shorter.
	MinRows int
	// MaxTables keeps only the first accepted tables; zero keeps all.
	MaxTables int
}

// Result is a normalized source plus the accepted tables as found.
type Result struct {
	Table entities.ReferenceTable
	Raw   entities.RawTable
	// Accepted and Rejected count candidate tables.
	Accepted int
	Rejected int
	Notes    []string
}

// Normalize merges the candidate tables of one source into a reference table.
// Every returned row holds all canonical columns; missing data is explicit.
func Normalize(tables []entities.RawTable, p Profile) Result {
	rules := p.Rules
	if rules == nil {
		rules = DefaultRules
	}
	keywords := p.HeaderKeywords
	if keywords == nil {
		keywords = HeaderKeywords
	}
	scan := p.ScanRows
	if scan == 0 {
		scan = DefaultScanRows
	}

	var res Result
	merged := newColumnSet()
	rawMerged := newColumnSet()
	var blocks []rawBlock
	for _, c := range entities.CanonicalColumns {
		merged.add(string(c))
	}

	for _, t := range tables {
		if p.MaxTables > 0 && res.Accepted >= p.MaxTables {
			res.Notes = append(res.Notes, fmt.Sprintf("%s: keeping the first %d tables, ignoring the rest", p.Name, p.MaxTables))
			break
		}

		header, body := t.Header, t.Rows
		if len(header) == 0 {
			idx, score := FindHeaderRow(t.Rows, keywords, scan)
			if score == 0 && len(t.Rows) < p.MinRows {
				res.Rejected++
				res.Notes = append(res.Notes, fmt.Sprintf("%s: skipping small table %q without header", p.Name, t.Name))
				continue
			}
			if len(t.Rows) == 0 {
				res.Rejected++
				res.Notes = append(res.Notes, fmt.Sprintf("%s: skipping empty table %q", p.Name, t.Name))
				continue
			}
			header, body = HeaderFromCells(t.Rows[idx]), t.Rows[idx+1:]
		}
		header = DedupeHeaders(header)

		var mapping map[string]entities.Column
		var ok bool
		if len(p.Preferences) > 0 {
			mapping, ok = SelectColumns(header, p.Preferences)
		} else {
			mapping, ok = MapColumns(header, rules)
		}
		if !ok {
			res.Rejected++
			res.Notes = append(res.Notes, fmt.Sprintf("%s: table %q has no nitrosamine column", p.Name, t.Name))
			continue
		}
		res.Accepted++

		for _, h := range header {
			rawMerged.add(h)
			if _, mapped := mapping[h]; !mapped && !isCanonical(h) {
				merged.add(h)
			}
		}

		block := rawBlock{header: header}
		for _, cells := range body {
			cells = RepairRow(cells, len(header))
			if blankRow(cells) {
				continue
			}
			res.Table.Rows = append(res.Table.Rows, toRow(header, cells, mapping))
			block.rows = append(block.rows, cells)
		}
		blocks = append(blocks, block)
		res.Notes = append(res.Notes, fmt.Sprintf("%s: table %q normalized with %d rows", p.Name, t.Name, len(block.rows)))
	}

	res.Table.Columns = merged.names
	res.Raw = alignRaw(p.Name, blocks, rawMerged.names)
	return res
}

func toRow(header []string, cells []entities.Cell, mapping map[string]entities.Column) entities.Row {
	row := make(entities.Row, len(header)+len(entities.CanonicalColumns))
	for _, c := range entities.CanonicalColumns {
		row[string(c)] = entities.Missing()
	}
	for i, name := range header {
		if col, ok := mapping[name]; ok {
			row[string(col)] = cells[i]
			continue
		}
		if isCanonical(name) {
			continue
		}
		row[name] = cells[i]
	}
	return row
}

func isCanonical(name string) bool {
	for _, c := range entities.CanonicalColumns {
		if string(c) == name {
			return true
		}
	}
	return false
}
