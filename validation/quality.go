package validation

import (
	"strings"

	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/logging"
)

// TableQualityReport summarizes gaps in a normalized reference table.
type TableQualityReport struct {
	Origin             entities.Origin `json:"origin"`
	Rows               int             `json:"rows"`
	MissingNitrosamine int             `json:"missing_nitrosamine"`
	MissingLimit       int             `json:"missing_limit"`
	DuplicateRows      int             `json:"duplicate_rows"`
	// EmptyColumns lists canonical columns with no value in any row.
	EmptyColumns []string `json:"empty_columns,omitempty"`
}

// ReportTableQuality inspects a reference table and logs what it finds.
func ReportTableQuality(origin entities.Origin, t entities.ReferenceTable) TableQualityReport {
	report := TableQualityReport{Origin: origin, Rows: t.Len()}

	filled := make(map[entities.Column]bool, len(entities.CanonicalColumns))
	seen := make(map[string]struct{}, t.Len())
	for _, row := range t.Rows {
		if !present(row.Get(entities.ColumnNitrosamine)) {
			report.MissingNitrosamine++
		}
		if !present(row.Get(entities.ColumnLimit)) {
			report.MissingLimit++
		}
		for _, c := range entities.CanonicalColumns {
			if present(row.Get(c)) {
				filled[c] = true
			}
		}

		key := rowKey(row)
		if _, dup := seen[key]; dup {
			report.DuplicateRows++
		}
		seen[key] = struct{}{}
	}
	for _, c := range entities.CanonicalColumns {
		if !filled[c] {
			report.EmptyColumns = append(report.EmptyColumns, string(c))
		}
	}

	if report.Rows > 0 && (report.MissingNitrosamine > 0 || len(report.EmptyColumns) > 0) {
		logging.Warn("Reference table has gaps",
			"origin", origin,
			"rows", report.Rows,
			"missing_nitrosamine", report.MissingNitrosamine,
			"missing_limit", report.MissingLimit,
			"empty_columns", report.EmptyColumns,
		)
	}
	if report.DuplicateRows > 0 {
		logging.Debug("Reference table has duplicate rows", "origin", origin, "count", report.DuplicateRows)
	}
	return report
}

func present(c entities.Cell) bool {
	return c.Valid && strings.TrimSpace(c.Value) != ""
}

func rowKey(row entities.Row) string {
	var b strings.Builder
	for _, k := range row.Keys() {
		c := row[k]
		b.WriteString(k)
		b.WriteByte('=')
		if c.Valid {
			b.WriteString(c.Value)
		}
		b.WriteByte(0)
	}
	return b.String()
}
