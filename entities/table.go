package entities

import "sort"

// Column is one of the canonical reference-table column names.
type Column string

const (
	ColumnNitrosamine Column = "Nitrosamine"
	ColumnLimit       Column = "Limit"
	ColumnIUPAC       Column = "IUPAC"
	ColumnSource      Column = "Source"
	ColumnNotes       Column = "Notes"
)

// CanonicalColumns lists the canonical schema in display order.
var CanonicalColumns = []Column{
	ColumnNitrosamine,
	ColumnLimit,
	ColumnIUPAC,
	ColumnSource,
	ColumnNotes,
}

// Cell is a table value that may be explicitly missing.
type Cell struct {
	Value string `json:"value"`
	Valid bool   `json:"valid"`
}

// Text returns a present cell.
func Text(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// Missing returns the explicit missing-value marker.
func Missing() Cell {
	return Cell{}
}

// Or returns the cell value, or fallback when the cell is missing.
func (c Cell) Or(fallback string) string {
	if !c.Valid {
		return fallback
	}
	return c.Value
}

// Row maps a column name to its cell. Normalized rows always hold every
// canonical column; other columns of the source table are kept alongside.
type Row map[string]Cell

// Get returns the cell for a canonical column.
func (r Row) Get(c Column) Cell {
	return r[string(c)]
}

// Keys returns the row's column names in a stable order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RawTable is an unstructured grid of cells. Header is empty when the
// header row position is not yet known.
type RawTable struct {
	Name   string   `json:"name"`
	Header []string `json:"header,omitempty"`
	Rows   [][]Cell `json:"rows"`
}

// ReferenceTable is a normalized regulatory table. Columns keeps the merged
// column order (canonical columns first) for export.
type ReferenceTable struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (t ReferenceTable) Len() int {
	return len(t.Rows)
}
