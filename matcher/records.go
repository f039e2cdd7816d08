package matcher

import (
	"github.com/giygas/nitrosamine-monitor/entities"
)

// Display fallbacks for cells a reference row does not provide.
const (
	UncheckedImpurity = "Check Row"
	NotAvailable      = "N/A"
	SeeRawData        = "See Raw Data"
)

// Product is a product entry prepared for matching.
type Product struct {
	Entry   entities.ProductEntry
	Tokens  []string
	pattern Pattern
}

// PrepareProducts tokenizes every entry once.
func PrepareProducts(products []entities.ProductEntry, stop StopWordSet) []Product {
	prepared := make([]Product, 0, len(products))
	for _, p := range products {
		tokens := CoreTokens(p.Name, stop)
		prepared = append(prepared, Product{
			Entry:   p,
			Tokens:  tokens,
			pattern: CompileTokens(tokens),
		})
	}
	return prepared
}

// NewRecord builds the record for a matched (product, row) pair.
func NewRecord(origin entities.Origin, product entities.ProductEntry, row entities.Row, updated string) entities.MatchRecord {
	return entities.MatchRecord{
		Status:         entities.StatusNone,
		Origin:         origin,
		Product:        product,
		ImpurityName:   row.Get(entities.ColumnNitrosamine).Or(UncheckedImpurity),
		IUPACName:      row.Get(entities.ColumnIUPAC).Or(NotAvailable),
		LimitValue:     row.Get(entities.ColumnLimit).Or(NotAvailable),
		Notes:          row.Get(entities.ColumnNotes).Or(NotAvailable),
		UpdatedDate:    updated,
		ReferenceValue: row.Get(entities.ColumnSource).Or(SeeRawData),
	}
}

// Join emits one record per (product, row) pair that matches, rows outermost.
func Join(origin entities.Origin, products []Product, table entities.ReferenceTable, updated string) []entities.MatchRecord {
	var records []entities.MatchRecord
	for _, row := range table.Rows {
		blob := RowText(row)
		for _, p := range products {
			if p.pattern.MatchText(blob) {
				records = append(records, NewRecord(origin, p.Entry, row, updated))
			}
		}
	}
	return records
}

// Dedupe drops records equal in every field to an earlier one.
func Dedupe(records []entities.MatchRecord) []entities.MatchRecord {
	seen := make(map[entities.MatchRecord]struct{}, len(records))
	out := make([]entities.MatchRecord, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
