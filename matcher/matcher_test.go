package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/nitrosamine-monitor/entities"
)

func refRow(values map[entities.Column]string) entities.Row {
	row := entities.Row{}
	for _, c := range entities.CanonicalColumns {
		row[string(c)] = entities.Missing()
	}
	for c, v := range values {
		row[string(c)] = entities.Text(v)
	}
	return row
}

func TestMatchesWholeWordsOnly(t *testing.T) {
	row := refRow(map[entities.Column]string{entities.ColumnNitrosamine: "FORMAMIDE COMPOUND"})
	assert.False(t, Matches([]string{"AMIDE"}, row))
	assert.True(t, Matches([]string{"FORMAMIDE"}, row))
}

func TestMatchesAccentedWordEdges(t *testing.T) {
	row := refRow(map[entities.Column]string{entities.ColumnSource: "Éthinylestradiol tablets"})
	tokens := CoreTokens("Éthinylestradiol", StopWords)
	require.Equal(t, []string{"ÉTHINYLESTRADIOL"}, tokens)
	assert.True(t, Matches(tokens, row))

	assert.True(t, Matches([]string{"ACIDE VALPROÏQUE"}, refRow(map[entities.Column]string{
		entities.ColumnSource: "(acide valproïque)",
	})))
	assert.True(t, Matches([]string{"ŁÓDŹ"}, refRow(map[entities.Column]string{entities.ColumnNotes: "ŁÓDŹ"})))
	assert.False(t, Matches([]string{"THINYLESTRADIOL"}, row))
	assert.False(t, Matches([]string{"ÉTHINYL"}, row))
}

func TestMatchesCaseInsensitiveOnRowText(t *testing.T) {
	row := refRow(map[entities.Column]string{
		entities.ColumnNitrosamine: "N-nitroso-drugname",
		entities.ColumnLimit:       "26.5 ng/day",
	})
	assert.True(t, Matches([]string{"DRUGNAME"}, row))
	assert.False(t, Matches(nil, row))
}

func TestMatchesExtraColumns(t *testing.T) {
	row := refRow(nil)
	row["Drug products"] = entities.Text("Valsartan tablets")
	assert.True(t, Matches([]string{"VALSARTAN"}, row))
}

func TestJoinProducesRecordsWithFallbacks(t *testing.T) {
	products := PrepareProducts([]entities.ProductEntry{
		{Name: "Drugname Hydrochloride", TrackingID: "SPT-001"},
		{Name: "Compound 4", TrackingID: "SPT-002"},
		{Name: "Otherdrug", TrackingID: entities.NoTrackingID},
	}, StopWords)

	table := entities.ReferenceTable{Rows: []entities.Row{
		refRow(map[entities.Column]string{
			entities.ColumnNitrosamine: "N-nitroso-drugname",
			entities.ColumnLimit:       "26.5",
		}),
		refRow(map[entities.Column]string{entities.ColumnSource: "unrelated compound"}),
	}}

	records := Join(entities.OriginFDA, products, table, "01/02/2024")
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, entities.OriginFDA, r.Origin)
	assert.Equal(t, "SPT-001", r.Product.TrackingID)
	assert.Equal(t, "N-nitroso-drugname", r.ImpurityName)
	assert.Equal(t, "26.5", r.LimitValue)
	assert.Equal(t, NotAvailable, r.IUPACName)
	assert.Equal(t, NotAvailable, r.Notes)
	assert.Equal(t, SeeRawData, r.ReferenceValue)
	assert.Equal(t, "01/02/2024", r.UpdatedDate)
	assert.Equal(t, entities.StatusNone, r.Status)
}

func TestNewRecordUncheckedImpurity(t *testing.T) {
	r := NewRecord(entities.OriginEMA, entities.ProductEntry{Name: "X"}, refRow(nil), "N/A")
	assert.Equal(t, UncheckedImpurity, r.ImpurityName)
}

func TestDedupe(t *testing.T) {
	a := entities.MatchRecord{Origin: entities.OriginFDA, ImpurityName: "NDMA", Product: entities.ProductEntry{Name: "A"}}
	b := a
	b.LimitValue = "96"
	got := Dedupe([]entities.MatchRecord{a, b, a, b})
	assert.Equal(t, []entities.MatchRecord{a, b}, got)
	assert.Equal(t, got, Dedupe(got))
}
