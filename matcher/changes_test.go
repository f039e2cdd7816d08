package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/nitrosamine-monitor/entities"
)

func record(product, tracking, impurity string) entities.MatchRecord {
	return entities.MatchRecord{
		Origin:       entities.OriginFDA,
		Product:      entities.ProductEntry{Name: product, TrackingID: tracking},
		ImpurityName: impurity,
	}
}

func TestFingerprintNormalizesCaseAndWhitespace(t *testing.T) {
	assert.Equal(t,
		Fingerprint(record("x", "abc-1 ", "ndma")),
		Fingerprint(record("y", "ABC-1", " NDMA")),
	)
}

func TestFingerprintFallsBackToProductName(t *testing.T) {
	a := record("Drugname", entities.NoTrackingID, "NDMA")
	b := record("drugname ", "", "ndma")
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(record("Other", "N/A", "NDMA")))
}

func TestAnnotate(t *testing.T) {
	previous := []entities.MatchRecord{record("Beta", "SPT-2", "NDMA")}
	current := []entities.MatchRecord{
		record("Beta", "spt-2", "ndma"),
		record("Gamma", "SPT-3", "NDEA"),
		record("Alpha", "SPT-1", "NDEA"),
	}
	current[0].LimitValue = "changed"

	got := Annotate(current, previous)
	require.Len(t, got, 3)
	assert.Equal(t, "Alpha", got[0].Product.Name)
	assert.Equal(t, entities.StatusNew, got[0].Status)
	assert.Equal(t, "Gamma", got[1].Product.Name)
	assert.Equal(t, entities.StatusNew, got[1].Status)
	assert.Equal(t, "Beta", got[2].Product.Name)
	assert.Equal(t, entities.StatusNone, got[2].Status, "value changes under a known fingerprint are not flagged")
}

func TestAnnotateEmptyPreviousMarksAllNew(t *testing.T) {
	got := Annotate([]entities.MatchRecord{record("A", "1", "X")}, nil)
	assert.Equal(t, entities.StatusNew, got[0].Status)
}

func TestSortRecordsStable(t *testing.T) {
	recs := []entities.MatchRecord{
		record("B", "1", "second"),
		record("A", "2", "x"),
		record("B", "3", "first-after"),
	}
	SortRecords(recs)
	assert.Equal(t, "A", recs[0].Product.Name)
	assert.Equal(t, "second", recs[1].ImpurityName)
	assert.Equal(t, "first-after", recs[2].ImpurityName)
}
