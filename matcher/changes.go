package matcher

import (
	"sort"
	"strings"

	"github.com/giygas/nitrosamine-monitor/entities"
)

// Fingerprint is the cross-run identity of a match record.
func Fingerprint(r entities.MatchRecord) string {
	key := r.Product.TrackingID
	if !r.Product.HasTrackingID() {
		key = r.Product.Name
	}
	return fingerprintKey(key) + "|" + fingerprintKey(r.ImpurityName)
}

func fingerprintKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Annotate marks every current record whose fingerprint is absent from
// previous as NEW, then orders NEW records first and by product name.
// A record whose values changed under an unchanged fingerprint stays unmarked.
func Annotate(current, previous []entities.MatchRecord) []entities.MatchRecord {
	known := make(map[string]struct{}, len(previous))
	for _, r := range previous {
		known[Fingerprint(r)] = struct{}{}
	}

	for i := range current {
		if _, ok := known[Fingerprint(current[i])]; ok {
			current[i].Status = entities.StatusNone
		} else {
			current[i].Status = entities.StatusNew
		}
	}

	SortRecords(current)
	return current
}

// SortRecords orders NEW records first, then by product name.
func SortRecords(records []entities.MatchRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ni := records[i].Status == entities.StatusNew
		nj := records[j].Status == entities.StatusNew
		if ni != nj {
			return ni
		}
		return records[i].Product.Name < records[j].Product.Name
	})
}
