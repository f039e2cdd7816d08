package sources

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/matcher"
)

// ProductList is an ingested product list with its ingestion notes.
type ProductList struct {
	Entries []entities.ProductEntry `json:"entries"`
	Origin  string                  `json:"origin"`
	Notes   []string                `json:"notes,omitempty"`
}

// productSet keeps the first entry per canonical name.
type productSet struct {
	byName map[string]entities.ProductEntry
	order  []string
}

func newProductSet() *productSet {
	return &productSet{byName: make(map[string]entities.ProductEntry)}
}

// add stores the entry unless the name is already known. Names must be
// canonical and longer than two characters.
func (s *productSet) add(name, tracking string) bool {
	if utf8.RuneCountInString(name) <= 2 {
		return false
	}
	if _, ok := s.byName[name]; ok {
		return false
	}
	if strings.TrimSpace(tracking) == "" {
		tracking = entities.NoTrackingID
	}
	s.byName[name] = entities.ProductEntry{Name: name, TrackingID: tracking}
	s.order = append(s.order, name)
	return true
}

func (s *productSet) len() int { return len(s.order) }

// sorted returns the entries ordered by name.
func (s *productSet) sorted() []entities.ProductEntry {
	out := make([]entities.ProductEntry, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.byName[n])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var (
	boilerplateWords = []string{
		"api name", "regulatory", "therapeutic", "page", "scinopharm",
		"download", "date", "status", "product",
	}
	hasLetter       = regexp.MustCompile(`[a-zA-Z]`)
	genericCompound = regexp.MustCompile(`^[a-z0-9\s\-.]*$`)
)

// IsValidProductName rejects table headers and page boilerplate picked up
// while scraping the product PDF.
func IsValidProductName(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range boilerplateWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return utf8.RuneCountInString(lower) >= 3 && hasLetter.MatchString(lower)
}

// isGenericCompound reports names like "Compound 12-B" that carry no API name.
func isGenericCompound(name string) bool {
	lower := strings.ToLower(name)
	if !strings.Contains(lower, "compound") {
		return false
	}
	rest := strings.TrimSpace(strings.ReplaceAll(lower, "compound", ""))
	return genericCompound.MatchString(rest)
}

// canonicalName is shared by both ingestion paths.
func canonicalName(raw string) string {
	return matcher.Canonicalize(raw)
}
