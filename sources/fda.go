package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/giygas/nitrosamine-monitor/entities"
)

// DefaultFDAURL is the CDER nitrosamine acceptable-intake guidance page.
const DefaultFDAURL = "https://www.fda.gov/regulatory-information/search-fda-guidance-documents/cder-nitrosamine-impurity-acceptable-intake-limits"

// FDA reads the guidance page tables.
type FDA struct {
	fetcher *Fetcher
	url     string
}

// NewFDA returns the FDA source reading url.
func NewFDA(f *Fetcher, url string) *FDA {
	if url == "" {
		url = DefaultFDAURL
	}
	return &FDA{fetcher: f, url: url}
}

// Origin implements the reference source contract.
func (s *FDA) Origin() entities.Origin { return entities.OriginFDA }

// Fetch downloads and parses the page.
func (s *FDA) Fetch(ctx context.Context) (SourceData, error) {
	doc, err := s.fetcher.Get(ctx, string(entities.OriginFDA), s.url)
	if err != nil {
		return SourceData{Origin: entities.OriginFDA, URL: s.url, Updated: NoDate}, err
	}
	if !looksLikeHTML(doc) {
		return SourceData{Origin: entities.OriginFDA, URL: s.url, Updated: NoDate},
			newError(FormatFailure, string(entities.OriginFDA), "fetch", fmt.Errorf("expected an HTML page, got %q", doc.ContentType))
	}
	data, err := ParseFDAPage(doc.Body)
	data.URL = s.url
	return data, err
}

// ParseFDAPage extracts the update date and candidate tables of the page.
// Embedded JSON tables come first, then HTML tables, in discovery order.
func ParseFDAPage(page []byte) (SourceData, error) {
	data := SourceData{Origin: entities.OriginFDA, Updated: NoDate}

	text, err := DecodeText(page)
	if err != nil {
		return data, newError(FormatFailure, string(data.Origin), "decode", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(text))
	if err != nil {
		return data, newError(FormatFailure, string(data.Origin), "parse", err)
	}

	data.Updated = FDAUpdatedDate(doc)
	if data.Updated == NoDate {
		data.Notes = append(data.Notes, "FDA updated date not found")
	} else {
		data.Notes = append(data.Notes, "FDA updated date: "+data.Updated)
	}

	jsonTables, notes := JSONDataTables(text)
	data.Tables = append(data.Tables, jsonTables...)
	data.Notes = append(data.Notes, notes...)

	htmlTables, notes := HTMLTables(doc)
	data.Tables = append(data.Tables, htmlTables...)
	data.Notes = append(data.Notes, notes...)

	if len(data.Tables) == 0 {
		return data, newError(ParseFailure, string(data.Origin), "parse", fmt.Errorf("no tables found"))
	}
	return data, nil
}

func looksLikeHTML(doc *Document) bool {
	ct := strings.ToLower(doc.ContentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xml") {
		return true
	}
	if ct != "" && !strings.HasPrefix(ct, "text/") {
		return false
	}
	return bytes.Contains(bytes.ToLower(doc.Body[:min(len(doc.Body), 1024)]), []byte("<"))
}
