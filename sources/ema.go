package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/logging"
)

// DefaultEMAURL is the nitrosamine guidance page for marketing authorisation holders.
const DefaultEMAURL = "https://www.ema.europa.eu/en/human-regulatory-overview/post-authorisation/pharmacovigilance-post-authorisation/referral-procedures-human-medicines/nitrosamine-impurities/nitrosamine-impurities-guidance-marketing-authorisation-holders"

// EMA reads the limits workbook linked from the guidance page.
type EMA struct {
	fetcher *Fetcher
	url     string
}

// NewEMA returns the EMA source reading url.
func NewEMA(f *Fetcher, url string) *EMA {
	if url == "" {
		url = DefaultEMAURL
	}
	return &EMA{fetcher: f, url: url}
}

// Origin implements the reference source contract.
func (s *EMA) Origin() entities.Origin { return entities.OriginEMA }

// Fetch downloads the page, follows the workbook link and reads every sheet
// as a header-less grid.
func (s *EMA) Fetch(ctx context.Context) (SourceData, error) {
	const source = string(entities.OriginEMA)
	data := SourceData{Origin: entities.OriginEMA, URL: s.url, Updated: NoDate}

	page, err := s.fetcher.Get(ctx, source, s.url)
	if err != nil {
		return data, err
	}
	text, err := DecodeText(page.Body)
	if err != nil {
		return data, newError(FormatFailure, source, "decode", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(text))
	if err != nil {
		return data, newError(FormatFailure, source, "parse", err)
	}

	data.Updated = EMAUpdatedDate(doc)
	if data.Updated == NoDate {
		data.Notes = append(data.Notes, "EMA updated date not found")
	} else {
		data.Notes = append(data.Notes, "EMA updated date: "+data.Updated)
	}

	link, err := WorkbookLink(doc, page.URL)
	if err != nil {
		return data, newError(ParseFailure, source, "link", err)
	}
	data.Notes = append(data.Notes, "EMA workbook: "+link)

	book, err := s.fetcher.Get(ctx, source, link)
	if err != nil {
		return data, err
	}
	tables, err := WorkbookTables(book.Body)
	if err != nil {
		return data, newError(FormatFailure, source, "workbook", err)
	}
	for _, t := range tables {
		data.Notes = append(data.Notes, fmt.Sprintf("EMA sheet %q read with %d rows", t.Name, len(t.Rows)))
	}
	data.Tables = tables
	return data, nil
}

// WorkbookLink picks the first .xlsx anchor whose text mentions an appendix
// or limits, else the first .xlsx anchor, resolved against base.
func WorkbookLink(doc *goquery.Document, base string) (string, error) {
	var preferred, fallback string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(strings.ToLower(href), "xlsx") {
			return true
		}
		if fallback == "" {
			fallback = href
		}
		text := strings.ToLower(strings.TrimSpace(a.Text()))
		if strings.Contains(text, "appendix") || strings.Contains(text, "limit") {
			preferred = href
			return false
		}
		return true
	})

	href := preferred
	if href == "" {
		href = fallback
	}
	if href == "" {
		return "", fmt.Errorf("no workbook link on page")
	}
	return resolveLink(base, href)
}

func resolveLink(base, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", href, err)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base %q: %w", base, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// WorkbookTables reads every sheet of an xlsx workbook as a raw grid.
// Empty cells are missing values.
func WorkbookTables(book []byte) ([]entities.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(book))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close workbook", "error", err)
		}
	}()

	var tables []entities.RawTable
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		tables = append(tables, entities.RawTable{Name: sheet, Rows: gridCells(rows)})
	}
	return tables, nil
}

func gridCells(rows [][]string) [][]entities.Cell {
	grid := make([][]entities.Cell, len(rows))
	for i, r := range rows {
		cells := make([]entities.Cell, len(r))
		for j, v := range r {
			if strings.TrimSpace(v) == "" {
				cells[j] = entities.Missing()
				continue
			}
			cells[j] = entities.Text(v)
		}
		grid[i] = cells
	}
	return grid
}
