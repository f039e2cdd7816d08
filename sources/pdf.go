package sources

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/logging"
)

const (
	// DefaultProductPageURL lists the commercial APIs with their PDF downloads.
	DefaultProductPageURL = "https://www.scinopharm.com/tw/products-detail/commercialAPI/"
	// DefaultProductFallbackURL is the product list download used when the
	// page exposes no link.
	DefaultProductFallbackURL = "https://www.scinopharm.com/tw/download/43/"

	productSource = "products"
)

// downloadKeywords identify the product list links on the product page.
var downloadKeywords = []string{"下載產品清單", "下載藥物主檔申請列表"}

var (
	pdfMagic       = []byte("%PDF-")
	columnGapSplit = regexp.MustCompile(`\s{2,}`)
)

// ProductScraper reads the manufacturer product list PDFs.
type ProductScraper struct {
	fetcher     *Fetcher
	pageURL     string
	fallbackURL string
}

// NewProductScraper returns a scraper; empty URLs use the defaults.
func NewProductScraper(f *Fetcher, pageURL, fallbackURL string) *ProductScraper {
	if pageURL == "" {
		pageURL = DefaultProductPageURL
	}
	if fallbackURL == "" {
		fallbackURL = DefaultProductFallbackURL
	}
	return &ProductScraper{fetcher: f, pageURL: pageURL, fallbackURL: fallbackURL}
}

// Fetch scrapes every product list PDF linked from the product page.
// A failing download is noted and skipped; the call fails only when no
// product was found at all.
func (s *ProductScraper) Fetch(ctx context.Context) (ProductList, error) {
	list := ProductList{Origin: "scrape"}

	page, err := s.fetcher.Get(ctx, productSource, s.pageURL)
	if err != nil {
		return list, err
	}
	links, err := productLinks(page)
	if err != nil {
		return list, newError(FormatFailure, productSource, "parse", err)
	}
	if len(links) == 0 {
		links = []string{s.fallbackURL}
		list.Notes = append(list.Notes, "no download link on product page, using "+s.fallbackURL)
	}

	set := newProductSet()
	var lastErr error
	for _, link := range links {
		list.Notes = append(list.Notes, "processing "+link)
		doc, err := s.fetcher.Get(ctx, productSource, link)
		if err != nil {
			lastErr = err
			list.Notes = append(list.Notes, err.Error())
			continue
		}
		if !bytes.HasPrefix(doc.Body, pdfMagic) {
			lastErr = newError(FormatFailure, productSource, "download", fmt.Errorf("%s is not a PDF", link))
			list.Notes = append(list.Notes, lastErr.Error())
			continue
		}
		added, err := parseProductPDF(doc.Body, set)
		if err != nil {
			lastErr = newError(ParseFailure, productSource, "pdf", err)
			list.Notes = append(list.Notes, lastErr.Error())
			continue
		}
		list.Notes = append(list.Notes, fmt.Sprintf("%d products read from %s", added, link))
	}

	list.Entries = set.sorted()
	if len(list.Entries) == 0 {
		if lastErr == nil {
			lastErr = newError(ParseFailure, productSource, "pdf", fmt.Errorf("no product names found"))
		}
		return list, lastErr
	}
	return list, nil
}

func productLinks(page *Document) ([]string, error) {
	text, err := DecodeText(page.Body)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(text))
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		label := strings.TrimSpace(a.Text())
		for _, k := range downloadKeywords {
			if !strings.Contains(label, k) {
				continue
			}
			href, _ := a.Attr("href")
			resolved, err := resolveLink(page.URL, href)
			if err != nil {
				logging.Warn("Skipping product link", "href", href, "error", err)
				return
			}
			links = append(links, resolved)
			return
		}
	})
	return links, nil
}

// parseProductPDF adds the product names of a product list PDF to set and
// returns how many were new. The first cell of each table row is a
// candidate; a page without any valid cell candidate falls back to the
// first column-separated part of each text line.
func parseProductPDF(content []byte, set *productSet) (added int, err error) {
	// the PDF reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("opening PDF: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return added, fmt.Errorf("reading page %d: %w", i, err)
		}

		lines := make([]textLine, 0, len(rows))
		for _, r := range rows {
			lines = append(lines, newTextLine(r.Content))
		}

		found := false
		for _, l := range lines {
			cells := l.cells()
			if len(cells) == 0 || !IsValidProductName(cells[0]) {
				continue
			}
			found = true
			if set.add(canonicalName(cells[0]), entities.NoTrackingID) {
				added++
			}
		}
		if found {
			continue
		}

		for _, l := range lines {
			parts := columnGapSplit.Split(strings.TrimSpace(l.text()), -1)
			if len(parts) == 0 || !IsValidProductName(parts[0]) {
				continue
			}
			if set.add(canonicalName(parts[0]), entities.NoTrackingID) {
				added++
			}
		}
	}
	return added, nil
}

// textLine is one row of positioned text runs, left to right.
type textLine struct {
	runs []pdf.Text
}

func newTextLine(content pdf.TextHorizontal) textLine {
	runs := make([]pdf.Text, len(content))
	copy(runs, content)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })
	return textLine{runs: runs}
}

// gap returns the horizontal space before run i in units of font size.
func (l textLine) gap(i int) float64 {
	prev, cur := l.runs[i-1], l.runs[i]
	size := math.Max(cur.FontSize, 1)
	return (cur.X - (prev.X + prev.W)) / size
}

// cells splits the line where runs are separated by a column-wide gap.
func (l textLine) cells() []string {
	var (
		cells []string
		b     strings.Builder
	)
	for i, r := range l.runs {
		if i > 0 {
			g := l.gap(i)
			switch {
			case g >= 2:
				if s := strings.TrimSpace(b.String()); s != "" {
					cells = append(cells, s)
				}
				b.Reset()
			case g >= 0.2:
				b.WriteByte(' ')
			}
		}
		b.WriteString(r.S)
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		cells = append(cells, s)
	}
	return cells
}

// text renders the line with one space between words and two or more
// between columns.
func (l textLine) text() string {
	var b strings.Builder
	for i, r := range l.runs {
		if i > 0 {
			switch g := l.gap(i); {
			case g >= 0.8:
				b.WriteString("  ")
			case g >= 0.2:
				b.WriteByte(' ')
			}
		}
		b.WriteString(r.S)
	}
	return b.String()
}
