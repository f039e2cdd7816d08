package sources

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// NoDate is reported when a source page carries no recognizable date.
const NoDate = "N/A"

var (
	slashDatePattern = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	fdaDatePattern   = regexp.MustCompile(`(?is)Content current as of:.*?(\d{2}/\d{2}/\d{4})`)
	emaDatePattern   = regexp.MustCompile(`(?is)(?:Last updated|First published).*?(\d{2}/\d{2}/\d{4})`)
	lastUpdatedText  = regexp.MustCompile(`(?i)Last updated`)
)

// walkText calls fn for every text node under n, skipping script and style.
func walkText(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, fn)
	}
}

// nodeText joins the trimmed non-empty text nodes under n with sep.
func nodeText(n *html.Node, sep string) string {
	var parts []string
	walkText(n, func(t *html.Node) {
		if s := strings.TrimSpace(t.Data); s != "" {
			parts = append(parts, s)
		}
	})
	return strings.Join(parts, sep)
}

// PageText returns the visible text of a document, space separated.
func PageText(doc *goquery.Document) string {
	var parts []string
	for _, n := range doc.Nodes {
		parts = append(parts, nodeText(n, " "))
	}
	return strings.Join(parts, " ")
}

// FDAUpdatedDate finds the "Content current as of:" date of the guidance page.
func FDAUpdatedDate(doc *goquery.Document) string {
	if m := fdaDatePattern.FindStringSubmatch(PageText(doc)); m != nil {
		return strings.TrimSpace(m[1])
	}
	return NoDate
}

// EMAUpdatedDate prefers the date in the element holding the first
// "Last updated" label and falls back to any "Last updated" or "First published" date in the page text.
func EMAUpdatedDate(doc *goquery.Document) string {
	found, seen := "", false
	for _, root := range doc.Nodes {
		walkText(root, func(t *html.Node) {
			if seen || t.Parent == nil || !lastUpdatedText.MatchString(t.Data) {
				return
			}
			seen = true
			found = slashDatePattern.FindString(nodeText(t.Parent, ""))
		})
	}
	if found != "" {
		return found
	}
	if m := emaDatePattern.FindStringSubmatch(PageText(doc)); m != nil {
		return m[1]
	}
	return NoDate
}
