package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/giygas/nitrosamine-monitor/entities"
)

// SourceData is what one regulatory source yields before normalization.
type SourceData struct {
	Origin  entities.Origin     `json:"origin"`
	URL     string              `json:"url"`
	Updated string              `json:"updated"`
	Tables  []entities.RawTable `json:"tables"`
	Notes   []string            `json:"notes,omitempty"`
}

var dataBlockPattern = regexp.MustCompile(`data\s*:\s*\[`)

// JSONDataTables extracts tables embedded in page scripts as
// `data: [ {...}, ... ]` literals. Columns follow first-seen key order.
func JSONDataTables(page []byte) ([]entities.RawTable, []string) {
	var (
		tables []entities.RawTable
		notes  []string
	)
	for i, loc := range dataBlockPattern.FindAllIndex(page, -1) {
		start := loc[1] - 1
		table, err := decodeObjectArray(page[start:])
		if err != nil {
			notes = append(notes, fmt.Sprintf("JSON block %d skipped: %v", i, err))
			continue
		}
		table.Name = fmt.Sprintf("json-%d", i)
		tables = append(tables, table)
		notes = append(notes, fmt.Sprintf("JSON block %d parsed: %d rows", i, len(table.Rows)))
	}
	return tables, notes
}

func decodeObjectArray(b []byte) (entities.RawTable, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var items []json.RawMessage
	if err := dec.Decode(&items); err != nil {
		return entities.RawTable{}, err
	}
	if len(items) == 0 {
		return entities.RawTable{}, fmt.Errorf("empty array")
	}

	cols := make(map[string]int)
	var header []string
	records := make([]map[string]entities.Cell, 0, len(items))
	for _, raw := range items {
		keys, rec, err := decodeObject(raw)
		if err != nil {
			return entities.RawTable{}, err
		}
		for _, k := range keys {
			if _, ok := cols[k]; !ok {
				cols[k] = len(header)
				header = append(header, k)
			}
		}
		records = append(records, rec)
	}

	table := entities.RawTable{Header: header}
	for _, rec := range records {
		row := make([]entities.Cell, len(header))
		for i, h := range header {
			c, ok := rec[h]
			if !ok {
				c = entities.Missing()
			}
			row[i] = c
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// decodeObject reads one JSON object keeping its key order.
func decodeObject(raw json.RawMessage) ([]string, map[string]entities.Cell, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("array element is not an object")
	}

	var keys []string
	rec := make(map[string]entities.Cell)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := rec[key]; !dup {
			keys = append(keys, key)
		}
		rec[key] = jsonCell(v)
	}
	return keys, rec, nil
}

func jsonCell(v json.RawMessage) entities.Cell {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return entities.Missing()
	}
	var s string
	if trimmed[0] == '"' && json.Unmarshal(trimmed, &s) == nil {
		return entities.Text(s)
	}
	return entities.Text(string(trimmed))
}

// HTMLTables extracts every <table>. The header comes from thead th cells,
// else from the first row, which is then not a data row.
func HTMLTables(doc *goquery.Document) ([]entities.RawTable, []string) {
	var (
		tables []entities.RawTable
		notes  []string
	)
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var header []string
		thead := table.Find("thead").First()
		if thead.Length() > 0 {
			thead.Find("th").Each(func(_ int, th *goquery.Selection) {
				header = append(header, strings.TrimSpace(th.Text()))
			})
		}
		skipFirst := false
		if len(header) == 0 {
			table.Find("tr").First().Find("td, th").Each(func(_ int, c *goquery.Selection) {
				header = append(header, strings.TrimSpace(c.Text()))
			})
		}
		if thead.Length() == 0 {
			skipFirst = true
		}

		rows := table.Find("tbody").First().Find("tr")
		if rows.Length() == 0 {
			rows = table.Find("tr")
		}

		var data [][]entities.Cell
		rows.Each(func(j int, tr *goquery.Selection) {
			if skipFirst && j == 0 {
				return
			}
			tds := tr.Find("td")
			if tds.Length() == 0 {
				return
			}
			row := make([]entities.Cell, 0, tds.Length())
			tds.Each(func(_ int, td *goquery.Selection) {
				row = append(row, entities.Text(strings.TrimSpace(td.Text())))
			})
			data = append(data, row)
		})

		if len(header) == 0 || len(data) == 0 {
			return
		}
		tables = append(tables, entities.RawTable{
			Name:   fmt.Sprintf("table-%d", i),
			Header: header,
			Rows:   data,
		})
		notes = append(notes, fmt.Sprintf("HTML table %d parsed with %d rows", i, len(data)))
	})
	return tables, notes
}
