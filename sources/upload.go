package sources

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/giygas/nitrosamine-monitor/logging"
)

const uploadSource = "upload"

// nameColumnKeywords identify the product name column of an uploaded list.
var nameColumnKeywords = []string{"product", "api", "name", "drug", "item", "substance", "產品", "藥名", "品項"}

// ReadUpload parses an uploaded product list. CSV files are read as UTF-8
// with a Windows-1252 fallback; xlsx files are read from their first sheet.
// Every failure is a UserInputFailure.
func ReadUpload(filename string, content []byte) (ProductList, error) {
	var (
		grid [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		grid, err = readCSV(content)
	case ".xlsx", ".xlsm":
		grid, err = readFirstSheet(content)
	default:
		err = fmt.Errorf("unsupported file type %q, expected .csv or .xlsx", filepath.Ext(filename))
	}
	if err != nil {
		return ProductList{Origin: "upload"}, newError(UserInputFailure, uploadSource, "read", err)
	}
	return ProductsFromGrid(grid)
}

func readCSV(content []byte) ([][]string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	var r io.Reader = bytes.NewReader(content)
	if !utf8.Valid(content) {
		r = charmap.Windows1252.NewDecoder().Reader(r)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return records, nil
}

func readFirstSheet(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close workbook", "error", err)
		}
	}()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// uploadColumns are the detected column positions; -1 means absent.
type uploadColumns struct {
	name, secondName, tracking int
}

func detectUploadColumns(header []string) (uploadColumns, []string) {
	cols := uploadColumns{name: -1, secondName: -1, tracking: -1}
	var notes []string

	for i, h := range header {
		if strings.Contains(strings.ToLower(h), "spt") {
			cols.tracking = i
			break
		}
	}
	if cols.tracking >= 0 {
		notes = append(notes, fmt.Sprintf("tracking id column: %q", header[cols.tracking]))
	} else {
		notes = append(notes, "no tracking id column, using N/A")
	}

	for i, h := range header {
		if containsExact(nameColumnKeywords, strings.ToLower(strings.TrimSpace(h))) {
			cols.name = i
			break
		}
	}
	if cols.name < 0 {
		for i, h := range header {
			if containsSubstring(nameColumnKeywords, strings.ToLower(h)) {
				cols.name = i
				break
			}
		}
	}

	if cols.name < 0 {
		cols.name = 0
		notes = append(notes, fmt.Sprintf("no product column, using the first column %q", header[0]))
		return cols, notes
	}
	notes = append(notes, fmt.Sprintf("product column: %q", header[cols.name]))

	if strings.Contains(strings.ToLower(header[cols.name]), "product") {
		for i, h := range header {
			lower := strings.ToLower(h)
			if i != cols.name && strings.Contains(lower, "product") && strings.ContainsAny(lower, "12") {
				cols.secondName = i
				notes = append(notes, fmt.Sprintf("second product column merged: %q", h))
				break
			}
		}
	}
	return cols, notes
}

// ProductsFromGrid builds a product list from a grid whose first row is the
// header.
func ProductsFromGrid(grid [][]string) (ProductList, error) {
	list := ProductList{Origin: "upload"}
	if len(grid) == 0 || len(grid[0]) == 0 {
		return list, newError(UserInputFailure, uploadSource, "read", fmt.Errorf("file has no header row"))
	}
	header := grid[0]
	list.Notes = append(list.Notes, fmt.Sprintf("columns: %s", strings.Join(header, ", ")))

	cols, notes := detectUploadColumns(header)
	list.Notes = append(list.Notes, notes...)

	set := newProductSet()
	for _, row := range grid[1:] {
		name := cellAt(row, cols.name)
		if second := cellAt(row, cols.secondName); second != "" && !strings.EqualFold(second, "nan") {
			name = name + " " + second
		}
		if name == "" || strings.EqualFold(name, "nan") {
			continue
		}

		canonical := canonicalName(name)
		if isGenericCompound(canonical) {
			continue
		}
		set.add(canonical, cellAt(row, cols.tracking))
	}

	if set.len() == 0 {
		return list, newError(UserInputFailure, uploadSource, "parse", fmt.Errorf("no usable product names in column %q", header[cols.name]))
	}
	list.Entries = set.sorted()
	list.Notes = append(list.Notes, fmt.Sprintf("%d products read", len(list.Entries)))
	return list, nil
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func containsExact(words []string, s string) bool {
	for _, w := range words {
		if w == s {
			return true
		}
	}
	return false
}

func containsSubstring(words []string, s string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
