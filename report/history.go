package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/logging"
)

// ErrNoImpurityColumn means a history workbook has no impurity column.
var ErrNoImpurityColumn = errors.New("history has no nitrosamine impurity column")

// ReadHistory reads the records of a previously exported report. It uses the
// summary sheet, or the first sheet when there is none. Only the tracking id
// (or product) and impurity columns are required.
func ReadHistory(r io.Reader) ([]entities.MatchRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening history workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close history workbook", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("history workbook has no sheets")
	}
	sheet := sheets[0]
	if idx, err := f.GetSheetIndex(SummarySheet); err == nil && idx >= 0 {
		sheet = SummarySheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoImpurityColumn
	}
	return recordsFromRows(rows)
}

func recordsFromRows(rows [][]string) ([]entities.MatchRecord, error) {
	header := rows[0]
	col := make(map[string]int, len(header))
	tracking, impurity := -1, -1
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, dup := col[name]; !dup {
			col[name] = i
		}
		lower := strings.ToLower(name)
		if tracking < 0 && strings.Contains(lower, "spt") {
			tracking = i
		}
		if impurity < 0 && strings.Contains(lower, "nitrosamine") && strings.Contains(lower, "impurity") {
			impurity = i
		}
	}
	if impurity < 0 {
		return nil, ErrNoImpurityColumn
	}

	product, ok := col[ColProduct]
	if !ok {
		product = 0
	}
	get := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	named := func(row []string, name string) string {
		if i, ok := col[name]; ok {
			return get(row, i)
		}
		return ""
	}

	records := make([]entities.MatchRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		trackingID := entities.NoTrackingID
		if tracking >= 0 {
			trackingID = get(row, tracking)
		}
		records = append(records, entities.MatchRecord{
			Status:         entities.Status(named(row, ColStatus)),
			Origin:         entities.Origin(named(row, ColSource)),
			Product:        entities.ProductEntry{Name: get(row, product), TrackingID: trackingID},
			ImpurityName:   get(row, impurity),
			IUPACName:      named(row, ColIUPAC),
			LimitValue:     named(row, ColLimit),
			Notes:          named(row, ColNotes),
			UpdatedDate:    named(row, ColUpdated),
			ReferenceValue: named(row, ColReference),
		})
	}
	return records, nil
}
