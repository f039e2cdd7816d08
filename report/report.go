// Package report writes the screening workbook and reads a previous one back
// as change-detection history.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/logging"
)

// Sheet names of the report workbook.
const (
	SummarySheet = "Summary_Match"
	RawFDASheet  = "Raw_FDA_Data"
	RawEMASheet  = "Raw_EMA_Data"
)

// Summary sheet columns, in order.
const (
	ColStatus    = "Status"
	ColSource    = "Source"
	ColProduct   = "ScinoPharm Product"
	ColTracking  = "SPT Project num"
	ColImpurity  = "Nitrosamine Impurity"
	ColIUPAC     = "IUPAC Name"
	ColLimit     = "Limit (AI)"
	ColNotes     = "Notes"
	ColUpdated   = "Updated date"
	ColReference = "Reference Value"
)

// SummaryColumns is the summary sheet header.
var SummaryColumns = []string{
	ColStatus, ColSource, ColProduct, ColTracking, ColImpurity,
	ColIUPAC, ColLimit, ColNotes, ColUpdated, ColReference,
}

const (
	columnWidth   = 20
	widenedCols   = 10
	newRowFillHex = "FFFFCC"
)

// Report is the content of one exported workbook.
type Report struct {
	Records []entities.MatchRecord
	FDARaw  entities.RawTable
	EMARaw  entities.RawTable
}

// SummaryRow renders a record in summary column order.
func SummaryRow(r entities.MatchRecord) []string {
	return []string{
		string(r.Status), string(r.Origin), r.Product.Name, r.Product.TrackingID,
		r.ImpurityName, r.IUPACName, r.LimitValue, r.Notes, r.UpdatedDate, r.ReferenceValue,
	}
}

// Write renders rep as an xlsx workbook to w.
func Write(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close report workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	if err := writeSummary(f, rep.Records); err != nil {
		return err
	}
	if err := writeRaw(f, RawFDASheet, rep.FDARaw); err != nil {
		return err
	}
	if err := writeRaw(f, RawEMASheet, rep.EMARaw); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, records []entities.MatchRecord) error {
	if err := setRow(f, SummarySheet, 1, SummaryColumns); err != nil {
		return err
	}

	highlight, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{newRowFillHex}},
	})
	if err != nil {
		return fmt.Errorf("creating highlight style: %w", err)
	}

	for i, r := range records {
		row := i + 2
		if err := setRow(f, SummarySheet, row, SummaryRow(r)); err != nil {
			return err
		}
		if r.Status != entities.StatusNew {
			continue
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(SummaryColumns), row)
		if err := f.SetCellStyle(SummarySheet, first, last, highlight); err != nil {
			return fmt.Errorf("highlighting row %d: %w", row, err)
		}
	}
	return widen(f, SummarySheet)
}

func writeRaw(f *excelize.File, sheet string, t entities.RawTable) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}
	if len(t.Header) > 0 {
		if err := setRow(f, sheet, 1, t.Header); err != nil {
			return err
		}
	}
	for i, cells := range t.Rows {
		values := make([]string, len(cells))
		for j, c := range cells {
			values[j] = c.Or("")
		}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return widen(f, sheet)
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func widen(f *excelize.File, sheet string) error {
	last, err := excelize.ColumnNumberToName(widenedCols)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, columnWidth); err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}
	return nil
}
