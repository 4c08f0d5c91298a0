package batchproc

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/sdsmatch/pkg/errors"
)

// writeXLSXSummary renders the run report as a one-sheet workbook, one row
// per document, for reviewers who live in spreadsheets.
func writeXLSXSummary(path string, report *RunReport) error {
	f := excelize.NewFile()
	const sheet = "Documents"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrap(err, errors.ErrCodeReportWrite, "create summary sheet")
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on ours.
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{"Document", "Status", "Cache Hit", "Visual", "Duration (ms)", "Error"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, doc := range report.Documents {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, filepath.Base(doc.Path))
		write(2, doc.Status)
		write(3, doc.CacheHit)
		write(4, doc.UsedVisual)
		write(5, fmt.Sprintf("%.1f", doc.DurationMs))
		write(6, doc.Error)
		row++
	}

	// Totals underneath a blank row.
	row++
	totals := []struct {
		label string
		value int
	}{
		{"Total", report.Total},
		{"Succeeded", report.Succeeded},
		{"Failed", report.Failed},
		{"Cache hits", report.CacheHits},
		{"Visual runs", report.VisualRuns},
	}
	for _, tl := range totals {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, labelCell, tl.label)
		_ = f.SetCellValue(sheet, valueCell, tl.value)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 40)
	_ = f.SetColWidth(sheet, "B", "D", 12)
	_ = f.SetColWidth(sheet, "F", "F", 60)

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, errors.ErrCodeReportWrite, "write summary workbook")
	}
	return nil
}
