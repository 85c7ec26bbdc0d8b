package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yorkulibraries/spacemetrics/internal/analyzer"
)

// excelBook wraps excelize with row-cursor bookkeeping.
type excelBook struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func newExcelBook() *excelBook {
	return &excelBook{file: excelize.NewFile()}
}

func (b *excelBook) addSheet(name string) error {
	// Excel caps sheet names at 31 characters.
	if len(name) > 31 {
		name = name[:31]
	}

	if b.currentSheet == "" {
		b.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := b.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	b.currentSheet = name
	b.currentRow = 1
	return nil
}

func (b *excelBook) writeHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, col := range columns {
		row[i] = col
	}
	if err := b.writeRow(row); err != nil {
		return err
	}

	style, err := b.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, b.currentRow-1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), b.currentRow-1)
		_ = b.file.SetCellStyle(b.currentSheet, startCell, endCell, style)
	}
	return nil
}

func (b *excelBook) writeRow(row []any) error {
	if b.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, b.currentRow)
		if err != nil {
			return err
		}
		if err := b.file.SetCellValue(b.currentSheet, cell, val); err != nil {
			return err
		}
	}
	b.currentRow++
	return nil
}

// WriteExcel writes the report as a workbook: a Summary sheet with every
// space, then one sheet per location in roster order.
func WriteExcel(path string, groups []LocationGroup, results []analyzer.SpaceResult) error {
	book := newExcelBook()
	defer book.file.Close()

	if err := book.addSheet("Summary"); err != nil {
		return err
	}
	if err := book.writeHeader(Header()); err != nil {
		return err
	}
	for _, res := range results {
		if err := book.writeRow(excelRecord(res)); err != nil {
			return err
		}
	}

	for _, loc := range groups {
		if err := book.addSheet(loc.LocationName); err != nil {
			return err
		}
		if err := book.writeHeader(Header()); err != nil {
			return err
		}
		for _, cat := range loc.Categories {
			for _, res := range cat.Spaces {
				if err := book.writeRow(excelRecord(res)); err != nil {
					return err
				}
			}
		}
	}

	return book.file.SaveAs(path)
}

// excelRecord mirrors Record but keeps numeric cells numeric.
func excelRecord(res analyzer.SpaceResult) []any {
	rec := []any{
		res.Space.SpaceID,
		res.Space.SpaceName,
		res.Space.CategoryID,
		res.Space.CategoryName,
		res.Space.LocationID,
		res.Space.LocationName,
	}
	for _, m := range res.Metrics {
		rec = append(rec, m.Rate, m.AvailableHours, m.BookedHours, m.BookingCount)
	}
	return append(rec, nextAvailableString(res))
}
