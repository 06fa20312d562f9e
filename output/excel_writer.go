package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"toggl2clockify/journal"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, entries []journal.EntryRecord) error {
	rows := make([][]any, 0, len(entries))
	for _, entry := range entries {
		row := entryRow(entry)
		values := make([]any, len(row))
		for i, value := range row {
			values[i] = value
		}
		rows = append(rows, values)
	}
	return writeExcel(path, "Entries", entryHeaders, rows)
}

func writeExcel(path, sheetName string, headers []string, rows [][]any) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if err := file.SetSheetName(sheet, sheetName); err != nil {
		return fmt.Errorf("rename excel sheet: %w", err)
	}
	sheet = sheetName

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, values := range rows {
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}
	return nil
}
