package reports

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

func GenerateExcelReport(headers []string, data [][]string, opts *ReportOptions) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.SheetName
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	styleID, err := f.NewStyle(headerStyle(opts.HeaderColor))
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", styleID); err != nil {
		return nil, fmt.Errorf("failed to apply style to header: %w", err)
	}

	for i, row := range data {
		cells := make([]any, len(row))
		for j, v := range row {
			// Numeric strings become numeric cells so they can be charted.
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				cells[j] = n
			} else {
				cells[j] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("failed to write data at %s: %w", cell, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to save Excel: %w", err)
	}
	return buf.Bytes(), nil
}

func headerStyle(backgroundColor string) *excelize.Style {
	return &excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{backgroundColor},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	}
}
