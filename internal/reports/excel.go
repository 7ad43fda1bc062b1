package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const excelSheet = "Projects"

// WriteExcel renders the report as an .xlsx workbook with a styled header
// row and a summary block under the data.
func WriteExcel(w io.Writer, report *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", excelSheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1B7A5A"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to build header style: %w", err)
	}

	for col, header := range csvHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(excelSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(csvHeaders), 1)
	if err := f.SetCellStyle(excelSheet, "A1", endHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	for rowIdx, p := range report.Projects {
		for col, value := range csvRow(p) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(excelSheet, cell, value); err != nil {
				return fmt.Errorf("failed to write data cell: %w", err)
			}
		}
	}

	summaryRow := len(report.Projects) + 3
	summary := [][2]any{
		{"Total Projects", report.Stats.TotalProjects},
		{"Total Area (ha)", report.Stats.TotalArea},
		{"Total CO2e (tonnes)", report.Stats.TotalCarbon},
		{"Generated At", report.GeneratedAt.UTC().Format("2006-01-02 15:04")},
	}
	for i, pair := range summary {
		labelCell, _ := excelize.CoordinatesToCellName(1, summaryRow+i)
		valueCell, _ := excelize.CoordinatesToCellName(2, summaryRow+i)
		f.SetCellValue(excelSheet, labelCell, pair[0])
		f.SetCellValue(excelSheet, valueCell, pair[1])
	}

	if err := f.SetColWidth(excelSheet, "A", "N", 18); err != nil {
		return fmt.Errorf("failed to set column widths: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
