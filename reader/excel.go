package reader

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// excelExtractor renders every sheet as pipe-delimited rows under a sheet
// name header, skipping empty rows and cells.
type excelExtractor struct{}

func (excelExtractor) Extract(path string) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer wb.Close()

	var parts []string
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		var lines []string
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				if trimmed := strings.TrimSpace(cell); trimmed != "" {
					cells = append(cells, trimmed)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}

		if len(lines) > 0 {
			parts = append(parts, fmt.Sprintf("=== %s ===\n%s", sheet, strings.Join(lines, "\n")))
		}
	}

	return strings.Join(parts, "\n\n"), nil
}
