package textextract

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readXLSX flattens every sheet: cells tab-joined, rows newline-joined,
// sheets separated by a blank line. Empty trailing cells are dropped.
func readXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sheets []string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", name, err)
		}
		var lines []string
		for _, row := range rows {
			end := len(row)
			for end > 0 && strings.TrimSpace(row[end-1]) == "" {
				end--
			}
			if end == 0 {
				continue
			}
			lines = append(lines, strings.Join(row[:end], "\t"))
		}
		if len(lines) > 0 {
			sheets = append(sheets, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(sheets, "\n\n"), nil
}
