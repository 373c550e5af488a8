package batch

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Parameters"

// ExportXLSX writes rows (header first) to a workbook at path. Column widths
// follow the longest header cell, capped.
func ExportXLSX(path string, rows [][]string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}
	if len(rows) > 0 {
		for c, h := range rows[0] {
			col, _ := excelize.ColumnNumberToName(c + 1)
			_ = f.SetColWidth(sheetName, col, col, colWidth(h))
		}
		_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create xlsx: %w", err)
	}
	if _, err := f.WriteTo(out); err != nil {
		_ = out.Close()
		return fmt.Errorf("xlsx write: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	logger.Info("batch.export.xlsx_ok",
		"path", path,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func colWidth(h string) float64 {
	w := float64(len([]rune(h))) + 2
	if w < 10 {
		return 10
	}
	if w > 48 {
		return 48
	}
	return w
}
