package tabular

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/refinery/internal/dataset"
)

// decodeWorkbook reads the first sheet of an xlsx-family workbook.
// Raw cell values are used so number formats (dates included) do not leak
// into the data: a date cell loads as its serial number.
func decodeWorkbook(data []byte) ([][]dataset.Value, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	sheet := sheets[0]

	// GetRows trims trailing rows without values, so walk the row elements
	// instead: a row of blank cells is still a row.
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrDecode, sheet, err)
	}
	defer rows.Close()

	var grid [][]dataset.Value
	for r := 1; rows.Next(); r++ {
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: read sheet %q row %d: %v", ErrDecode, sheet, r, err)
		}
		vals := make([]dataset.Value, len(cells))
		for c, raw := range cells {
			vals[c] = workbookCell(f, sheet, c+1, r, raw)
		}
		grid = append(grid, vals)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrDecode, sheet, err)
	}
	return grid, nil
}

// workbookCell types one raw cell value using the cell's stored type.
func workbookCell(f *excelize.File, sheet string, col, row int, raw string) dataset.Value {
	if raw == "" {
		return dataset.Null()
	}

	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return dataset.Str(raw)
	}
	ct, err := f.GetCellType(sheet, ref)
	if err != nil {
		return dataset.Str(raw)
	}

	switch ct {
	case excelize.CellTypeBool:
		return dataset.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeDate:
		// Cells without a type attribute are numeric in SpreadsheetML.
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return dataset.Num(n)
		}
	}
	return dataset.Str(raw)
}
