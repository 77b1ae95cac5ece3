package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/refinery/internal/dataset"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Export defaults.
const (
	DefaultSheetName        = "CleanedData"
	DefaultWidthSampleRows  = 100
	DefaultMaxColumnWidth   = 50
	columnPadding           = 2
	defaultDisplayNameStamp = "data_%d"
)

// ParseFormat accepts "xlsx" or "csv" in any case. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want xlsx or csv)", s)
	}
}

// ContentType is the MIME type for a download in this format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// ExportOptions controls Export. Zero fields take the package defaults.
type ExportOptions struct {
	Format          Format
	SheetName       string
	WidthSampleRows int
	MaxColumnWidth  int
}

func (o ExportOptions) withDefaults() ExportOptions {
	if o.Format == "" {
		o.Format = FormatXLSX
	}
	if o.SheetName == "" {
		o.SheetName = DefaultSheetName
	}
	if o.WidthSampleRows <= 0 {
		o.WidthSampleRows = DefaultWidthSampleRows
	}
	if o.MaxColumnWidth <= 0 {
		o.MaxColumnWidth = DefaultMaxColumnWidth
	}
	return o
}

// ExportFileName returns "<display>_refined.<ext>", or a timestamped name
// when display is empty.
func ExportFileName(display string, now time.Time, f Format) string {
	if f == "" {
		f = FormatXLSX
	}
	if display == "" {
		display = fmt.Sprintf(defaultDisplayNameStamp, now.UnixMilli())
	}
	return fmt.Sprintf("%s_refined.%s", display, f)
}

// Export writes ds to w. Headers come first, then one record per row in
// header order. An empty dataset fails with ErrNoData before anything is written.
func Export(w io.Writer, ds dataset.Dataset, opts ExportOptions) error {
	if ds.IsEmpty() {
		return ErrNoData
	}
	opts = opts.withDefaults()

	switch opts.Format {
	case FormatXLSX:
		return exportWorkbook(w, ds, opts)
	case FormatCSV:
		return exportCSV(w, ds)
	default:
		return fmt.Errorf("unsupported export format %q", opts.Format)
	}
}

// ColumnWidths sizes each column to its header or its longest value among the
// first sample rows, plus padding, capped at limit.
func ColumnWidths(ds dataset.Dataset, sample, limit int) []int {
	widths := make([]int, len(ds.Headers))
	n := min(sample, ds.Len())

	for j, h := range ds.Headers {
		w := utf8.RuneCountInString(h)
		for i := 0; i < n; i++ {
			if l := utf8.RuneCountInString(ds.Cell(i, h).String()); l > w {
				w = l
			}
		}
		widths[j] = min(w+columnPadding, limit)
	}
	return widths
}

func exportWorkbook(w io.Writer, ds dataset.Dataset, opts ExportOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), opts.SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(opts.SheetName)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	// Widths must be set before the first row.
	for j, width := range ColumnWidths(ds, opts.WidthSampleRows, opts.MaxColumnWidth) {
		if err := sw.SetColWidth(j+1, j+1, float64(width)); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	header := make([]interface{}, len(ds.Headers))
	for j, h := range ds.Headers {
		header[j] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range ds.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, workbookRecord(ds.Record(i))); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// workbookRecord keeps each value's kind so numbers stay numeric in the sheet.
func workbookRecord(rec []dataset.Value) []interface{} {
	out := make([]interface{}, len(rec))
	for j, v := range rec {
		switch v.Kind() {
		case dataset.KindNumber:
			n, _ := v.AsNumber()
			out[j] = n
		case dataset.KindBool:
			b, _ := v.AsBool()
			out[j] = b
		case dataset.KindString:
			s, _ := v.AsString()
			out[j] = s
		default:
			out[j] = ""
		}
	}
	return out
}

func exportCSV(w io.Writer, ds dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(ds.Headers))
	for i := range ds.Rows {
		for j, v := range ds.Record(i) {
			rec[j] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
