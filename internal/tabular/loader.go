// Package tabular reads spreadsheets and delimited text into datasets and
// writes datasets back out as workbooks or CSV.
//
// Only the first sheet of a workbook is read. Row 0 is always the header row.
package tabular

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/refinery/internal/dataset"
)

// DefaultMaxSize is the input limit applied when Options.MaxSize is zero.
const DefaultMaxSize int64 = 100 * 1024 * 1024

// Source formats reported in Loaded.Format.
const (
	SourceWorkbook  = "xlsx"
	SourceDelimited = "csv"
)

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

var workbookExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// Options controls loading.
type Options struct {
	MaxSize int64 // Bytes; zero means DefaultMaxSize
}

// Loaded is a decoded file.
type Loaded struct {
	Dataset     dataset.Dataset
	DisplayName string // File name without its extension
	Format      string // SourceWorkbook or SourceDelimited
	Size        int64
}

// Load decodes r as a workbook or delimited text, picking the format from the
// content signature first and the name's extension second.
func Load(name string, r io.Reader, opts Options) (*Loaded, error) {
	limit := opts.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	if len(data) == 0 {
		return nil, ErrNoRows
	}

	ext := strings.ToLower(filepath.Ext(name))

	var (
		grid   [][]dataset.Value
		format string
	)
	switch {
	case bytes.HasPrefix(data, ole2Magic) || ext == ".xls":
		return nil, ErrLegacyFormat
	case bytes.HasPrefix(data, zipMagic) || workbookExts[ext]:
		format = SourceWorkbook
		grid, err = decodeWorkbook(data)
	default:
		format = SourceDelimited
		grid, err = decodeDelimited(data)
	}
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, ErrNoRows
	}

	return &Loaded{
		Dataset:     buildDataset(grid),
		DisplayName: DisplayName(name),
		Format:      format,
		Size:        int64(len(data)),
	}, nil
}

// DisplayName strips the last extension from a file name. Names whose only dot
// is the first character, or that have no dot, are returned unchanged.
func DisplayName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// buildDataset turns grid[0] into sanitized headers and every later row into
// a Row. Missing and null cells become the empty string; extra cells are dropped.
func buildDataset(grid [][]dataset.Value) dataset.Dataset {
	headers := dataset.SanitizeHeaders(grid[0])

	rows := make([]dataset.Row, 0, len(grid)-1)
	for _, raw := range grid[1:] {
		row := make(dataset.Row, len(headers))
		for j, h := range headers {
			v := dataset.Str("")
			if j < len(raw) && !raw[j].IsNull() {
				v = raw[j]
			}
			row[h] = v
		}
		rows = append(rows, row)
	}

	return dataset.Dataset{Headers: headers, Rows: rows}
}
