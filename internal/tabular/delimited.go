package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/refinery/internal/dataset"
)

// delimiters are tried in this order; ties go to the earlier one.
var delimiters = []rune{',', ';', '\t', '|'}

// numericPattern matches plain decimal and scientific notation.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// decodeDelimited parses CSV-like text. A UTF-8 BOM is dropped and a UTF-16
// BOM switches decoding; invalid UTF-8 bytes are replaced.
func decodeDelimited(data []byte) ([][]dataset.Value, error) {
	decoded := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(transform.Nop))
	text, err := io.ReadAll(newUTF8Sanitizer(decoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if bytes.IndexByte(text, 0) >= 0 {
		return nil, fmt.Errorf("%w: binary content", ErrDecode)
	}
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, nil
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var grid [][]dataset.Value
	for {
		start := r.InputOffset()
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}

		// csv.Reader skips blank lines; between records they are empty rows.
		if len(grid) > 0 {
			for n := blankLines(text[start:]); n > 0; n-- {
				grid = append(grid, nil)
			}
		}

		vals := make([]dataset.Value, len(rec))
		for i, field := range rec {
			vals[i] = parseField(field)
		}
		grid = append(grid, vals)
	}
	return grid, nil
}

// blankLines counts the empty lines at the start of text.
func blankLines(text []byte) int {
	n := 0
	for {
		switch {
		case bytes.HasPrefix(text, []byte("\r\n")):
			text = text[2:]
		case bytes.HasPrefix(text, []byte("\n")):
			text = text[1:]
		default:
			return n
		}
		n++
	}
}

// sniffDelimiter counts candidate delimiters outside quotes on the first line.
func sniffDelimiter(text []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(text)).ReadString('\n')

	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := delimiters[0], 0
	for _, d := range delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// parseField types a text field the way a spreadsheet would on import.
// Integers with a leading zero ("007", zip codes) stay text.
func parseField(field string) dataset.Value {
	if field == "" {
		return dataset.Null()
	}
	switch strings.ToUpper(field) {
	case "TRUE":
		return dataset.Bool(true)
	case "FALSE":
		return dataset.Bool(false)
	}
	if numericPattern.MatchString(field) && !hasLeadingZero(field) {
		if n, err := strconv.ParseFloat(field, 64); err == nil {
			return dataset.Num(n)
		}
	}
	return dataset.Str(field)
}

func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}
