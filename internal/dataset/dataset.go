package dataset

import (
	"errors"
	"fmt"
)

// ErrInvalidDataset is returned by Validate when the row/header invariant is broken.
var ErrInvalidDataset = errors.New("invalid dataset")

// Row maps header name to cell value.
type Row map[string]Value

// Clone returns a shallow copy of the row. Values are immutable so this is a full copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered table: unique headers plus rows keyed by those headers.
type Dataset struct {
	Headers []string
	Rows    []Row
}

// New builds a Dataset and fills any cell a row does not define with the empty string.
func New(headers []string, rows []Row) Dataset {
	hs := append([]string(nil), headers...)
	out := make([]Row, len(rows))
	for i, r := range rows {
		nr := make(Row, len(hs))
		for _, h := range hs {
			if v, ok := r[h]; ok {
				nr[h] = v
			} else {
				nr[h] = Str("")
			}
		}
		out[i] = nr
	}
	return Dataset{Headers: hs, Rows: out}
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// IsEmpty reports whether the dataset has no rows.
func (d Dataset) IsEmpty() bool { return len(d.Rows) == 0 }

// Cell returns the value of header h in row i. Missing cells read as the empty string.
func (d Dataset) Cell(i int, h string) Value {
	if i < 0 || i >= len(d.Rows) {
		return Str("")
	}
	if v, ok := d.Rows[i][h]; ok {
		return v
	}
	return Str("")
}

// Record returns row i's values in header order.
func (d Dataset) Record(i int) []Value {
	rec := make([]Value, len(d.Headers))
	for j, h := range d.Headers {
		rec[j] = d.Cell(i, h)
	}
	return rec
}

// WithRows returns a dataset sharing d's headers with a new row slice.
func (d Dataset) WithRows(rows []Row) Dataset {
	return Dataset{Headers: append([]string(nil), d.Headers...), Rows: rows}
}

// Head returns at most n leading rows. The returned rows alias d's rows.
func (d Dataset) Head(n int) []Row {
	if n < 0 || n >= len(d.Rows) {
		return d.Rows
	}
	return d.Rows[:n]
}

// Validate checks that headers are unique and non-empty and that every row
// defines a value for every header and nothing else.
func (d Dataset) Validate() error {
	seen := make(map[string]bool, len(d.Headers))
	for _, h := range d.Headers {
		if h == "" {
			return fmt.Errorf("%w: empty header", ErrInvalidDataset)
		}
		if seen[h] {
			return fmt.Errorf("%w: duplicate header %q", ErrInvalidDataset, h)
		}
		seen[h] = true
	}
	for i, r := range d.Rows {
		if len(r) != len(d.Headers) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidDataset, i, len(r), len(d.Headers))
		}
		for _, h := range d.Headers {
			if _, ok := r[h]; !ok {
				return fmt.Errorf("%w: row %d missing %q", ErrInvalidDataset, i, h)
			}
		}
	}
	return nil
}
