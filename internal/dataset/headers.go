package dataset

import (
	"strconv"
	"strings"
)

// UntitledHeader replaces header cells that are blank after trimming.
const UntitledHeader = "Untitled"

// SanitizeHeaders turns raw header cells into unique, non-empty column names.
//
// Each cell is coerced to text and trimmed; blanks become "Untitled". The
// first occurrence of a name keeps it, later occurrences get "_2", "_3", ...
// in order of appearance. A suffixed name that is already taken keeps
// counting up, so the result is always pairwise distinct.
func SanitizeHeaders(raw []Value) []string {
	out := make([]string, len(raw))
	counts := make(map[string]int, len(raw))
	used := make(map[string]bool, len(raw))

	for i, cell := range raw {
		clean := strings.TrimSpace(cell.String())
		if clean == "" {
			clean = UntitledHeader
		}

		counts[clean]++
		n := counts[clean]
		name := clean
		if n > 1 {
			name = clean + "_" + strconv.Itoa(n)
		}
		for used[name] {
			n++
			counts[clean] = n
			name = clean + "_" + strconv.Itoa(n)
		}

		used[name] = true
		out[i] = name
	}

	return out
}

// SanitizeHeaderStrings is SanitizeHeaders for plain text header rows.
func SanitizeHeaderStrings(raw []string) []string {
	vals := make([]Value, len(raw))
	for i, s := range raw {
		vals[i] = Str(s)
	}
	return SanitizeHeaders(vals)
}
