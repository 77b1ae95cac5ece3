package transform

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/refinery/internal/dataset"
)

// Operation ids.
const (
	OpDedupe    = "dedupe"
	OpDeepClean = "deep-clean"
	OpDropEmpty = "drop-empty"
	OpTitleCase = "title-case"
)

func init() {
	Register(Operation{
		ID:          OpDedupe,
		Label:       "Dedupe",
		Description: "Remove rows whose cells match an earlier row exactly",
		Apply:       Deduplicate,
	})
	Register(Operation{
		ID:          OpDeepClean,
		Label:       "Deep Clean",
		Description: "Collapse repeated and non-breaking whitespace, trim text cells",
		Apply:       NormalizeWhitespace,
	})
	Register(Operation{
		ID:          OpDropEmpty,
		Label:       "No Empty",
		Description: "Remove rows where every cell is blank",
		Apply:       DropEmptyRows,
	})
	Register(Operation{
		ID:          OpTitleCase,
		Label:       "Title Case",
		Description: "Capitalize the first letter of every word in text cells",
		Apply:       TitleCase,
	})
}

// Deduplicate keeps the first row for each distinct row signature.
//
// The signature is built from each cell's string form in header order, so a
// numeric 1 and a text "1" in the same column compare equal.
func Deduplicate(ds dataset.Dataset) Outcome {
	if ds.IsEmpty() {
		return nothingToDo(ds)
	}

	seen := make(map[string]struct{}, ds.Len())
	kept := make([]dataset.Row, 0, ds.Len())
	for i, row := range ds.Rows {
		sig := signature(ds, i)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		kept = append(kept, row)
	}

	removed := ds.Len() - len(kept)
	out := Outcome{Dataset: ds.WithRows(kept), Affected: removed}
	if removed > 0 {
		out.Message = fmt.Sprintf("Removed %d duplicate rows.", removed)
	} else {
		out.Message = "No duplicates found."
		out.Noop = true
	}
	return out
}

// signature length-prefixes each cell so ("ab","c") and ("a","bc") differ.
func signature(ds dataset.Dataset, i int) string {
	var b strings.Builder
	for _, h := range ds.Headers {
		s := ds.Cell(i, h).String()
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}

// NormalizeWhitespace collapses whitespace runs in text cells to one space and trims them.
// Numbers, booleans and nulls pass through untouched.
func NormalizeWhitespace(ds dataset.Dataset) Outcome {
	if ds.IsEmpty() {
		return nothingToDo(ds)
	}

	changed := 0
	rows := make([]dataset.Row, ds.Len())
	for i := range ds.Rows {
		nr := make(dataset.Row, len(ds.Headers))
		rowChanged := false
		for _, h := range ds.Headers {
			v := ds.Cell(i, h)
			if s, ok := v.AsString(); ok {
				clean := collapseSpace(s)
				if clean != s {
					rowChanged = true
				}
				nr[h] = dataset.Str(clean)
				continue
			}
			nr[h] = v
		}
		if rowChanged {
			changed++
		}
		rows[i] = nr
	}

	out := Outcome{Dataset: ds.WithRows(rows), Affected: changed}
	if changed > 0 {
		out.Message = fmt.Sprintf("Deep cleaned %d rows.", changed)
	} else {
		out.Message = "Data is already clean."
		out.Noop = true
	}
	return out
}

// DropEmptyRows removes rows whose cells are all blank after trimming.
// Blank cells in kept rows are left as they are.
func DropEmptyRows(ds dataset.Dataset) Outcome {
	if ds.IsEmpty() {
		return nothingToDo(ds)
	}

	kept := make([]dataset.Row, 0, ds.Len())
	for i, row := range ds.Rows {
		if !isEmptyRow(ds, i) {
			kept = append(kept, row)
		}
	}

	removed := ds.Len() - len(kept)
	out := Outcome{Dataset: ds.WithRows(kept), Affected: removed}
	if removed > 0 {
		out.Message = fmt.Sprintf("Removed %d empty rows.", removed)
	} else {
		out.Message = "No empty rows found."
		out.Noop = true
	}
	return out
}

func isEmptyRow(ds dataset.Dataset, i int) bool {
	for _, h := range ds.Headers {
		if strings.TrimFunc(ds.Cell(i, h).String(), isSpace) != "" {
			return false
		}
	}
	return true
}

// TitleCase capitalizes the first word character of every whitespace-delimited
// token in text cells and lowercases the rest of the token. Apostrophes,
// hyphens and acronyms get no special treatment: "o'brien" becomes "O'brien".
func TitleCase(ds dataset.Dataset) Outcome {
	if ds.IsEmpty() {
		return nothingToDo(ds)
	}

	lower := cases.Lower(language.Und)
	changed := 0
	rows := make([]dataset.Row, ds.Len())
	for i := range ds.Rows {
		nr := make(dataset.Row, len(ds.Headers))
		rowChanged := false
		for _, h := range ds.Headers {
			v := ds.Cell(i, h)
			if s, ok := v.AsString(); ok {
				tc := titleCase(s, lower)
				if tc != s {
					rowChanged = true
				}
				nr[h] = dataset.Str(tc)
				continue
			}
			nr[h] = v
		}
		if rowChanged {
			changed++
		}
		rows[i] = nr
	}

	return Outcome{
		Dataset:  ds.WithRows(rows),
		Affected: changed,
		Message:  "Standardized text case (Title Case).",
	}
}

func titleCase(s string, lower cases.Caser) string {
	var b strings.Builder
	b.Grow(len(s))

	for len(s) > 0 {
		// Copy the whitespace run as-is.
		ws := strings.IndexFunc(s, func(r rune) bool { return !isSpace(r) })
		if ws < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:ws])
		s = s[ws:]

		end := strings.IndexFunc(s, isSpace)
		if end < 0 {
			end = len(s)
		}
		b.WriteString(titleToken(s[:end], lower))
		s = s[end:]
	}

	return b.String()
}

func titleToken(tok string, lower cases.Caser) string {
	start := strings.IndexFunc(tok, isWordRune)
	if start < 0 {
		return tok
	}
	r, size := utf8.DecodeRuneInString(tok[start:])
	rest := tok[start+size:]
	return tok[:start] + string(unicode.ToTitle(r)) + lower.String(rest)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// isSpace matches Unicode whitespace, which covers the non-breaking space,
// plus the zero-width no-break space that spreadsheets often leave behind.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}
