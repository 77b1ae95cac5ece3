// Package dataset defines the in-memory table the refinery works on.
//
// A [Dataset] is an ordered list of unique header names plus an ordered list
// of rows. Each [Row] maps every header to a [Value], a tagged scalar that is
// either null, a string, a number or a boolean. Cleaning operations never
// mutate a Dataset in place; they build a new one and hand it back.
//
// # Headers
//
// Raw header cells coming from a spreadsheet can be blank, duplicated or
// non-string. [SanitizeHeaders] turns them into a unique, order-preserving
// list of names:
//
//	SanitizeHeaderStrings([]string{"Name", "", "Name"})
//	// => ["Name", "Untitled", "Name_2"]
//
// # Values
//
// Cell values keep the type the source file gave them. Code that needs a
// textual view calls [Value.String], which is the single coercion rule used
// for signatures, emptiness checks and column widths.
package dataset
