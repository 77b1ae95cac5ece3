package tabular

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode means the input could not be read as tabular data.
	ErrDecode = errors.New("not a readable spreadsheet or delimited text file")

	// ErrLegacyFormat is returned for OLE2 (.xls) workbooks. It wraps ErrDecode.
	ErrLegacyFormat = fmt.Errorf("%w: legacy .xls workbooks are not supported, save as .xlsx or .csv", ErrDecode)

	// ErrNoRows means the first sheet (or text) contains no rows at all, not even headers.
	ErrNoRows = errors.New("file contains no rows")

	// ErrTooLarge means the input exceeded the configured size limit.
	ErrTooLarge = errors.New("file exceeds maximum size")

	// ErrNoData is returned by Export for a dataset without rows.
	ErrNoData = errors.New("no data to export")
)
