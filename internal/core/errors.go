package core

import "errors"

// Sentinel errors returned by the import adapter and service. Lookup misses
// (unknown record id on delete/restore, undo with an empty slot) are defined
// no-ops and deliberately do not produce errors.
var (
	// ErrNoValidRows is returned when an imported file yields zero
	// qualifying rows after filtering. The session is left untouched.
	ErrNoValidRows = errors.New("import: no valid rows found in file")

	// ErrEmptyFile is returned when the uploaded file has no content.
	ErrEmptyFile = errors.New("import: empty file")

	// ErrInvalidCSV is returned when the file cannot be parsed as CSV.
	ErrInvalidCSV = errors.New("import: invalid csv")

	// ErrUnknownSortField is returned when a sort request names a column
	// that does not exist on Record.
	ErrUnknownSortField = errors.New("unknown sort field")
)
