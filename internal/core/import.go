package core

// import.go is the import adapter: it converts an uploaded spreadsheet
// export (CSV) into an ordered list of records.
//
// Expected columns, in position order:
//
//	0 serial number
//	1 institution name
//	2 program
//	3 cutoff score
//	4 count outside bracket
//	5 count inside bracket
//
// Rows with fewer than six columns or an empty institution name are dropped.
// Numeric cells default to zero when unparseable. The surviving rows are
// sorted ascending by count-inside-bracket (the percentile-like default key)
// and assigned dense zero-based order. A file that yields zero qualifying
// rows is an error and must not replace any session state.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// minImportColumns is the minimum column count for a row to qualify.
const minImportColumns = 6

// ParseCutoffCSV reads a CSV export and returns the qualifying records,
// ordered by the default sort with dense zero-based order assigned.
func ParseCutoffCSV(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	reader := csv.NewReader(strings.NewReader(string(sanitizeUTF8(data))))
	reader.FieldsPerRecord = -1 // rows are filtered, not rejected

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if i == 0 && isHeaderRow(row) {
			continue
		}
		if len(row) < minImportColumns {
			continue
		}

		name := CleanCell(row[1])
		if name == "" {
			continue
		}

		serial := ParseInt(row[0])
		if serial == 0 {
			serial = len(records) + 1
		}

		records = append(records, Record{
			ID:                  uuid.New().String(),
			SerialNumber:        serial,
			InstitutionName:     name,
			Program:             CleanCell(row[2]),
			CutoffScore:         ParseFloat(row[3]),
			CountOutsideBracket: ParseInt(row[4]),
			CountInsideBracket:  ParseInt(row[5]),
			Order:               len(records),
		})
	}

	if len(records) == 0 {
		return nil, ErrNoValidRows
	}

	return SortBy(records, SortByCountInsideBracket, SortAsc), nil
}

// isHeaderRow reports whether the first row looks like a header rather than
// data: it qualifies column-wise but none of its numeric cells parse.
func isHeaderRow(row []string) bool {
	if len(row) < minImportColumns {
		return false
	}
	for _, idx := range []int{0, 3, 4, 5} {
		cell := cleanNumeric(row[idx])
		if cell != "" && numericRegex.MatchString(cell) {
			return false
		}
	}
	return true
}
