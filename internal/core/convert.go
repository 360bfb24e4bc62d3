package core

// convert.go provides lenient conversion of user-provided cell values.
//
// Spreadsheet exports and manual form entry both produce messy text:
// thousands separators, stray whitespace, Excel formula prefixes (="value"),
// BOMs and quote artifacts. The Parse* helpers clean the input and fall back
// to zero instead of rejecting the row, which is the documented contract for
// both the import adapter and manual record entry.

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// numericRegex validates that a string is a valid numeric format after
// cleanup. Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// CleanCell removes common spreadsheet artifacts from a cell value:
//   - trims whitespace
//   - removes Excel formula prefix (="...")
//   - removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// ParseFloat converts a cell value to float64, defaulting to 0 when the
// value is empty or unparseable. Thousands separators are stripped.
func ParseFloat(s string) float64 {
	s = cleanNumeric(s)
	if !numericRegex.MatchString(s) {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseInt converts a cell value to int, defaulting to 0 when the value is
// empty or unparseable. Decimal values are truncated toward zero, matching
// how spreadsheet tools render integer columns.
func ParseInt(s string) int {
	s = cleanNumeric(s)
	if !numericRegex.MatchString(s) {
		return 0
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// cleanNumeric strips artifacts that commonly wrap numeric cells.
func cleanNumeric(s string) string {
	s = CleanCell(s)
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// sanitizeUTF8 strips a UTF-8 BOM and replaces invalid byte sequences so
// the CSV reader never chokes on exporter quirks.
func sanitizeUTF8(data []byte) []byte {
	data = stripBOM(data)
	if utf8.Valid(data) {
		return data
	}
	return []byte(strings.ToValidUTF8(string(data), ""))
}

// stripBOM removes a leading UTF-8 byte order mark if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
