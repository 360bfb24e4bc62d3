package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"no valid rows", ErrNoValidRows, "IMP001"},
		{"wrapped no valid rows", fmt.Errorf("import failed: %w", ErrNoValidRows), "IMP001"},
		{"empty file", ErrEmptyFile, "IMP002"},
		{"invalid csv", ErrInvalidCSV, "IMP003"},
		{"no file provided", errors.New("no file provided"), "IMP004"},
		{"connection refused", errors.New("dial tcp: connection refused"), "ST001"},
		{"connection reset", errors.New("read: connection reset by peer"), "ST002"},
		{"timeout", errors.New("i/o timeout"), "ST003"},
		{"save wrap", errors.New("save session: something broke"), "ST004"},
		{"load wrap", errors.New("load session: something broke"), "ST004"},
		{"context canceled", errors.New("context canceled"), "REQ001"},
		{"rate limited", errors.New("rate limit exceeded"), "REQ002"},
		{"unknown", errors.New("something nobody predicted"), "ERR000"},
		{"case insensitive", errors.New("CONNECTION REFUSED"), "ST001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if got.Message == "" {
				t.Error("empty user message")
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	got := MapError(nil)
	if got.Code != "" || got.Message != "" {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}
