package core

import (
	"errors"
	"strings"
	"testing"
)

const sampleCSV = `Serial,Institution,Program,Cutoff,Outside,Inside
1,IIT Madras,CSE,98.5,120,450
2,Anna University,ECE,92.0,300,1200
3,PSG Tech,Mech,88.25,500,2100
`

func TestParseCutoffCSV(t *testing.T) {
	records, err := ParseCutoffCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCutoffCSV() error = %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	// Default sort is count-inside-bracket ascending.
	wantNames := []string{"IIT Madras", "Anna University", "PSG Tech"}
	for i, want := range wantNames {
		if records[i].InstitutionName != want {
			t.Errorf("position %d: got %q, want %q", i, records[i].InstitutionName, want)
		}
		if records[i].Order != i {
			t.Errorf("position %d: order = %d, want %d", i, records[i].Order, i)
		}
		if records[i].ID == "" {
			t.Errorf("position %d: missing generated id", i)
		}
	}

	first := records[0]
	if first.SerialNumber != 1 || first.CutoffScore != 98.5 ||
		first.CountOutsideBracket != 120 || first.CountInsideBracket != 450 {
		t.Errorf("first record fields wrong: %+v", first)
	}
}

func TestParseCutoffCSV_FiltersRows(t *testing.T) {
	csv := `1,IIT Madras,CSE,98.5,120,450
2,,ECE,92.0,300,1200
3,short row,only
4,PSG Tech,Mech,88.25,500,2100
`
	records, err := ParseCutoffCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCutoffCSV() error = %v", err)
	}

	// Empty-name and short rows are dropped, not errors.
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, r := range records {
		if r.InstitutionName == "" {
			t.Error("record with empty institution name survived filtering")
		}
	}
}

func TestParseCutoffCSV_LenientNumerics(t *testing.T) {
	csv := `abc,Some College,CSE,not-a-score,n/a,"1,500"
`
	records, err := ParseCutoffCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCutoffCSV() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.CutoffScore != 0 || r.CountOutsideBracket != 0 {
		t.Errorf("unparseable numerics should default to zero: %+v", r)
	}
	if r.CountInsideBracket != 1500 {
		t.Errorf("CountInsideBracket = %d, want 1500", r.CountInsideBracket)
	}
	// Serial falls back to row position when unparseable.
	if r.SerialNumber != 1 {
		t.Errorf("SerialNumber = %d, want fallback 1", r.SerialNumber)
	}
}

func TestParseCutoffCSV_EmptyFile(t *testing.T) {
	_, err := ParseCutoffCSV(strings.NewReader(""))
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("error = %v, want ErrEmptyFile", err)
	}
}

func TestParseCutoffCSV_NoValidRows(t *testing.T) {
	csv := `Serial,Institution,Program,Cutoff,Outside,Inside
1,,CSE,98.5,120,450
short,row
`
	_, err := ParseCutoffCSV(strings.NewReader(csv))
	if !errors.Is(err, ErrNoValidRows) {
		t.Errorf("error = %v, want ErrNoValidRows", err)
	}
}

func TestParseCutoffCSV_HeaderOnly(t *testing.T) {
	_, err := ParseCutoffCSV(strings.NewReader("Serial,Institution,Program,Cutoff,Outside,Inside\n"))
	if !errors.Is(err, ErrNoValidRows) {
		t.Errorf("error = %v, want ErrNoValidRows", err)
	}
}

func TestParseCutoffCSV_NoHeader(t *testing.T) {
	// A data row in first position must not be treated as a header.
	csv := `1,IIT Madras,CSE,98.5,120,450
`
	records, err := ParseCutoffCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCutoffCSV() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestParseCutoffCSV_BOM(t *testing.T) {
	data := "\xEF\xBB\xBF" + `1,IIT Madras,CSE,98.5,120,450
`
	records, err := ParseCutoffCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCutoffCSV() error = %v", err)
	}
	if records[0].SerialNumber != 1 {
		t.Errorf("BOM broke first cell: %+v", records[0])
	}
}

func TestIsHeaderRow(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want bool
	}{
		{"textual header", []string{"Serial", "Institution", "Program", "Cutoff", "Outside", "Inside"}, true},
		{"data row", []string{"1", "IIT Madras", "CSE", "98.5", "120", "450"}, false},
		{"partially numeric", []string{"Serial", "Institution", "Program", "98.5", "Outside", "Inside"}, false},
		{"too short", []string{"Serial", "Institution"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHeaderRow(tt.row); got != tt.want {
				t.Errorf("isHeaderRow(%v) = %v, want %v", tt.row, got, tt.want)
			}
		})
	}
}
