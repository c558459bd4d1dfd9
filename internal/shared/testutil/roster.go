package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Student is one roster row. Start and Assessed take anything excelize can
// store: "01/15/2024" text, float64 serials or time.Time values.
type Student struct {
	First    string
	Last     string
	Start    interface{}
	Assessed interface{}
}

// RosterWorkbook builds an .xlsx in the default enrollment export layout:
// names in C and D, enrollment start in K, latest assessment in L.
func RosterWorkbook(t *testing.T, students ...Student) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	set := func(col string, row int, v interface{}) {
		if v == nil {
			return
		}
		cell, err := excelize.JoinCellName(col, row)
		if err != nil {
			t.Fatalf("cell name %s%d: %v", col, row, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}

	for col, title := range map[string]string{
		"A": "Student ID", "C": "First Name", "D": "Last Name", "K": "Enrollment Start", "L": "Latest Assessment",
	} {
		set(col, 1, title)
	}
	for i, s := range students {
		row := i + 2
		set("A", row, i+1)
		set("C", row, s.First)
		set("D", row, s.Last)
		set("K", row, s.Start)
		set("L", row, s.Assessed)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteRosterFile writes RosterWorkbook output to a temp .xlsx and returns its path.
func WriteRosterFile(t *testing.T, students ...Student) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	if err := os.WriteFile(path, RosterWorkbook(t, students...), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

// SampleStudents covers every report mode when evaluated on 2024-07-20:
// two level-ups, one skipped bad date and two assessments in 05/20-05/26/2024.
func SampleStudents() []Student {
	return []Student{
		{First: "Ada", Last: "Lovelace", Start: "01/15/2024", Assessed: "05/20/2024"},
		{First: "Alan", Last: "Turing", Start: "01/02/2024"},
		{First: "Grace", Last: "Hopper", Start: 45127.0, Assessed: "05/25/2024"},
		{First: "Edsger", Last: "Dijkstra", Start: "not a date", Assessed: "04/01/2024"},
	}
}
