package enrollment

import (
	"math"
	"strings"
	"time"
)

// CellKind tags the variant held by a CellValue.
type CellKind int

const (
	// CellEmpty is a blank or unsupported cell.
	CellEmpty CellKind = iota
	// CellDate holds a native calendar date.
	CellDate
	// CellSerial holds a spreadsheet serial day count.
	CellSerial
	// CellText holds text expected to look like MM/DD/YYYY.
	CellText
)

// String returns the kind name used in logs.
func (k CellKind) String() string {
	switch k {
	case CellDate:
		return "date"
	case CellSerial:
		return "serial"
	case CellText:
		return "text"
	default:
		return "empty"
	}
}

// CellValue is a spreadsheet cell as it arrived from the workbook. Only the
// field matching Kind is meaningful.
type CellValue struct {
	Kind   CellKind
	Date   CalendarDate
	Serial float64
	Text   string
}

// EmptyCell returns a blank cell.
func EmptyCell() CellValue { return CellValue{Kind: CellEmpty} }

// DateCell wraps a native date.
func DateCell(d CalendarDate) CellValue { return CellValue{Kind: CellDate, Date: d} }

// SerialCell wraps a serial day count.
func SerialCell(v float64) CellValue { return CellValue{Kind: CellSerial, Serial: v} }

// TextCell wraps raw text.
func TextCell(s string) CellValue { return CellValue{Kind: CellText, Text: s} }

// Normalize converts a cell to a calendar date. The second result is false
// when the cell cannot be read as a date; Normalize never panics.
func Normalize(cell CellValue) (CalendarDate, bool) {
	switch cell.Kind {
	case CellDate:
		return cell.Date, true
	case CellSerial:
		return fromSerial(cell.Serial)
	case CellText:
		return parseText(cell.Text)
	default:
		return CalendarDate{}, false
	}
}

func fromSerial(v float64) (CalendarDate, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return CalendarDate{}, false
	}
	// Keep well inside time.Time's range.
	if math.Abs(v) > 3e6 {
		return CalendarDate{}, false
	}
	return DateOf(serialEpoch.AddDate(0, 0, int(math.Floor(v)))), true
}

func parseText(raw string) (CalendarDate, bool) {
	s := strings.TrimSpace(raw)
	// Fixed width only: MM/DD/YYYY.
	if len(s) != len(textDateLayout) || s[2] != '/' || s[5] != '/' {
		return CalendarDate{}, false
	}
	t, err := time.Parse(textDateLayout, s)
	if err != nil {
		return CalendarDate{}, false
	}
	return DateOf(t), true
}
