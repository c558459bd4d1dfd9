package enrollment

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// textDateLayout is the only accepted layout for dates typed as text.
const textDateLayout = "01/02/2006"

// serialEpoch is day zero of spreadsheet serial dates. It keeps the legacy
// 1900 leap-year offset so exports from existing workbooks line up.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// CalendarDate is a proleptic Gregorian calendar day with no time or zone.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the date for the given triple, or false when the triple is
// not a real calendar day (e.g. February 30th).
func NewDate(year int, month time.Month, day int) (CalendarDate, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return CalendarDate{}, false
	}
	return CalendarDate{Year: year, Month: month, Day: day}, true
}

// MustDate is like NewDate but panics on an invalid triple. Intended for
// constants and tests.
func MustDate(year int, month time.Month, day int) CalendarDate {
	d, ok := NewDate(year, month, day)
	if !ok {
		panic(fmt.Sprintf("enrollment: invalid date %04d-%02d-%02d", year, int(month), day))
	}
	return d
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseISODate parses a YYYY-MM-DD string.
func ParseISODate(s string) (CalendarDate, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of the week.
func (d CalendarDate) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays returns the date n days later (or earlier when n is negative).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// AddMonthsClamped moves the date by n calendar months. When the day does not
// exist in the target month it is clamped to that month's last day.
func (d CalendarDate) AddMonthsClamped(n int) CalendarDate {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := d.Day
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return CalendarDate{Year: first.Year(), Month: first.Month(), Day: day}
}

// Compare returns -1, 0 or +1 depending on calendar order.
func (d CalendarDate) Compare(o CalendarDate) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before reports whether d is strictly earlier than o.
func (d CalendarDate) Before(o CalendarDate) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly later than o.
func (d CalendarDate) After(o CalendarDate) bool { return d.Compare(o) > 0 }

// Equal reports whether d and o are the same day.
func (d CalendarDate) Equal(o CalendarDate) bool { return d == o }

// String formats the date as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// USString formats the date as MM/DD/YYYY, the layout used in roster exports.
func (d CalendarDate) USString() string {
	return d.Time().Format(textDateLayout)
}

// MarshalText encodes the date as YYYY-MM-DD.
func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Serial returns the spreadsheet serial number of the date, the inverse of
// normalizing a whole-number serial cell.
func Serial(d CalendarDate) float64 {
	return math.Round(d.Time().Sub(serialEpoch).Hours() / 24)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
