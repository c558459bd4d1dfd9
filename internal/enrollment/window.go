package enrollment

import "time"

// windowDays is the length of an assessment window, inclusive.
const windowDays = 7

// AssessmentWindow is a closed interval of calendar days.
type AssessmentWindow struct {
	Start CalendarDate `json:"start"`
	End   CalendarDate `json:"end"`
}

// Contains reports whether d falls inside the window, bounds included.
func (w AssessmentWindow) Contains(d CalendarDate) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// UpcomingSaturday returns today if it is a Saturday, otherwise the next one.
func UpcomingSaturday(today CalendarDate) CalendarDate {
	days := (int(time.Saturday) - int(today.Weekday()) + 7) % 7
	return today.AddDays(days)
}

// TwoMonthsBackWindow returns the 7-day window that starts two calendar
// months before the upcoming Saturday. Month subtraction clamps to the last
// day of the target month.
func TwoMonthsBackWindow(today CalendarDate) AssessmentWindow {
	start := UpcomingSaturday(today).AddMonthsClamped(-2)
	return AssessmentWindow{Start: start, End: start.AddDays(windowDays - 1)}
}
