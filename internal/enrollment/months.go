package enrollment

import "fmt"

// RoundingRule decides when a partial month counts as a whole one.
type RoundingRule int

const (
	// RoundHalfMonth counts the partial month once at least 15 days have passed.
	RoundHalfMonth RoundingRule = iota
	// RoundAnyDay counts the partial month as soon as one day has passed.
	RoundAnyDay
)

// halfMonthDays is the day delta at which RoundHalfMonth rounds up.
const halfMonthDays = 15

// ParseRoundingRule maps the configuration names to a rule.
func ParseRoundingRule(s string) (RoundingRule, error) {
	switch s {
	case "", "half-month":
		return RoundHalfMonth, nil
	case "any-day":
		return RoundAnyDay, nil
	default:
		return 0, fmt.Errorf("unknown rounding rule %q (want half-month or any-day)", s)
	}
}

// String returns the configuration name of the rule.
func (r RoundingRule) String() string {
	if r == RoundAnyDay {
		return "any-day"
	}
	return "half-month"
}

func (r RoundingRule) roundsUp(dayDelta int) bool {
	if r == RoundAnyDay {
		return dayDelta > 0
	}
	return dayDelta >= halfMonthDays
}

// ElapsedMonths returns the whole months from start to reference using the
// half-month rounding rule. The second result is false when start is after
// reference.
func ElapsedMonths(start, reference CalendarDate) (int, bool) {
	return RoundHalfMonth.ElapsedMonths(start, reference)
}

// ElapsedMonths returns the whole months from start to reference under r.
func (r RoundingRule) ElapsedMonths(start, reference CalendarDate) (int, bool) {
	if start.After(reference) {
		return 0, false
	}

	months := (reference.Year-start.Year)*12 + int(reference.Month) - int(start.Month)
	if r.roundsUp(reference.Day - start.Day) {
		months++
	}
	return months, true
}
