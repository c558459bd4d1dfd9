// Package enrollment turns roster rows into level-up, current-level and
// assessment-due reports.
//
// Everything here is a pure function of its inputs. The reference day
// ("today") is always passed in by the caller; nothing reads the clock.
//
// # Dates
//
// Cells arrive as a CellValue: a native date, a spreadsheet serial number
// (days since 1899-12-30), MM/DD/YYYY text, or empty. Normalize turns any of
// them into a CalendarDate or reports that the cell is unusable.
//
// # Elapsed months
//
// ElapsedMonths counts calendar months between two dates and adds one more
// when the day-of-month difference is at least 15 (RoundHalfMonth). The older
// behaviour of rounding on any positive difference is kept as RoundAnyDay.
//
// # Levels
//
// A LevelTable answers two questions: LevelUp (did the student just hit an
// exact threshold?) and CurrentLevel (which band is the student in?).
//
// # Reports
//
//	rep := enrollment.Build(enrollment.ModeLevelUps, rows, today, enrollment.DefaultOptions())
//	for _, line := range rep.Lines {
//	    fmt.Println(line)
//	}
package enrollment
