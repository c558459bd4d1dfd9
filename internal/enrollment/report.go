package enrollment

import "fmt"

// StudentRecord is one roster row.
type StudentRecord struct {
	FullName         string
	EnrollmentStart  CellValue
	LatestAssessment CellValue
}

// Mode selects one of the three reports.
type Mode string

const (
	ModeLevelUps       Mode = "level-ups"
	ModeCurrentLevels  Mode = "current-levels"
	ModeAssessmentsDue Mode = "assessments-due"
)

// Modes lists the supported reports in display order.
var Modes = []Mode{ModeLevelUps, ModeCurrentLevels, ModeAssessmentsDue}

// ParseMode validates a report name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown report %q", s)
}

// Title is the heading shown above report results.
func (m Mode) Title() string {
	switch m {
	case ModeCurrentLevels:
		return "Current Levels"
	case ModeAssessmentsDue:
		return "Assessments Due"
	default:
		return "Level-Up Results"
	}
}

// EmptyMessage is shown instead of results when no line qualified.
func (m Mode) EmptyMessage() string {
	switch m {
	case ModeCurrentLevels:
		return "No students found."
	case ModeAssessmentsDue:
		return "No assessments due."
	default:
		return "No students ready to level up."
	}
}

// Options carries the immutable policy shared by every report request.
type Options struct {
	Levels   *LevelTable
	Rounding RoundingRule
}

// DefaultOptions uses the default level table and half-month rounding.
func DefaultOptions() Options {
	return Options{Levels: DefaultLevelTable(), Rounding: RoundHalfMonth}
}

// Report is the outcome of one report run.
type Report struct {
	Mode    Mode              `json:"mode"`
	Today   CalendarDate      `json:"today"`
	Window  *AssessmentWindow `json:"window,omitempty"`
	Lines   []string          `json:"lines"`
	Rows    int               `json:"rows"`
	Skipped int               `json:"skipped"`
}

// Build runs the report selected by mode. Rows whose date cannot be used are
// counted in Skipped and otherwise ignored. An unknown mode yields no lines;
// callers validate modes with ParseMode.
func Build(mode Mode, rows []StudentRecord, today CalendarDate, opts Options) Report {
	if opts.Levels == nil {
		opts.Levels = DefaultLevelTable()
	}

	r := Report{Mode: mode, Today: today, Rows: len(rows), Lines: []string{}}

	switch mode {
	case ModeCurrentLevels:
		for _, row := range rows {
			months, ok := opts.elapsed(row, today)
			if !ok {
				r.Skipped++
				continue
			}
			if level, ok := opts.Levels.CurrentLevel(months, true); ok {
				r.Lines = append(r.Lines, fmt.Sprintf("%s is at level %d (%d months)", row.FullName, level, months))
			}
		}

	case ModeAssessmentsDue:
		w := TwoMonthsBackWindow(today)
		r.Window = &w
		for _, row := range rows {
			assessed, ok := Normalize(row.LatestAssessment)
			if !ok {
				r.Skipped++
				continue
			}
			if w.Contains(assessed) {
				r.Lines = append(r.Lines, fmt.Sprintf("%s last assessed on %s", row.FullName, assessed.USString()))
			}
		}

	case ModeLevelUps:
		for _, row := range rows {
			months, ok := opts.elapsed(row, today)
			if !ok {
				r.Skipped++
				continue
			}
			if level, ok := opts.Levels.LevelUp(months); ok {
				r.Lines = append(r.Lines, fmt.Sprintf("%s levels up to level %d", row.FullName, level))
			}
		}
	}

	return r
}

func (o Options) elapsed(row StudentRecord, today CalendarDate) (int, bool) {
	start, ok := Normalize(row.EnrollmentStart)
	if !ok {
		return 0, false
	}
	return o.Rounding.ElapsedMonths(start, today)
}

// LevelUps lists students whose elapsed months hit a level-up threshold
// exactly, using the default options.
func LevelUps(rows []StudentRecord, today CalendarDate) []string {
	return Build(ModeLevelUps, rows, today, DefaultOptions()).Lines
}

// CurrentLevels lists every student with a known elapsed time and their level.
func CurrentLevels(rows []StudentRecord, today CalendarDate) []string {
	return Build(ModeCurrentLevels, rows, today, DefaultOptions()).Lines
}

// AssessmentsDue lists students whose latest assessment falls inside the
// two-months-back window.
func AssessmentsDue(rows []StudentRecord, today CalendarDate) []string {
	return Build(ModeAssessmentsDue, rows, today, DefaultOptions()).Lines
}
