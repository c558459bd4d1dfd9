package enrollment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Level is a program progression tier.
type Level int

// Threshold is an exact elapsed-month count that promotes a student to Level.
type Threshold struct {
	Months int
	Level  Level
}

// Band assigns Level to every month count from From up to the next band.
type Band struct {
	From  int
	Level Level
}

// LevelTable holds both classification policies. A table is immutable once
// built; share it freely between goroutines.
type LevelTable struct {
	thresholds map[int]Level
	bands      []Band
}

// DefaultThresholds is the level-up table: 6→2, 12→3, 16→4, 24→5.
var DefaultThresholds = []Threshold{
	{Months: 6, Level: 2},
	{Months: 12, Level: 3},
	{Months: 16, Level: 4},
	{Months: 24, Level: 5},
}

// DefaultBands is the current-level table: [0,6)→1 … [24,∞)→5.
var DefaultBands = []Band{
	{From: 0, Level: 1},
	{From: 6, Level: 2},
	{From: 12, Level: 3},
	{From: 18, Level: 4},
	{From: 24, Level: 5},
}

// DefaultLevelTable returns the table built from DefaultThresholds and DefaultBands.
func DefaultLevelTable() *LevelTable {
	t, err := NewLevelTable(DefaultThresholds, DefaultBands)
	if err != nil {
		panic(err)
	}
	return t
}

// NewLevelTable validates and copies the given thresholds and bands. Bands
// must start at zero and be strictly increasing so that every non-negative
// month count falls in exactly one band.
func NewLevelTable(thresholds []Threshold, bands []Band) (*LevelTable, error) {
	t := &LevelTable{thresholds: make(map[int]Level, len(thresholds))}

	for _, th := range thresholds {
		if th.Months < 0 {
			return nil, fmt.Errorf("threshold months must be non-negative, got %d", th.Months)
		}
		if _, dup := t.thresholds[th.Months]; dup {
			return nil, fmt.Errorf("duplicate threshold at %d months", th.Months)
		}
		t.thresholds[th.Months] = th.Level
	}

	if len(bands) == 0 {
		return nil, fmt.Errorf("at least one level band is required")
	}
	t.bands = append([]Band(nil), bands...)
	if t.bands[0].From != 0 {
		return nil, fmt.Errorf("first level band must start at 0 months, got %d", t.bands[0].From)
	}
	for i := 1; i < len(t.bands); i++ {
		if t.bands[i].From <= t.bands[i-1].From {
			return nil, fmt.Errorf("level bands must be strictly increasing (%d after %d)",
				t.bands[i].From, t.bands[i-1].From)
		}
	}

	return t, nil
}

// ParseLevelTable builds a table from "months:level" lists such as
// "6:2,12:3,16:4,24:5" (thresholds) and "0:1,6:2,12:3,18:4,24:5" (bands).
func ParseLevelTable(thresholds, bands string) (*LevelTable, error) {
	th, err := parsePairs(thresholds)
	if err != nil {
		return nil, fmt.Errorf("level-up thresholds: %w", err)
	}
	bd, err := parsePairs(bands)
	if err != nil {
		return nil, fmt.Errorf("level bands: %w", err)
	}

	ths := make([]Threshold, 0, len(th))
	for _, p := range th {
		ths = append(ths, Threshold{Months: p[0], Level: Level(p[1])})
	}
	bds := make([]Band, 0, len(bd))
	for _, p := range bd {
		bds = append(bds, Band{From: p[0], Level: Level(p[1])})
	}
	return NewLevelTable(ths, bds)
}

func parsePairs(s string) ([][2]int, error) {
	var pairs [][2]int
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		k, v, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q is not months:level", item)
		}
		months, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("entry %q: bad months: %w", item, err)
		}
		level, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("entry %q: bad level: %w", item, err)
		}
		pairs = append(pairs, [2]int{months, level})
	}
	return pairs, nil
}

// LevelUp returns the level reached when months is exactly a threshold.
func (t *LevelTable) LevelUp(months int) (Level, bool) {
	l, ok := t.thresholds[months]
	return l, ok
}

// CurrentLevel returns the band level for months. known=false (elapsed time
// unknown) and negative counts yield no level.
func (t *LevelTable) CurrentLevel(months int, known bool) (Level, bool) {
	if !known || months < 0 {
		return 0, false
	}
	// First band whose start is past months, then step back one.
	i := sort.Search(len(t.bands), func(i int) bool { return t.bands[i].From > months })
	if i == 0 {
		// Zero-value table, or months below the first band.
		return 0, false
	}
	return t.bands[i-1].Level, true
}

// Thresholds returns the level-up thresholds ordered by month.
func (t *LevelTable) Thresholds() []Threshold {
	out := make([]Threshold, 0, len(t.thresholds))
	for m, l := range t.thresholds {
		out = append(out, Threshold{Months: m, Level: l})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Months < out[j].Months })
	return out
}

// Bands returns a copy of the current-level bands.
func (t *LevelTable) Bands() []Band {
	return append([]Band(nil), t.bands...)
}
