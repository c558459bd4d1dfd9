package enrollment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUpcomingSaturday(t *testing.T) {
	sat := MustDate(2024, time.August, 17)
	for d := MustDate(2024, time.August, 11); !d.After(sat); d = d.AddDays(1) {
		assert.Equal(t, sat, UpcomingSaturday(d), "from %s (%s)", d, d.Weekday())
	}
	assert.Equal(t, MustDate(2024, time.August, 24), UpcomingSaturday(MustDate(2024, time.August, 18)))
}

func TestTwoMonthsBackWindow(t *testing.T) {
	tests := []struct {
		name  string
		today CalendarDate
		start CalendarDate
		end   CalendarDate
	}{
		{
			name:  "wednesday mid month",
			today: MustDate(2024, time.August, 14),
			start: MustDate(2024, time.June, 17),
			end:   MustDate(2024, time.June, 23),
		},
		{
			name:  "saturday on the 31st clamps to june 30",
			today: MustDate(2024, time.August, 31),
			start: MustDate(2024, time.June, 30),
			end:   MustDate(2024, time.July, 6),
		},
		{
			name:  "clamps into february",
			today: MustDate(2022, time.April, 30),
			start: MustDate(2022, time.February, 28),
			end:   MustDate(2022, time.March, 6),
		},
		{
			name:  "crosses the year",
			today: MustDate(2024, time.January, 3),
			start: MustDate(2023, time.November, 6),
			end:   MustDate(2023, time.November, 12),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := TwoMonthsBackWindow(tt.today)
			assert.Equal(t, tt.start, w.Start)
			assert.Equal(t, tt.end, w.End)
		})
	}
}

func TestTwoMonthsBackWindow_Shape(t *testing.T) {
	for today := MustDate(2023, time.January, 1); today.Before(MustDate(2025, time.January, 1)); today = today.AddDays(1) {
		w := TwoMonthsBackWindow(today)
		sat := UpcomingSaturday(today)

		assert.Equal(t, time.Saturday, sat.Weekday())
		assert.Equal(t, sat.AddMonthsClamped(-2), w.Start, "today %s", today)
		assert.Equal(t, w.Start.AddDays(6), w.End, "today %s", today)
		assert.True(t, w.Start.Before(today), "today %s", today)
	}
}

func TestAssessmentWindow_Contains(t *testing.T) {
	w := AssessmentWindow{Start: MustDate(2024, time.June, 17), End: MustDate(2024, time.June, 23)}

	assert.True(t, w.Contains(MustDate(2024, time.June, 17)))
	assert.True(t, w.Contains(MustDate(2024, time.June, 20)))
	assert.True(t, w.Contains(MustDate(2024, time.June, 23)))
	assert.False(t, w.Contains(MustDate(2024, time.June, 16)))
	assert.False(t, w.Contains(MustDate(2024, time.June, 24)))
}
