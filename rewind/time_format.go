package rewind

import (
	"fmt"
	"math"
	"time"
)

// DefaultYear is the calendar year aggregated when Options.Year is zero.
const DefaultYear = 2025

// msThreshold separates epoch seconds from epoch milliseconds. Exports use seconds; a magnitude
// above 1e12 can only be a millisecond value for any date in this century.
const msThreshold = 1e12

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var hourLabels = func() [24]string {
	var out [24]string
	for h := range out {
		out[h] = fmt.Sprintf("%02d:00", h)
	}
	return out
}()

// Window is an inclusive UTC time range, at millisecond precision.
type Window struct {
	Start time.Time
	End   time.Time
}

// YearWindow covers year-01-01T00:00:00Z through year-12-31T23:59:59Z.
func YearWindow(year int) Window {
	return Window{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC),
	}
}

// Normalize converts an export create_time to epoch milliseconds and reports whether it falls
// inside the window. A nil value is never eligible.
func (w Window) Normalize(createTime *float64) (int64, bool) {
	if createTime == nil {
		return 0, false
	}
	v := *createTime
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	ms := v * 1000
	if math.Abs(v) > msThreshold {
		ms = v
	}
	if ms < float64(w.Start.UnixMilli()) || ms > float64(w.End.UnixMilli()) {
		return 0, false
	}
	return int64(ms), true
}

// stamp holds the UTC bucket keys of one prompt.
type stamp struct {
	Date    string // YYYY-MM-DD
	Month   string // YYYY-MM
	Weekday int    // 0 = Sunday
	Hour    int
}

func stampOf(ms int64) stamp {
	t := time.UnixMilli(ms).UTC()
	return stamp{
		Date:    t.Format(time.DateOnly),
		Month:   t.Format("2006-01"),
		Weekday: int(t.Weekday()),
		Hour:    t.Hour(),
	}
}
