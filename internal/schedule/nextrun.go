package schedule

import (
	"time"

	"taskclock/internal/domain"
)

// NextRun returns the first occurrence of the cadence at or after now,
// starting from anchor and rolling forward one interval at a time. A
// candidate landing exactly on now still advances one interval. The
// stepwise rollover keeps variable-length month handling in a single place
// instead of a closed-form shortcut. A nil cadence means one-time and the
// anchor is returned unchanged, whatever now is.
//
// Each candidate is derived from the anchor, not the previous candidate, so
// monthly schedules keep the anchor's day of month across short months: an
// anchor on the 31st lands on Feb 28 (29 in leap years), then back on
// Mar 31.
func NextRun(c *domain.Cadence, anchor, now time.Time) time.Time {
	if c == nil {
		return anchor
	}
	candidate := anchor
	prev := anchor
	for k := 1; !candidate.After(now); k++ {
		candidate = advance(*c, anchor, k)
		if !candidate.After(prev) {
			// Malformed cadence (zero step); refuse to spin.
			return candidate
		}
		prev = candidate
	}
	return candidate
}

// advance returns the anchor moved forward by `steps` whole cadence
// intervals.
func advance(c domain.Cadence, anchor time.Time, steps int) time.Time {
	switch c.Kind {
	case domain.CadenceDaily:
		return anchor.AddDate(0, 0, steps)
	case domain.CadenceWeekly:
		return anchor.AddDate(0, 0, 7*steps)
	case domain.CadenceMonthly:
		return addMonthsClamped(anchor, steps)
	case domain.CadenceEvery:
		n := c.Interval
		if n < 1 {
			n = 1
		}
		switch c.Unit {
		case domain.UnitMinute:
			return anchor.Add(time.Duration(n*steps) * time.Minute)
		case domain.UnitHour:
			return anchor.Add(time.Duration(n*steps) * time.Hour)
		case domain.UnitDay:
			return anchor.AddDate(0, 0, n*steps)
		case domain.UnitWeek:
			return anchor.AddDate(0, 0, 7*n*steps)
		case domain.UnitMonth:
			return addMonthsClamped(anchor, n*steps)
		case domain.UnitYear:
			return addYearsClamped(anchor, n*steps)
		}
	}
	return anchor
}

// addMonthsClamped adds calendar months keeping the day of month, clamped to
// the target month's length. AddDate would overflow Jan 31 + 1 month into
// Mar 3; this clamps to Feb 28/29 instead.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	h, mi, s := t.Clock()
	first := time.Date(y, m+time.Month(months), 1, h, mi, s, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func addYearsClamped(t time.Time, years int) time.Time {
	y, m, d := t.Date()
	h, mi, s := t.Clock()
	if last := daysIn(y+years, m); d > last {
		d = last
	}
	return time.Date(y+years, m, d, h, mi, s, t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
