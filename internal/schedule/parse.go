package schedule

import (
	"strconv"
	"strings"
	"time"

	"taskclock/internal/domain"
)

// ParsedSchedule is the cadence recovered from a stored cron expression.
// HasClock is false when the expression cannot carry a full time of day
// (minute-step crons carry nothing; hour-step crons carry only the minute).
type ParsedSchedule struct {
	Cadence  domain.Cadence
	Hour     int
	Minute   int
	HasClock bool
	Weekday  time.Weekday // weekly only
	MonthDay int          // monthly and yearly only
	Month    time.Month   // yearly only
}

// ParseCron recovers the cadence and wall-clock time from an expression
// produced by BuildCron. It recognizes, in order: minute-step, hour-step,
// day-step, plain daily, weekly-with-weekday, monthly-with-day and
// yearly-with-date shapes, and returns nil for anything else rather than
// guessing.
//
// Minute cadences cannot embed a time of day; the intended first-run time is
// taken from the sidecar annotation when present. Callers that also hold the
// task row fall back further to next_run_at (see FormatLabel).
func ParseCron(expr string) *ParsedSchedule {
	if expr == "" || expr == CronOnce {
		return nil
	}
	f := strings.Fields(StripAnnotation(expr))
	if len(f) != 5 {
		return nil
	}
	min, hour, dom, mon, dow := f[0], f[1], f[2], f[3], f[4]

	// */N * * * * or * * * * *
	if hour == "*" && dom == "*" && mon == "*" && dow == "*" &&
		(min == "*" || strings.HasPrefix(min, "*/")) {
		n := 1
		if strings.HasPrefix(min, "*/") {
			v, ok := parseField(min[2:], 1, 59)
			if !ok {
				return nil
			}
			n = v
		}
		p := &ParsedSchedule{
			Cadence: domain.Cadence{Kind: domain.CadenceEvery, Interval: n, Unit: domain.UnitMinute},
		}
		if h, m, ok := annotationTime(expr); ok {
			p.Hour, p.Minute, p.HasClock = h, m, true
		}
		return p
	}

	mi, miOK := parseField(min, 0, 59)
	if !miOK {
		return nil
	}

	// MM */N * * *
	if strings.HasPrefix(hour, "*/") && dom == "*" && mon == "*" && dow == "*" {
		n, ok := parseField(hour[2:], 1, 23)
		if !ok {
			return nil
		}
		return &ParsedSchedule{
			Cadence: domain.Cadence{Kind: domain.CadenceEvery, Interval: n, Unit: domain.UnitHour},
			Minute:  mi,
		}
	}

	hh, hhOK := parseField(hour, 0, 23)
	if !hhOK {
		return nil
	}

	// MM HH */N * *
	if strings.HasPrefix(dom, "*/") && mon == "*" && dow == "*" {
		n, ok := parseField(dom[2:], 1, 31)
		if !ok {
			return nil
		}
		return &ParsedSchedule{
			Cadence:  domain.Cadence{Kind: domain.CadenceEvery, Interval: n, Unit: domain.UnitDay},
			Hour:     hh,
			Minute:   mi,
			HasClock: true,
		}
	}

	// MM HH * * *
	if dom == "*" && mon == "*" && dow == "*" {
		return &ParsedSchedule{
			Cadence:  domain.Cadence{Kind: domain.CadenceDaily},
			Hour:     hh,
			Minute:   mi,
			HasClock: true,
		}
	}

	// MM HH * * D
	if dom == "*" && mon == "*" {
		d, ok := parseField(dow, 0, 6)
		if !ok {
			return nil
		}
		return &ParsedSchedule{
			Cadence:  domain.Cadence{Kind: domain.CadenceWeekly},
			Hour:     hh,
			Minute:   mi,
			HasClock: true,
			Weekday:  time.Weekday(d),
		}
	}

	// MM HH DOM * *
	if mon == "*" && dow == "*" {
		d, ok := parseField(dom, 1, 31)
		if !ok {
			return nil
		}
		return &ParsedSchedule{
			Cadence:  domain.Cadence{Kind: domain.CadenceMonthly},
			Hour:     hh,
			Minute:   mi,
			HasClock: true,
			MonthDay: d,
		}
	}

	// MM HH DOM MON *
	if dow == "*" {
		d, dok := parseField(dom, 1, 31)
		m, mok := parseField(mon, 1, 12)
		if !dok || !mok {
			return nil
		}
		return &ParsedSchedule{
			Cadence:  domain.Cadence{Kind: domain.CadenceEvery, Interval: 1, Unit: domain.UnitYear},
			Hour:     hh,
			Minute:   mi,
			HasClock: true,
			MonthDay: d,
			Month:    time.Month(m),
		}
	}

	return nil
}

func parseField(s string, lo, hi int) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}
