package schedule

import (
	"fmt"
	"strings"
	"time"

	"taskclock/internal/domain"
)

// FormatLabel renders a task's schedule as a short human-readable string,
// e.g. "Weekly on Monday at 8:00 AM, ends 03/31/25" or
// "One-time on 09/04/25 at 2:00 PM". Expressions the parser does not
// recognize degrade to the raw cron string so list views keep rendering.
//
// now only controls the ", starts MM/DD/YY" suffix, shown while the schedule
// has not begun yet.
func FormatLabel(t domain.Task, now time.Time) string {
	if t.MaxExecutions != nil && *t.MaxExecutions == 1 {
		h, m := taskClock(t)
		return fmt.Sprintf("One-time on %s at %s", shortDate(t.NextRunAt), clock12(h, m))
	}

	p := ParseCron(t.CronExpression)
	if p == nil {
		return t.CronExpression
	}

	var b strings.Builder
	b.WriteString(cadencePhrase(p))
	h, m := labelClock(t, p)
	b.WriteString(" at ")
	b.WriteString(clock12(h, m))
	if !t.StartDate.IsZero() && t.StartDate.After(now) {
		b.WriteString(", starts ")
		b.WriteString(shortDate(t.StartDate))
	}
	if t.EndDate != nil {
		b.WriteString(", ends ")
		b.WriteString(shortDate(*t.EndDate))
	}
	return b.String()
}

// labelClock resolves the displayed time of day. For expressions that carry
// a full clock it is authoritative; otherwise the lookup order is sidecar
// annotation, then next_run_at rendered in the task's zone, then midnight.
// The ordering is part of the storage contract for sub-hour cadences and
// must stay stable.
func labelClock(t domain.Task, p *ParsedSchedule) (int, int) {
	if p.HasClock {
		return p.Hour, p.Minute
	}
	if h, m, ok := annotationTime(t.CronExpression); ok {
		return h, m
	}
	if !t.NextRunAt.IsZero() {
		h, m := taskClock(t)
		if p.Cadence.Unit == domain.UnitHour {
			// The cron minute field survives for hour steps; only the hour
			// is recovered from next_run_at.
			m = p.Minute
		}
		return h, m
	}
	if p.Cadence.Unit == domain.UnitHour {
		return 0, p.Minute
	}
	return 0, 0
}

// taskClock reads next_run_at's wall clock in the task's zone.
func taskClock(t domain.Task) (int, int) {
	loc := time.UTC
	if t.Timezone != "" {
		if l, err := time.LoadLocation(t.Timezone); err == nil {
			loc = l
		}
	}
	lt := t.NextRunAt.In(loc)
	return lt.Hour(), lt.Minute()
}

func cadencePhrase(p *ParsedSchedule) string {
	switch p.Cadence.Kind {
	case domain.CadenceDaily:
		return "Daily"
	case domain.CadenceWeekly:
		return "Weekly on " + p.Weekday.String()
	case domain.CadenceMonthly:
		return fmt.Sprintf("Monthly on day %d", p.MonthDay)
	case domain.CadenceEvery:
		return everyPhrase(p)
	}
	return string(p.Cadence.Kind)
}

func everyPhrase(p *ParsedSchedule) string {
	n := p.Cadence.Interval
	switch p.Cadence.Unit {
	case domain.UnitMinute:
		if n == 1 {
			return "Every minute"
		}
		return fmt.Sprintf("Every %d minutes", n)
	case domain.UnitHour:
		if n == 1 {
			return "Hourly"
		}
		return fmt.Sprintf("Every %d hours", n)
	case domain.UnitDay:
		if n == 1 {
			return "Every day"
		}
		return fmt.Sprintf("Every %d days", n)
	case domain.UnitYear:
		return fmt.Sprintf("Yearly on %s %d", p.Month, p.MonthDay)
	}
	return string(p.Cadence.Unit)
}

// shortDate formats the instant's own calendar components as MM/DD/YY.
// Rendering through a viewer-local zone could shift the displayed day, so
// the stored UTC components are used directly.
func shortDate(t time.Time) string {
	return t.UTC().Format("01/02/06")
}

func clock12(h, m int) string {
	return time.Date(2000, time.January, 1, h, m, 0, 0, time.UTC).Format("3:04 PM")
}
