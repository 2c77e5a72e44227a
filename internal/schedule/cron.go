package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"taskclock/internal/domain"
)

// CronOnce is the sentinel expression stored for one-time tasks. The
// executor treats it as "fire once at next_run_at"; it is never handed to a
// cron parser.
const CronOnce = "@once"

// annotationSep separates the standard cron fields from the sidecar time
// annotation. Consumers that only speak plain cron strip from here on.
const annotationSep = " # "

// BuildCron renders a cadence and wall-clock time as a canonical 5-field
// cron expression.
//
// Weekly and monthly cadences derive their day field from anchorDate, never
// from the current date, so the same intent always produces the same
// expression. Sub-hour cadences cannot carry a time of day in standard cron;
// the intended first-run time rides along as a sidecar annotation
// ("*/5 * * * * # time=14:30").
func BuildCron(c domain.Cadence, clock, anchorDate string) (string, error) {
	h, mi, err := parseClock("time", clock)
	if err != nil {
		return "", err
	}
	switch c.Kind {
	case domain.CadenceDaily:
		return fmt.Sprintf("%d %d * * *", mi, h), nil
	case domain.CadenceWeekly:
		wd, err := anchorWeekday(anchorDate)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d * * %d", mi, h, int(wd)), nil
	case domain.CadenceMonthly:
		_, _, d, err := parseDate("date", anchorDate)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d %d * *", mi, h, d), nil
	case domain.CadenceEvery:
		return buildEvery(c, h, mi, anchorDate)
	default:
		return "", invalidf("cadence", "unknown kind %q", c.Kind)
	}
}

func buildEvery(c domain.Cadence, h, mi int, anchorDate string) (string, error) {
	if c.Interval < 1 {
		return "", invalidf("cadence", "interval must be >= 1, got %d", c.Interval)
	}
	switch c.Unit {
	case domain.UnitMinute:
		expr := "* * * * *"
		if c.Interval > 1 {
			expr = fmt.Sprintf("*/%d * * * *", c.Interval)
		}
		return fmt.Sprintf("%s%stime=%02d:%02d", expr, annotationSep, h, mi), nil
	case domain.UnitHour:
		return fmt.Sprintf("%d */%d * * *", mi, c.Interval), nil
	case domain.UnitDay:
		return fmt.Sprintf("%d %d */%d * *", mi, h, c.Interval), nil
	case domain.UnitWeek:
		// Cron cannot carry a multi-week step; the rollover in NextRun owns
		// the interval and the expression keeps the weekly shape.
		wd, err := anchorWeekday(anchorDate)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d * * %d", mi, h, int(wd)), nil
	case domain.UnitMonth:
		_, _, d, err := parseDate("date", anchorDate)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d %d * *", mi, h, d), nil
	case domain.UnitYear:
		_, mo, d, err := parseDate("date", anchorDate)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d %d %d *", mi, h, d, int(mo)), nil
	default:
		return "", invalidf("cadence", "unknown unit %q", c.Unit)
	}
}

func anchorWeekday(anchorDate string) (time.Weekday, error) {
	y, mo, d, err := parseDate("date", anchorDate)
	if err != nil {
		return 0, err
	}
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC).Weekday(), nil
}

// StripAnnotation returns the standard cron portion of expr, dropping any
// sidecar time annotation.
func StripAnnotation(expr string) string {
	if i := strings.Index(expr, annotationSep); i >= 0 {
		expr = expr[:i]
	}
	return strings.TrimSpace(expr)
}

// annotationTime reads the "time=HH:MM" sidecar from expr, if present.
func annotationTime(expr string) (h, m int, ok bool) {
	i := strings.Index(expr, annotationSep)
	if i < 0 {
		return 0, 0, false
	}
	for _, part := range strings.Fields(expr[i+len(annotationSep):]) {
		v, found := strings.CutPrefix(part, "time=")
		if !found {
			continue
		}
		if hh, mm, err := parseClock("time", v); err == nil {
			return hh, mm, true
		}
	}
	return 0, 0, false
}

// ValidateCron checks the standard portion of expr against the executor's
// cron parser. The one-time sentinel is always valid.
func ValidateCron(expr string) error {
	if expr == CronOnce {
		return nil
	}
	_, err := cron.ParseStandard(StripAnnotation(expr))
	return err
}
