package schedule

import (
	"time"

	"taskclock/internal/domain"
)

// Assemble turns a transient schedule intent into the schedule fields the
// task store persists. now anchors the recurring rollover: calling twice
// with identical arguments yields an identical result, while a later now may
// yield a later next_run_at.
func Assemble(intent domain.ScheduleIntent, now time.Time) (domain.TaskSchedule, error) {
	switch intent.Mode {
	case domain.ModeOneTime:
		return assembleOneTime(intent)
	case domain.ModeRecurring:
		return assembleRecurring(intent, now)
	default:
		return domain.TaskSchedule{}, invalidf("mode", "want one_time or recurring, got %q", intent.Mode)
	}
}

func assembleOneTime(intent domain.ScheduleIntent) (domain.TaskSchedule, error) {
	at, err := ToInstant(intent.Date, intent.Time, intent.Timezone)
	if err != nil {
		return domain.TaskSchedule{}, err
	}
	one := 1
	return domain.TaskSchedule{
		CronExpression: CronOnce,
		Timezone:       intent.Timezone,
		NextRunAt:      at,
		StartDate:      at,
		MaxExecutions:  &one,
	}, nil
}

func assembleRecurring(intent domain.ScheduleIntent, now time.Time) (domain.TaskSchedule, error) {
	if intent.Cadence == nil {
		return domain.TaskSchedule{}, invalidf("cadence", "required for recurring schedules")
	}
	first, err := ToInstant(intent.Date, intent.Time, intent.Timezone)
	if err != nil {
		return domain.TaskSchedule{}, err
	}
	expr, err := BuildCron(*intent.Cadence, intent.Time, intent.Date)
	if err != nil {
		return domain.TaskSchedule{}, err
	}
	// Midnight anchor; weekly and monthly day fields derive from it.
	start, err := ToInstant(intent.Date, "00:00", intent.Timezone)
	if err != nil {
		return domain.TaskSchedule{}, err
	}

	sched := domain.TaskSchedule{
		CronExpression: expr,
		Timezone:       intent.Timezone,
		NextRunAt:      NextRun(intent.Cadence, first, now),
		StartDate:      start,
	}

	if intent.EndDate != "" {
		y, mo, d, err := parseDate("end_date", intent.EndDate)
		if err != nil {
			return domain.TaskSchedule{}, err
		}
		loc, err := LoadZone(intent.Timezone)
		if err != nil {
			return domain.TaskSchedule{}, err
		}
		// Last valid instant of the end date.
		end := instantAt(y, mo, d, 23, 59, 59, loc)
		if end.Before(first) {
			return domain.TaskSchedule{}, invalidf("end_date", "%s precedes start date %s", intent.EndDate, intent.Date)
		}
		sched.EndDate = &end
	}
	return sched, nil
}
