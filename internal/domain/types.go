package domain

import "time"

// Mode says whether a schedule fires once or repeats.
type Mode string

const (
	ModeOneTime   Mode = "one_time"
	ModeRecurring Mode = "recurring"
)

// Unit is the step unit of an "every N <unit>" cadence.
type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitWeek   Unit = "week"
	UnitMonth  Unit = "month"
	UnitYear   Unit = "year"
)

type CadenceKind string

const (
	CadenceDaily   CadenceKind = "daily"
	CadenceWeekly  CadenceKind = "weekly"
	CadenceMonthly CadenceKind = "monthly"
	CadenceEvery   CadenceKind = "every"
)

// Cadence describes how often a recurring schedule fires. Interval and Unit
// are only meaningful for CadenceEvery.
type Cadence struct {
	Kind     CadenceKind `json:"kind"`
	Interval int         `json:"interval,omitempty"`
	Unit     Unit        `json:"unit,omitempty"`
}

// ScheduleIntent is the transient, user-facing description of a schedule.
// Date and Time are wall-clock values interpreted in Timezone. It is built
// fresh for every create/edit and never persisted.
type ScheduleIntent struct {
	Mode     Mode     `json:"mode"`
	Date     string   `json:"date"` // YYYY-MM-DD
	Time     string   `json:"time"` // HH:MM
	Timezone string   `json:"timezone"`
	Cadence  *Cadence `json:"cadence,omitempty"`  // recurring only
	EndDate  string   `json:"end_date,omitempty"` // recurring only, optional
}

// TaskSchedule holds the computed schedule fields the assembler produces for
// the task store. Instants are UTC; CronExpression is interpreted relative
// to Timezone for display, while absolute firing is driven by NextRunAt.
type TaskSchedule struct {
	CronExpression string
	Timezone       string
	NextRunAt      time.Time
	StartDate      time.Time
	EndDate        *time.Time
	MaxExecutions  *int
}

// Task statuses.
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// Task is a persisted scheduled task row.
type Task struct {
	ID             string
	Name           string
	Instructions   string
	CronExpression string
	Timezone       string
	NextRunAt      time.Time
	StartDate      time.Time
	EndDate        *time.Time
	MaxExecutions  *int
	ExecutionCount int
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Execution is one recorded firing of a task.
type Execution struct {
	ID         int64
	TaskID     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Success    bool
	Error      string
}
