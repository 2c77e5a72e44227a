package executor

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"taskclock/internal/domain"
	"taskclock/internal/schedule"
	"taskclock/internal/store"
)

// Runner executes a due task (posting it to the agent service, logging it,
// etc.).
type Runner interface {
	Run(ctx context.Context, task domain.Task) error
}

// Service polls the store for due tasks and fires them. Each firing advances
// next_run_at before the run is dispatched so a slow run cannot double-fire,
// and records an execution row when it finishes.
type Service struct {
	repo     store.Repository
	runner   Runner
	interval time.Duration
	sem      chan struct{}
	stop     chan struct{}
}

func NewService(repo store.Repository, runner Runner, checkInterval time.Duration, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		repo:     repo,
		runner:   runner,
		interval: checkInterval,
		sem:      make(chan struct{}, concurrency),
		stop:     make(chan struct{}),
	}
}

func (s *Service) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("executor started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.processDue(ctx, now.UTC())
		}
	}
}

func (s *Service) Stop() {
	close(s.stop)
}

func (s *Service) processDue(ctx context.Context, now time.Time) {
	tasks, err := s.repo.Due(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to get due tasks")
		return
	}
	for _, task := range tasks {
		if err := s.fire(ctx, task, now); err != nil {
			log.Error().Err(err).Str("task_id", task.ID).Msg("failed to fire task")
		}
	}
}

func (s *Service) fire(ctx context.Context, task domain.Task, now time.Time) error {
	next, completed := s.advance(task, now)
	if err := s.repo.MarkRun(ctx, task.ID, next, completed); err != nil {
		return err
	}

	s.sem <- struct{}{}
	go func(t domain.Task) {
		defer func() { <-s.sem }()
		started := time.Now().UTC()
		err := s.runner.Run(ctx, t)
		finished := time.Now().UTC()

		exec := domain.Execution{
			TaskID:     t.ID,
			StartedAt:  started,
			FinishedAt: &finished,
			Success:    err == nil,
		}
		if err != nil {
			exec.Error = err.Error()
			log.Error().Err(err).Str("task_id", t.ID).Str("task_name", t.Name).Msg("task run failed")
		}
		if recErr := s.repo.RecordExecution(ctx, exec); recErr != nil {
			log.Error().Err(recErr).Str("task_id", t.ID).Msg("failed to record execution")
		}
	}(task)

	log.Info().
		Str("task_id", task.ID).
		Str("task_name", task.Name).
		Time("next_run", next).
		Bool("completed", completed).
		Msg("task fired")
	return nil
}

// advance computes the follow-up next_run_at after a firing at now, and
// whether the schedule is exhausted. One-time tasks (max_executions reached)
// and schedules past their end date complete; a cron the parser rejects also
// completes rather than spinning on every tick.
func (s *Service) advance(task domain.Task, now time.Time) (time.Time, bool) {
	if task.MaxExecutions != nil && task.ExecutionCount+1 >= *task.MaxExecutions {
		return task.NextRunAt, true
	}
	next, err := NextFiring(task, now)
	if err != nil {
		log.Error().Err(err).Str("task_id", task.ID).Str("cron", task.CronExpression).Msg("invalid cron expression")
		return task.NextRunAt, true
	}
	if task.EndDate != nil && next.After(*task.EndDate) {
		return next, true
	}
	return next, false
}

// NextFiring evaluates the task's cron in its display zone and returns the
// occurrence after `after` as a UTC instant. The sidecar time annotation is
// stripped first; the sentinel one-time expression is rejected.
func NextFiring(task domain.Task, after time.Time) (time.Time, error) {
	cs, err := cron.ParseStandard(schedule.StripAnnotation(task.CronExpression))
	if err != nil {
		return time.Time{}, err
	}
	loc := time.UTC
	if task.Timezone != "" {
		if l, lerr := time.LoadLocation(task.Timezone); lerr == nil {
			loc = l
		}
	}
	return cs.Next(after.In(loc)).UTC(), nil
}
