package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"taskclock/internal/domain"
)

var ErrNotFound = errors.New("task not found")

// EnsureSchema creates tables if they don't exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
PRAGMA journal_mode=WAL;
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  instructions TEXT NOT NULL DEFAULT '',
  cron_expression TEXT NOT NULL,
  timezone TEXT NOT NULL,
  next_run_at DATETIME NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME,
  max_executions INTEGER,
  execution_count INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL CHECK(status IN ('active','paused','completed')) DEFAULT 'active',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(status, next_run_at);
CREATE TABLE IF NOT EXISTS task_executions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  task_id TEXT NOT NULL,
  started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  finished_at DATETIME,
  success INTEGER NOT NULL DEFAULT 0,
  error TEXT,
  FOREIGN KEY(task_id) REFERENCES tasks(id)
);
CREATE INDEX IF NOT EXISTS idx_executions_task ON task_executions(task_id, started_at DESC);
`
	_, err := db.Exec(schema)
	return err
}

type Repository interface {
	Create(ctx context.Context, t domain.Task) (string, error)
	Get(ctx context.Context, id string) (domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, t domain.Task) error
	Delete(ctx context.Context, id string) error

	// Due returns active tasks whose next_run_at is at or before now.
	Due(ctx context.Context, now time.Time) ([]domain.Task, error)
	// MarkRun advances a fired task: bumps execution_count, moves
	// next_run_at to next, and completes the task when completed is true.
	MarkRun(ctx context.Context, id string, next time.Time, completed bool) error

	RecordExecution(ctx context.Context, e domain.Execution) error
	ListExecutions(ctx context.Context, taskID string, limit int) ([]domain.Execution, error)
}

type sqliteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) Repository { return &sqliteRepo{db: db} }

const taskCols = `id,name,instructions,cron_expression,timezone,next_run_at,start_date,end_date,max_executions,execution_count,status,created_at,updated_at`

func (r *sqliteRepo) Create(ctx context.Context, t domain.Task) (string, error) {
	id := t.ID
	if id == "" {
		id = "tsk_" + uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.StatusActive
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO tasks (id,name,instructions,cron_expression,timezone,next_run_at,start_date,end_date,max_executions,execution_count,status,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,0,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)
`, id, t.Name, t.Instructions, t.CronExpression, t.Timezone, t.NextRunAt, t.StartDate, nullTime(t.EndDate), nullInt(t.MaxExecutions), t.Status)
	return id, err
}

func (r *sqliteRepo) Get(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id=?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return domain.Task{}, ErrNotFound
	}
	return t, err
}

func (r *sqliteRepo) List(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskCols+` FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *sqliteRepo) Update(ctx context.Context, t domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE tasks SET name=?,instructions=?,cron_expression=?,timezone=?,next_run_at=?,start_date=?,end_date=?,max_executions=?,status=?,updated_at=CURRENT_TIMESTAMP
WHERE id=?`, t.Name, t.Instructions, t.CronExpression, t.Timezone, t.NextRunAt, t.StartDate, nullTime(t.EndDate), nullInt(t.MaxExecutions), t.Status, t.ID)
	return err
}

func (r *sqliteRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id)
	return err
}

func (r *sqliteRepo) Due(ctx context.Context, now time.Time) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+taskCols+` FROM tasks WHERE status='active' AND next_run_at <= ? ORDER BY next_run_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *sqliteRepo) MarkRun(ctx context.Context, id string, next time.Time, completed bool) error {
	status := domain.StatusActive
	if completed {
		status = domain.StatusCompleted
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE tasks SET execution_count=execution_count+1, next_run_at=?, status=?, updated_at=CURRENT_TIMESTAMP
WHERE id=?`, next, status, id)
	return err
}

func (r *sqliteRepo) RecordExecution(ctx context.Context, e domain.Execution) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO task_executions(task_id, started_at, finished_at, success, error)
VALUES (?,?,?,?,?)`, e.TaskID, e.StartedAt, nullTime(e.FinishedAt), e.Success, e.Error)
	return err
}

func (r *sqliteRepo) ListExecutions(ctx context.Context, taskID string, limit int) ([]domain.Execution, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id,task_id,started_at,finished_at,success,error
FROM task_executions WHERE task_id=? ORDER BY started_at DESC LIMIT ?`, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var execs []domain.Execution
	for rows.Next() {
		var e domain.Execution
		var finished sql.NullTime
		var errStr sql.NullString
		if err := rows.Scan(&e.ID, &e.TaskID, &e.StartedAt, &finished, &e.Success, &errStr); err != nil {
			return nil, err
		}
		if finished.Valid {
			e.FinishedAt = &finished.Time
		}
		if errStr.Valid {
			e.Error = errStr.String
		}
		execs = append(execs, e)
	}
	return execs, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var end sql.NullTime
	var maxExec sql.NullInt64
	err := row.Scan(&t.ID, &t.Name, &t.Instructions, &t.CronExpression, &t.Timezone,
		&t.NextRunAt, &t.StartDate, &end, &maxExec, &t.ExecutionCount, &t.Status,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	if end.Valid {
		t.EndDate = &end.Time
	}
	if maxExec.Valid {
		n := int(maxExec.Int64)
		t.MaxExecutions = &n
	}
	return t, nil
}

func collectTasks(rows *sql.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
