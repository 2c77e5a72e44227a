package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskclock/internal/domain"
	"taskclock/internal/schedule"
	"taskclock/internal/store"
)

type Server struct {
	r    *chi.Mux
	repo store.Repository
}

func NewServer(repo store.Repository) http.Handler {
	return NewServerWithDebug(repo, false)
}

func NewServerWithDebug(repo store.Repository, enableDebug bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	s := &Server{r: r, repo: repo}

	r.Get("/health", s.health)
	r.Get("/api/timezones", s.timezones)
	r.Post("/api/tasks", s.createTask)
	r.Get("/api/tasks", s.listTasks)
	r.Get("/api/tasks/{id}", s.getTask)
	r.Put("/api/tasks/{id}", s.updateTask)
	r.Delete("/api/tasks/{id}", s.deleteTask)
	r.Get("/api/tasks/{id}/executions", s.listExecutions)

	// Debug routes (pprof)
	if enableDebug {
		r.HandleFunc("/debug/pprof/", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
		r.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		r.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	}

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) timezones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, schedule.SupportedTimezones())
}

type taskReq struct {
	Name         string                `json:"name"`
	Instructions string                `json:"instructions"`
	Schedule     domain.ScheduleIntent `json:"schedule"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", 400)
		return
	}

	sched, err := schedule.Assemble(req.Schedule, time.Now().UTC())
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	if err := schedule.ValidateCron(sched.CronExpression); err != nil {
		http.Error(w, "invalid cron expression: "+err.Error(), 400)
		return
	}

	task := domain.Task{
		Name:           req.Name,
		Instructions:   req.Instructions,
		CronExpression: sched.CronExpression,
		Timezone:       sched.Timezone,
		NextRunAt:      sched.NextRunAt,
		StartDate:      sched.StartDate,
		EndDate:        sched.EndDate,
		MaxExecutions:  sched.MaxExecutions,
		Status:         domain.StatusActive,
	}
	id, err := s.repo.Create(r.Context(), task)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	task.ID = id
	writeJSON(w, http.StatusCreated, taskView(task))
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	views := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView(t))
	}
	writeJSON(w, 200, views)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := s.repo.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "not found", 404)
		return
	}
	writeJSON(w, 200, taskView(t))
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	task, err := s.repo.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "not found", 404)
		return
	}

	var req taskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if req.Name != "" {
		task.Name = req.Name
	}
	if req.Instructions != "" {
		task.Instructions = req.Instructions
	}
	// A present schedule intent replaces the schedule fields wholesale; the
	// intent is re-assembled, never patched field by field.
	if req.Schedule.Mode != "" {
		sched, err := schedule.Assemble(req.Schedule, time.Now().UTC())
		if err != nil {
			writeScheduleError(w, err)
			return
		}
		task.CronExpression = sched.CronExpression
		task.Timezone = sched.Timezone
		task.NextRunAt = sched.NextRunAt
		task.StartDate = sched.StartDate
		task.EndDate = sched.EndDate
		task.MaxExecutions = sched.MaxExecutions
		task.Status = domain.StatusActive
	}

	if err := s.repo.Update(r.Context(), task); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, 200, taskView(task))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.repo.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listExecutions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	execs, err := s.repo.ListExecutions(r.Context(), id, limit)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	views := make([]map[string]any, 0, len(execs))
	for _, e := range execs {
		v := map[string]any{
			"id":         e.ID,
			"started_at": e.StartedAt.Format(time.RFC3339),
			"success":    e.Success,
		}
		if e.FinishedAt != nil {
			v["finished_at"] = e.FinishedAt.Format(time.RFC3339)
		}
		if e.Error != "" {
			v["error"] = e.Error
		}
		views = append(views, v)
	}
	writeJSON(w, 200, views)
}

func taskView(t domain.Task) map[string]any {
	v := map[string]any{
		"id":              t.ID,
		"name":            t.Name,
		"instructions":    t.Instructions,
		"schedule_label":  schedule.FormatLabel(t, time.Now().UTC()),
		"cron_expression": t.CronExpression,
		"timezone":        t.Timezone,
		"next_run_at":     t.NextRunAt.UTC().Format(time.RFC3339),
		"start_date":      t.StartDate.UTC().Format(time.RFC3339),
		"execution_count": t.ExecutionCount,
		"status":          t.Status,
	}
	if t.EndDate != nil {
		v["end_date"] = t.EndDate.UTC().Format(time.RFC3339)
	}
	if t.MaxExecutions != nil {
		v["max_executions"] = *t.MaxExecutions
	}
	return v
}

// writeScheduleError maps assembler failures: validation problems name the
// offending field with a 400, anything else is a 500.
func writeScheduleError(w http.ResponseWriter, err error) {
	var verr *schedule.ValidationError
	if errors.As(err, &verr) {
		http.Error(w, "invalid schedule: "+verr.Error(), 400)
		return
	}
	http.Error(w, err.Error(), 500)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
