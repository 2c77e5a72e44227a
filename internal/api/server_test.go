package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"taskclock/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	if err := store.EnsureSchema(db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return NewServer(store.NewSQLiteRepo(db))
}

func TestCreateOneTimeTask(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"name": "send launch recap",
		"instructions": "post the launch recap to #general",
		"schedule": {"mode":"one_time","date":"2025-09-04","time":"14:00","timezone":"UTC"}
	}`
	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["next_run_at"] != "2025-09-04T14:00:00Z" {
		t.Fatalf("next_run_at = %v", resp["next_run_at"])
	}
	if resp["cron_expression"] != "@once" {
		t.Fatalf("cron_expression = %v", resp["cron_expression"])
	}
	if resp["max_executions"] != float64(1) {
		t.Fatalf("max_executions = %v", resp["max_executions"])
	}
	if resp["schedule_label"] != "One-time on 09/04/25 at 2:00 PM" {
		t.Fatalf("schedule_label = %v", resp["schedule_label"])
	}
}

func TestCreateRecurringTask(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"name": "weekly digest",
		"schedule": {
			"mode":"recurring","date":"2025-01-06","time":"08:00","timezone":"UTC",
			"cadence":{"kind":"weekly"}
		}
	}`
	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["cron_expression"] != "0 8 * * 1" {
		t.Fatalf("cron_expression = %v", resp["cron_expression"])
	}
	label, _ := resp["schedule_label"].(string)
	if !strings.HasPrefix(label, "Weekly on Monday at 8:00 AM") {
		t.Fatalf("schedule_label = %q", label)
	}

	// The created task shows up in the list with its label.
	listReq := httptest.NewRequest("GET", "/api/tasks", nil)
	listRec := httptest.NewRecorder()
	srv.ServeHTTP(listRec, listReq)
	if listRec.Code != 200 {
		t.Fatalf("list status = %d", listRec.Code)
	}
	var tasks []map[string]any
	if err := json.Unmarshal(listRec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(tasks) != 1 || tasks[0]["id"] != resp["id"] {
		t.Fatalf("list = %+v", tasks)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "missing name",
			body:     `{"schedule":{"mode":"one_time","date":"2025-09-04","time":"14:00","timezone":"UTC"}}`,
			wantCode: 400,
			wantMsg:  "name is required",
		},
		{
			name:     "unknown timezone names the field",
			body:     `{"name":"x","schedule":{"mode":"one_time","date":"2025-09-04","time":"14:00","timezone":"Mars/Olympus"}}`,
			wantCode: 400,
			wantMsg:  "timezone",
		},
		{
			name:     "end date before start",
			body:     `{"name":"x","schedule":{"mode":"recurring","date":"2025-05-01","time":"09:00","timezone":"UTC","cadence":{"kind":"daily"},"end_date":"2025-04-01"}}`,
			wantCode: 400,
			wantMsg:  "end_date",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/tasks", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantMsg) {
				t.Fatalf("body = %q, want mention of %q", rec.Body.String(), tt.wantMsg)
			}
		})
	}
}

func TestTimezonesEndpoint(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/timezones", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	var zones []string
	if err := json.Unmarshal(rec.Body.Bytes(), &zones); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, z := range zones {
		if z == "UTC" {
			found = true
		}
	}
	if !found {
		t.Fatal("UTC missing from timezone list")
	}
}
