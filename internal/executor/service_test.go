package executor

import (
	"testing"
	"time"

	"taskclock/internal/domain"
)

func instant(t *testing.T, v string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		t.Fatalf("bad instant %q: %v", v, err)
	}
	return ts
}

func intptr(n int) *int { return &n }

func TestNextFiring(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		task  domain.Task
		after string
		want  string
	}{
		{
			name:  "daily in task zone",
			task:  domain.Task{CronExpression: "0 9 * * *", Timezone: "America/New_York"},
			after: "2025-01-01T15:00:00Z", // 10:00 EST, past today's 09:00
			want:  "2025-01-02T14:00:00Z", // 09:00 EST next day
		},
		{
			name:  "sidecar annotation is stripped",
			task:  domain.Task{CronExpression: "*/5 * * * * # time=14:30", Timezone: "UTC"},
			after: "2025-01-01T09:02:00Z",
			want:  "2025-01-01T09:05:00Z",
		},
		{
			name:  "unknown zone falls back to utc",
			task:  domain.Task{CronExpression: "0 9 * * *", Timezone: "Nowhere/Else"},
			after: "2025-01-01T10:00:00Z",
			want:  "2025-01-02T09:00:00Z",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextFiring(tt.task, instant(t, tt.after))
			if err != nil {
				t.Fatalf("NextFiring error: %v", err)
			}
			if want := instant(t, tt.want); !got.Equal(want) {
				t.Fatalf("NextFiring = %s, want %s", got.Format(time.RFC3339), tt.want)
			}
		})
	}
}

func TestNextFiringRejectsSentinel(t *testing.T) {
	t.Parallel()
	if _, err := NextFiring(domain.Task{CronExpression: "@once"}, time.Now()); err == nil {
		t.Fatal("expected error for the one-time sentinel")
	}
}

func TestAdvance(t *testing.T) {
	t.Parallel()
	s := NewService(nil, nil, time.Second, 1)
	now := instant(t, "2025-01-01T09:00:00Z")
	end := instant(t, "2025-01-01T12:00:00Z")

	t.Run("one time completes", func(t *testing.T) {
		task := domain.Task{
			CronExpression: "@once",
			NextRunAt:      now,
			MaxExecutions:  intptr(1),
		}
		next, completed := s.advance(task, now)
		if !completed {
			t.Fatal("expected completion")
		}
		if !next.Equal(now) {
			t.Fatalf("next = %s, want unchanged", next)
		}
	})

	t.Run("recurring advances", func(t *testing.T) {
		task := domain.Task{CronExpression: "0 9 * * *", Timezone: "UTC", NextRunAt: now}
		next, completed := s.advance(task, now)
		if completed {
			t.Fatal("unexpected completion")
		}
		if want := instant(t, "2025-01-02T09:00:00Z"); !next.Equal(want) {
			t.Fatalf("next = %s, want %s", next.Format(time.RFC3339), want.Format(time.RFC3339))
		}
	})

	t.Run("end date exhausts schedule", func(t *testing.T) {
		task := domain.Task{CronExpression: "0 9 * * *", Timezone: "UTC", NextRunAt: now, EndDate: &end}
		_, completed := s.advance(task, now)
		if !completed {
			t.Fatal("expected completion past end date")
		}
	})

	t.Run("max executions exhausts schedule", func(t *testing.T) {
		task := domain.Task{
			CronExpression: "0 9 * * *",
			Timezone:       "UTC",
			NextRunAt:      now,
			MaxExecutions:  intptr(3),
			ExecutionCount: 2,
		}
		_, completed := s.advance(task, now)
		if !completed {
			t.Fatal("expected completion at max executions")
		}
	})

	t.Run("broken cron completes instead of spinning", func(t *testing.T) {
		task := domain.Task{CronExpression: "not a cron", Timezone: "UTC", NextRunAt: now}
		_, completed := s.advance(task, now)
		if !completed {
			t.Fatal("expected completion for unparseable cron")
		}
	})
}
