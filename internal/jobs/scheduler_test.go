package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/config"
)

type stubPayments struct{ calls int }

func (s *stubPayments) ExpireStale(context.Context) (int64, error) {
	s.calls++
	return 3, nil
}

type stubSubs struct{ err error }

func (s stubSubs) ExpireEnded(context.Context) (int, error) { return 2, s.err }

type stubContracts struct{}

func (stubContracts) ExpireEnded(context.Context) (int64, error) { return 0, nil }

func TestRegisterRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler(context.Background())
	err := s.Register(Task{Name: "broken", Schedule: "not a cron", Run: func(context.Context) (int64, error) { return 0, nil }})
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestRegisterSkipsBlankSchedule(t *testing.T) {
	s := NewScheduler(context.Background())
	if err := s.Register(Task{Name: "off"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(s.cron.Entries()); got != 0 {
		t.Fatalf("entries = %d, want 0", got)
	}
}

func TestTasksWiresConfiguredSchedules(t *testing.T) {
	cfg := config.JobsConfig{
		ExpirePendingPayments: "@every 15m",
		ExpireSubscriptions:   "0 3 * * *",
		ExpireContracts:       "30 3 * * *",
	}
	payments := &stubPayments{}
	tasks := Tasks(cfg, payments, stubSubs{}, stubContracts{})
	if len(tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(tasks))
	}

	s := NewScheduler(context.Background())
	for _, task := range tasks {
		if err := s.Register(task); err != nil {
			t.Fatalf("register %s: %v", task.Name, err)
		}
	}
	if got := len(s.cron.Entries()); got != 3 {
		t.Fatalf("entries = %d, want 3", got)
	}

	n, err := tasks[0].Run(context.Background())
	if err != nil || n != 3 || payments.calls != 1 {
		t.Fatalf("pending payment task: n=%d err=%v calls=%d", n, err, payments.calls)
	}
	n, err = tasks[1].Run(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("subscription task: n=%d err=%v", n, err)
	}
}

func TestRunAppliesTimeoutAndSurvivesErrors(t *testing.T) {
	s := NewScheduler(context.Background())
	var deadline time.Time
	s.run(Task{
		Name:    "failing",
		Timeout: time.Second,
		Run: func(ctx context.Context) (int64, error) {
			deadline, _ = ctx.Deadline()
			return 0, errors.New("db down")
		},
	})
	if deadline.IsZero() || time.Until(deadline) > time.Second {
		t.Fatalf("deadline not applied: %v", deadline)
	}
}
