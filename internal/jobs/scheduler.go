// Package jobs runs the periodic maintenance of the CRM: expiring stale
// checkouts, ended subscriptions and ended contracts.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 2 * time.Minute

// Task is one scheduled job. Run returns how many rows it touched.
type Task struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) (int64, error)
}

// Scheduler owns the cron runner. Panics in a task are recovered and a task
// still running when its next tick fires is skipped.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewScheduler(ctx context.Context) *Scheduler {
	logger := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
		ctx: ctx,
	}
}

// Register adds a task. Blank specs disable the task.
func (s *Scheduler) Register(t Task) error {
	if t.Schedule == "" {
		log.WithField("job", t.Name).Info("jobs: disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(t.Schedule, func() { s.run(t) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", t.Name, t.Schedule, err)
	}
	log.WithFields(log.Fields{"job": t.Name, "schedule": t.Schedule}).Info("jobs: scheduled")
	return nil
}

func (s *Scheduler) run(t Task) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	start := time.Now()
	n, err := t.Run(ctx)
	fields := log.Fields{"job": t.Name, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		log.WithError(err).WithFields(fields).Error("jobs: run failed")
		return
	}
	fields["affected"] = n
	if n > 0 {
		log.WithFields(fields).Info("jobs: run finished")
		return
	}
	log.WithFields(fields).Debug("jobs: run finished")
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for running tasks up to ctx's deadline
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn("jobs: stop timed out with tasks still running")
	}
}
