package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	name  string
	every time.Duration
	runs  atomic.Int64
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return nil
}

func (j *countingJob) NextRun() time.Time { return time.Now().Add(j.every) }

func TestSchedulerRunsAndReschedules(t *testing.T) {
	job := &countingJob{name: "counter", every: 10 * time.Millisecond}

	s := NewScheduler()
	s.Register(job)
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for job.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := job.runs.Load(); got < 2 {
		t.Errorf("job ran %d times, want at least 2 (run + reschedule)", got)
	}
}

func TestSchedulerStopPreventsFurtherRuns(t *testing.T) {
	job := &countingJob{name: "counter", every: 5 * time.Millisecond}

	s := NewScheduler()
	s.Register(job)
	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for job.runs.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}

	s.Stop()
	after := job.runs.Load()

	time.Sleep(50 * time.Millisecond)
	if got := job.runs.Load(); got != after {
		t.Errorf("job ran %d more times after Stop", got-after)
	}
}

func TestSchedulerStopDuringTimerFire(t *testing.T) {
	// Jobs firing constantly while Stop runs must neither panic nor run
	// after the stop completes.
	for i := 0; i < 20; i++ {
		job := &countingJob{name: "racer", every: 0}

		s := NewScheduler()
		s.Register(job)
		s.Start()
		time.Sleep(time.Millisecond)
		s.Stop()

		after := job.runs.Load()
		time.Sleep(5 * time.Millisecond)
		if got := job.runs.Load(); got != after {
			t.Fatalf("iteration %d: job ran after Stop", i)
		}
	}
}

func TestSchedulerRunNow(t *testing.T) {
	job := &countingJob{name: "manual", every: time.Hour}

	s := NewScheduler()
	s.Register(job)
	s.Start()
	defer s.Stop()

	if err := s.RunNow("manual"); err != nil {
		t.Fatalf("RunNow failed: %v", err)
	}
	if got := job.runs.Load(); got != 1 {
		t.Errorf("job ran %d times, want 1", got)
	}

	// Unknown names are a logged no-op.
	if err := s.RunNow("missing"); err != nil {
		t.Errorf("RunNow for unknown job returned %v, want nil", err)
	}
}
