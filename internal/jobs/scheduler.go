package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// Job is a named background task that knows its own schedule
type Job interface {
	Name() string
	Run(ctx context.Context) error
	NextRun() time.Time
}

// Scheduler runs registered jobs on their own timers. Each job is
// rescheduled after it finishes, so a slow run delays only itself.
type Scheduler struct {
	jobs    []Job
	timers  map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds a job to the scheduler
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, job)
	log.Printf("✅ [SCHEDULER] Registered job: %s", job.Name())
}

// Start begins running all registered jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	log.Printf("🚀 [SCHEDULER] Starting %d jobs", len(s.jobs))
	for _, job := range s.jobs {
		s.schedule(job)
	}
}

// schedule arms the timer for one job. Caller holds s.mu.
func (s *Scheduler) schedule(job Job) {
	next := job.NextRun()
	duration := time.Until(next)
	if duration < 0 {
		duration = 0
	}

	log.Printf("⏰ [SCHEDULER] Job '%s' next run at %s (in %v)",
		job.Name(), next.Format(time.RFC3339), duration.Round(time.Second))

	s.timers[job.Name()] = time.AfterFunc(duration, func() {
		s.run(job)
	})
}

// run executes a job and reschedules it. The in-flight count is claimed
// under the lock while the scheduler is still running, so a timer firing
// concurrently with Stop either registers before the wait begins or returns
// without running.
func (s *Scheduler) run(job Job) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	start := time.Now()
	if err := job.Run(s.ctx); err != nil {
		log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", job.Name(), err)
	} else {
		log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", job.Name(), time.Since(start).Round(time.Millisecond))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.schedule(job)
	}
}

// RunNow runs a job immediately, outside its schedule
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	var found Job
	for _, job := range s.jobs {
		if job.Name() == name {
			found = job
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		log.Printf("⚠️ [SCHEDULER] Job '%s' not found", name)
		return nil
	}
	return found.Run(s.ctx)
}

// Stop cancels all timers and waits for in-flight runs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false

	for name, timer := range s.timers {
		timer.Stop()
		delete(s.timers, name)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	log.Println("✅ [SCHEDULER] Stopped")
}
