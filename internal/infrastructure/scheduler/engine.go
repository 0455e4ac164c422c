package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobFunc is one periodic job body. It reports how many records it touched
// and how many failed; an error means the backing store itself was
// unreachable.
type JobFunc func(ctx context.Context) (processed, failed int, err error)

// Job is a named periodic task with its cadence
type Job struct {
	Name     string
	Interval time.Duration
	Run      JobFunc
	// RunOnStart fires the job once immediately when the engine starts
	RunOnStart bool
}

// JobStats is a snapshot of one job's run history
type JobStats struct {
	Name      string     `json:"name"`
	Interval  string     `json:"interval"`
	Runs      int64      `json:"runs"`
	Skipped   int64      `json:"skipped"`
	Failures  int64      `json:"failures"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Running   bool       `json:"running"`
}

// managedJob wraps a Job with its overlap guard and counters
type managedJob struct {
	Job
	mu        sync.Mutex
	running   bool
	runs      int64
	skipped   int64
	failures  int64
	lastRunAt *time.Time
	lastError string
}

// tryStart claims the job's single run slot; false means a previous run is
// still in flight and this tick must be dropped.
func (j *managedJob) tryStart() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		j.skipped++
		return false
	}
	j.running = true
	return true
}

func (j *managedJob) finish(at time.Time, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.running = false
	j.runs++
	j.lastRunAt = &at
	if err != nil {
		j.failures++
		j.lastError = err.Error()
	} else {
		j.lastError = ""
	}
}

func (j *managedJob) stats() JobStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobStats{
		Name:      j.Name,
		Interval:  j.Interval.String(),
		Runs:      j.runs,
		Skipped:   j.skipped,
		Failures:  j.failures,
		LastRunAt: j.lastRunAt,
		LastError: j.lastError,
		Running:   j.running,
	}
}

// Engine drives the registered jobs, one goroutine and ticker per job.
// Overlap policy is skip-not-queue: a tick arriving while the previous run
// is still going is dropped, so a slow pass can never build a backlog.
// Stop waits for in-flight runs to finish their current item.
type Engine struct {
	jobs    []*managedJob
	clock   Clock
	logger  *zap.Logger
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine creates a scheduler engine
func NewEngine(clock Clock, logger *zap.Logger) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	return &Engine{
		clock:  clock,
		logger: logger,
	}
}

// Register adds a job. Must be called before Start.
func (e *Engine) Register(job Job) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return fmt.Errorf("cannot register job %q while engine is running", job.Name)
	}
	if job.Name == "" || job.Run == nil || job.Interval <= 0 {
		return fmt.Errorf("job %q is malformed", job.Name)
	}
	for _, existing := range e.jobs {
		if existing.Name == job.Name {
			return fmt.Errorf("job %q already registered", job.Name)
		}
	}
	e.jobs = append(e.jobs, &managedJob{Job: job})
	return nil
}

// Start launches one timer loop per job
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("engine already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	jobs := e.jobs
	e.mu.Unlock()

	for _, job := range jobs {
		e.wg.Add(1)
		go e.loop(runCtx, job)
	}
	e.logger.Info("scheduler started", zap.Int("jobs", len(jobs)))
	return nil
}

func (e *Engine) loop(ctx context.Context, job *managedJob) {
	defer e.wg.Done()

	if job.RunOnStart {
		e.execute(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !job.tryStart() {
				e.logger.Warn("job tick skipped, previous run still in flight",
					zap.String("job", job.Name))
				continue
			}
			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				e.runClaimed(ctx, job)
			}()
		}
	}
}

// execute claims and runs the job inline (start-of-engine path)
func (e *Engine) execute(ctx context.Context, job *managedJob) {
	if !job.tryStart() {
		return
	}
	e.runClaimed(ctx, job)
}

// runClaimed runs a job whose slot is already claimed
func (e *Engine) runClaimed(ctx context.Context, job *managedJob) {
	started := e.clock.Now()
	processed, failed, err := job.Run(ctx)
	job.finish(e.clock.Now(), err)

	fields := []zap.Field{
		zap.String("job", job.Name),
		zap.Int("processed", processed),
		zap.Int("failed", failed),
		zap.Duration("took", e.clock.Now().Sub(started)),
	}
	if err != nil {
		e.logger.Error("job run failed", append(fields, zap.Error(err))...)
		return
	}
	e.logger.Debug("job run finished", fields...)
}

// TriggerNow runs a job out of band, honoring the overlap guard. Used by
// operational endpoints and tests.
func (e *Engine) TriggerNow(ctx context.Context, name string) error {
	e.mu.Lock()
	var job *managedJob
	for _, j := range e.jobs {
		if j.Name == name {
			job = j
			break
		}
	}
	e.mu.Unlock()
	if job == nil {
		return fmt.Errorf("unknown job %q", name)
	}
	if !job.tryStart() {
		return fmt.Errorf("job %q already running", name)
	}
	e.runClaimed(ctx, job)
	return nil
}

// Stats returns a snapshot of every job's counters
func (e *Engine) Stats() []JobStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]JobStats, len(e.jobs))
	for i, job := range e.jobs {
		out[i] = job.stats()
	}
	return out
}

// Stop cancels the timer loops and waits for in-flight runs to finish
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
