package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of background work carrying an opaque payload.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a single job. A non-nil error triggers a retry.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool. Zero values fall back to defaults.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = c.Workers * 4
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Queue dispatches jobs to a fixed pool of goroutines. Jobs live only in
// process memory; anything still buffered when the process exits is lost,
// which is acceptable for the best-effort notifications it carries.
type Queue struct {
	name string
	run  Handler
	cfg  QueueConfig
	log  *zap.SugaredLogger

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	wg      sync.WaitGroup
	started bool
}

// NewQueue builds a named queue that feeds every job to handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg = cfg.withDefaults()
	return &Queue{
		name: name,
		run:  handler,
		cfg:  cfg,
		log:  cfg.Logger.Sugar().With("queue", name),
		jobs: make(chan Job, cfg.BufferSize),
	}
}

// Start launches the worker pool. Subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(q.cfg.Workers)
	for i := 0; i < q.cfg.Workers; i++ {
		go q.work()
	}
	q.started = true
	q.log.Infow("queue started", "workers", q.cfg.Workers)
}

// Stop cancels the pool and blocks until every worker has returned.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.log.Infow("queue stopped")
}

// Enqueue hands a job to the pool, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx, started := q.ctx, q.started
	q.mu.Unlock()
	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.run(q.ctx, job); err != nil {
				q.retry(job, err)
			}
		}
	}
}

// retry requeues the job after a delay that doubles with each attempt.
func (q *Queue) retry(job Job, cause error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.log.Errorw("job dropped after retries", "job_id", job.ID, "type", job.Type, "error", cause)
		return
	}
	delay := q.cfg.RetryDelay << (job.Attempt - 1)
	q.log.Warnw("job failed", "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "retry_in", delay, "error", cause)

	go func() {
		select {
		case <-q.ctx.Done():
		case <-time.After(delay):
			if err := q.Enqueue(job); err != nil {
				q.log.Errorw("requeue failed", "job_id", job.ID, "error", err)
			}
		}
	}()
}
