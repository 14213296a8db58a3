// Package jobx is a small background job queue with pluggable backends.
// The OCR reprocess path runs on it: an in-memory backend serves single
// process deployments, a Redis backend survives restarts.
package jobx

import (
	"context"
	"sync"
	"time"

	"github.com/relayhr/doccapture/pkg/errx"
	"github.com/relayhr/doccapture/pkg/logx"
)

// HandlerFunc executes one job. A nil return completes the job; an error
// fails it and, while attempts remain, schedules a retry.
type HandlerFunc func(ctx context.Context, job *Record) error

// Enqueuer submits jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) (string, error)
	EnqueueDelayed(ctx context.Context, job Job, delay time.Duration) (string, error)
}

// StatusReader reads back job state.
type StatusReader interface {
	GetJob(ctx context.Context, jobID string) (*Record, error)
}

// Backend is the full storage contract a queue implementation provides.
type Backend interface {
	Enqueuer
	StatusReader

	// Dequeue blocks until a job is ready on one of the queues or the
	// timeout passes; a nil record means timeout.
	Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*Record, error)
	Complete(ctx context.Context, jobID string, result []byte) error
	// Fail records the error and reports whether attempts remain.
	Fail(ctx context.Context, jobID string, errMsg string) (retry bool, err error)
	Retry(ctx context.Context, jobID string, delay time.Duration) error
	// PromoteDue moves scheduled jobs whose time has come onto the ready
	// queues.
	PromoteDue(ctx context.Context, queues []string) error
}

// Client enqueues jobs and runs the worker pool.
type Client struct {
	backend  Backend
	opts     WorkerOptions
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	running  bool
}

// NewClient wraps a backend with worker configuration.
func NewClient(backend Backend, options ...WorkerOption) *Client {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Client{backend: backend, opts: opts, handlers: make(map[string]HandlerFunc)}
}

// Register binds a handler to a job type. Jobs with no handler fail.
func (c *Client) Register(jobType string, handler HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[jobType] = handler
}

// Enqueue submits a job for immediate processing.
func (c *Client) Enqueue(ctx context.Context, job Job) (string, *errx.Error) {
	if job.Type == "" {
		return "", jobxErrors.New(ErrInvalidJob)
	}
	normalizeJob(&job)
	id, err := c.backend.Enqueue(ctx, job)
	if err != nil {
		return "", errx.Wrap(err, "enqueue failed", errx.TypeExternal)
	}
	return id, nil
}

// EnqueueDelayed submits a job that becomes ready after delay.
func (c *Client) EnqueueDelayed(ctx context.Context, job Job, delay time.Duration) (string, *errx.Error) {
	if job.Type == "" {
		return "", jobxErrors.New(ErrInvalidJob)
	}
	normalizeJob(&job)
	id, err := c.backend.EnqueueDelayed(ctx, job, delay)
	if err != nil {
		return "", errx.Wrap(err, "delayed enqueue failed", errx.TypeExternal)
	}
	return id, nil
}

// GetJob reads a job's current record.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Record, error) {
	return c.backend.GetJob(ctx, jobID)
}

func normalizeJob(job *Job) {
	if job.Queue == "" {
		job.Queue = "default"
	}
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = 3
	}
}

// Start runs the scheduler and worker goroutines until ctx is cancelled,
// then drains within the shutdown timeout.
func (c *Client) Start(ctx context.Context) *errx.Error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return jobxErrors.New(ErrAlreadyRunning)
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	logx.Infof("jobx: %d workers on queues %v", c.opts.Concurrency, c.opts.Queues)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.promoteLoop(ctx)
	}()
	for i := 0; i < c.opts.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.workerLoop(ctx, id)
		}(i)
	}

	<-ctx.Done()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logx.Info("jobx: workers stopped")
	case <-time.After(c.opts.ShutdownTimeout):
		logx.Warn("jobx: shutdown timed out before all workers finished")
	}
	return nil
}

func (c *Client) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.backend.PromoteDue(ctx, c.opts.Queues); err != nil && ctx.Err() == nil {
				logx.WithError(err).Warn("jobx: promoting scheduled jobs failed")
			}
		}
	}
}

func (c *Client) workerLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := c.backend.Dequeue(ctx, c.opts.Queues, c.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("jobx: worker %d dequeue failed", id)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.opts.PollInterval):
			}
			continue
		}
		if job == nil {
			continue
		}
		c.runJob(ctx, job)
	}
}

func (c *Client) runJob(ctx context.Context, job *Record) {
	c.mu.RLock()
	handler, ok := c.handlers[job.Type]
	c.mu.RUnlock()
	if !ok {
		logx.Warnf("jobx: no handler for type %q (id=%s)", job.Type, job.ID)
		_, _ = c.backend.Fail(ctx, job.ID, "no handler registered")
		return
	}

	if err := handler(ctx, job); err != nil {
		logx.WithError(err).Warnf("jobx: job %s (%s) failed on attempt %d", job.ID, job.Type, job.Attempts)
		retry, failErr := c.backend.Fail(ctx, job.ID, err.Error())
		if failErr != nil {
			logx.WithError(failErr).Errorf("jobx: recording failure of job %s failed", job.ID)
			return
		}
		if retry {
			if retryErr := c.backend.Retry(ctx, job.ID, c.opts.RetryDelay); retryErr != nil {
				logx.WithError(retryErr).Errorf("jobx: scheduling retry of job %s failed", job.ID)
			}
		}
		return
	}

	if err := c.backend.Complete(ctx, job.ID, nil); err != nil {
		logx.WithError(err).Errorf("jobx: completing job %s failed", job.ID)
	}
}
