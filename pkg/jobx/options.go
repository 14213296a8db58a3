package jobx

import "time"

// WorkerOptions configures the processing client.
type WorkerOptions struct {
	Queues          []string
	Concurrency     int
	PollInterval    time.Duration
	DequeueTimeout  time.Duration
	RetryDelay      time.Duration
	ShutdownTimeout time.Duration
}

func defaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Queues:          []string{"default"},
		Concurrency:     2,
		PollInterval:    time.Second,
		DequeueTimeout:  5 * time.Second,
		RetryDelay:      15 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// WorkerOption mutates worker options.
type WorkerOption func(*WorkerOptions)

// WithQueues sets the queues the worker drains.
func WithQueues(queues ...string) WorkerOption {
	return func(o *WorkerOptions) { o.Queues = queues }
}

// WithConcurrency sets the number of worker goroutines.
func WithConcurrency(n int) WorkerOption {
	return func(o *WorkerOptions) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithPollInterval sets the idle pause between dequeue attempts.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

// WithRetryDelay sets the delay before a failed job runs again.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d >= 0 {
			o.RetryDelay = d
		}
	}
}

// WithShutdownTimeout bounds the drain on shutdown.
func WithShutdownTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}
