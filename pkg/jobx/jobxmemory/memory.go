// Package jobxmemory is the in-process jobx backend. State lives and dies
// with the process, which is the right scope for session-bound work when no
// Redis is configured.
package jobxmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relayhr/doccapture/pkg/jobx"
)

type scheduled struct {
	id    string
	queue string
	due   time.Time
}

// MemoryBackend implements jobx.Backend with plain in-process state.
type MemoryBackend struct {
	mu        sync.Mutex
	records   map[string]*jobx.Record
	ready     map[string][]string
	scheduled []scheduled

	// signal wakes one blocked Dequeue when work arrives.
	signal chan struct{}
}

// New returns an empty backend.
func New() *MemoryBackend {
	return &MemoryBackend{
		records: make(map[string]*jobx.Record),
		ready:   make(map[string][]string),
		signal:  make(chan struct{}, 1),
	}
}

func (b *MemoryBackend) newRecord(job jobx.Job) *jobx.Record {
	now := time.Now().UTC()
	return &jobx.Record{
		ID:          uuid.NewString(),
		Type:        job.Type,
		Queue:       job.Queue,
		Payload:     job.Payload,
		State:       jobx.StateQueued,
		MaxAttempts: job.MaxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (b *MemoryBackend) wake() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Enqueue puts a job on its ready queue.
func (b *MemoryBackend) Enqueue(_ context.Context, job jobx.Job) (string, error) {
	b.mu.Lock()
	rec := b.newRecord(job)
	b.records[rec.ID] = rec
	b.ready[rec.Queue] = append(b.ready[rec.Queue], rec.ID)
	b.mu.Unlock()
	b.wake()
	return rec.ID, nil
}

// EnqueueDelayed schedules a job to become ready after delay.
func (b *MemoryBackend) EnqueueDelayed(_ context.Context, job jobx.Job, delay time.Duration) (string, error) {
	b.mu.Lock()
	rec := b.newRecord(job)
	b.records[rec.ID] = rec
	b.scheduled = append(b.scheduled, scheduled{id: rec.ID, queue: rec.Queue, due: time.Now().UTC().Add(delay)})
	b.mu.Unlock()
	return rec.ID, nil
}

// GetJob returns a copy of the job record.
func (b *MemoryBackend) GetJob(_ context.Context, jobID string) (*jobx.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[jobID]
	if !ok {
		return nil, jobx.NotFound(jobID)
	}
	cp := *rec
	return &cp, nil
}

// Dequeue pops the oldest ready job from the given queues, blocking up to
// timeout. A nil record means nothing arrived in time.
func (b *MemoryBackend) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.Record, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if rec := b.tryPop(queues); rec != nil {
			return rec, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil
		case <-deadline.C:
			return nil, nil
		case <-b.signal:
		}
	}
}

func (b *MemoryBackend) tryPop(queues []string) *jobx.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, q := range queues {
		ids := b.ready[q]
		if len(ids) == 0 {
			continue
		}
		id := ids[0]
		b.ready[q] = ids[1:]
		rec, ok := b.records[id]
		if !ok {
			continue
		}
		rec.State = jobx.StateRunning
		rec.Attempts++
		rec.UpdatedAt = time.Now().UTC()
		cp := *rec
		return &cp
	}
	return nil
}

// Complete marks a job succeeded.
func (b *MemoryBackend) Complete(_ context.Context, jobID string, result []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[jobID]
	if !ok {
		return jobx.NotFound(jobID)
	}
	rec.State = jobx.StateSucceeded
	rec.Result = result
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail records the error; the job stays retryable while attempts remain.
func (b *MemoryBackend) Fail(_ context.Context, jobID string, errMsg string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[jobID]
	if !ok {
		return false, jobx.NotFound(jobID)
	}
	retry := rec.Attempts < rec.MaxAttempts
	if retry {
		rec.State = jobx.StateRetrying
	} else {
		rec.State = jobx.StateFailed
	}
	rec.LastError = errMsg
	rec.UpdatedAt = time.Now().UTC()
	return retry, nil
}

// Retry schedules another run after delay.
func (b *MemoryBackend) Retry(_ context.Context, jobID string, delay time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[jobID]
	if !ok {
		return jobx.NotFound(jobID)
	}
	b.scheduled = append(b.scheduled, scheduled{id: jobID, queue: rec.Queue, due: time.Now().UTC().Add(delay)})
	return nil
}

// PromoteDue moves scheduled jobs whose time has come onto their ready
// queues.
func (b *MemoryBackend) PromoteDue(_ context.Context, queues []string) error {
	now := time.Now().UTC()
	wanted := make(map[string]bool, len(queues))
	for _, q := range queues {
		wanted[q] = true
	}

	b.mu.Lock()
	kept := b.scheduled[:0]
	promoted := 0
	for _, s := range b.scheduled {
		if wanted[s.queue] && !s.due.After(now) {
			b.ready[s.queue] = append(b.ready[s.queue], s.id)
			promoted++
			continue
		}
		kept = append(kept, s)
	}
	b.scheduled = kept
	b.mu.Unlock()

	if promoted > 0 {
		b.wake()
	}
	return nil
}
