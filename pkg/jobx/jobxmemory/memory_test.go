package jobxmemory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/relayhr/doccapture/pkg/jobx"
)

func job(jobType string) jobx.Job {
	return jobx.Job{
		Type:        jobType,
		Queue:       "default",
		Payload:     json.RawMessage(`{"documentId":"doc-1"}`),
		MaxAttempts: 3,
	}
}

func TestEnqueueDequeueFIFO(t *testing.T) {
	b := New()
	ctx := context.Background()

	id1, err := b.Enqueue(ctx, job("ocr.reprocess"))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	id2, err := b.Enqueue(ctx, job("ocr.reprocess"))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	first, err := b.Dequeue(ctx, []string{"default"}, time.Second)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if first == nil || first.ID != id1 {
		t.Fatalf("first dequeue = %+v, want id %s", first, id1)
	}
	if first.State != jobx.StateRunning || first.Attempts != 1 {
		t.Fatalf("dequeued record state=%s attempts=%d", first.State, first.Attempts)
	}

	second, err := b.Dequeue(ctx, []string{"default"}, time.Second)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if second == nil || second.ID != id2 {
		t.Fatalf("second dequeue = %+v, want id %s", second, id2)
	}
}

func TestDequeueTimesOutEmpty(t *testing.T) {
	b := New()
	rec, err := b.Dequeue(context.Background(), []string{"default"}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if rec != nil {
		t.Fatalf("dequeued %+v from an empty queue", rec)
	}
}

func TestDelayedJobNeedsPromotion(t *testing.T) {
	b := New()
	ctx := context.Background()

	id, err := b.EnqueueDelayed(ctx, job("ocr.reprocess"), -time.Second)
	if err != nil {
		t.Fatalf("EnqueueDelayed: %v", err)
	}

	// Not visible until promoted.
	rec, err := b.Dequeue(ctx, []string{"default"}, 20*time.Millisecond)
	if err != nil || rec != nil {
		t.Fatalf("scheduled job dequeued early: rec=%+v err=%v", rec, err)
	}

	if err := b.PromoteDue(ctx, []string{"default"}); err != nil {
		t.Fatalf("PromoteDue: %v", err)
	}
	rec, err = b.Dequeue(ctx, []string{"default"}, time.Second)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if rec == nil || rec.ID != id {
		t.Fatalf("promoted job not dequeued: %+v", rec)
	}
}

func TestPromoteSkipsFutureJobs(t *testing.T) {
	b := New()
	ctx := context.Background()

	if _, err := b.EnqueueDelayed(ctx, job("ocr.reprocess"), time.Hour); err != nil {
		t.Fatalf("EnqueueDelayed: %v", err)
	}
	if err := b.PromoteDue(ctx, []string{"default"}); err != nil {
		t.Fatalf("PromoteDue: %v", err)
	}
	rec, err := b.Dequeue(ctx, []string{"default"}, 20*time.Millisecond)
	if err != nil || rec != nil {
		t.Fatalf("future job promoted: rec=%+v err=%v", rec, err)
	}
}

func TestFailRetriesUntilAttemptsExhausted(t *testing.T) {
	b := New()
	ctx := context.Background()

	j := job("ocr.reprocess")
	j.MaxAttempts = 2
	id, err := b.Enqueue(ctx, j)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// First attempt fails, retry remains.
	if _, err := b.Dequeue(ctx, []string{"default"}, time.Second); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	retry, err := b.Fail(ctx, id, "timeout")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if !retry {
		t.Fatal("first failure not retryable")
	}
	if err := b.Retry(ctx, id, 0); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if err := b.PromoteDue(ctx, []string{"default"}); err != nil {
		t.Fatalf("PromoteDue: %v", err)
	}

	// Second attempt exhausts the budget.
	if _, err := b.Dequeue(ctx, []string{"default"}, time.Second); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	retry, err = b.Fail(ctx, id, "timeout")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if retry {
		t.Fatal("exhausted job still retryable")
	}

	rec, err := b.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if rec.State != jobx.StateFailed || rec.Attempts != 2 || rec.LastError != "timeout" {
		t.Fatalf("final record = %+v", rec)
	}
}

func TestCompleteStoresResult(t *testing.T) {
	b := New()
	ctx := context.Background()

	id, err := b.Enqueue(ctx, job("ocr.reprocess"))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := b.Dequeue(ctx, []string{"default"}, time.Second); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if err := b.Complete(ctx, id, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	rec, err := b.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if rec.State != jobx.StateSucceeded || string(rec.Result) != `{"ok":true}` {
		t.Fatalf("completed record = %+v", rec)
	}
}

func TestGetJobMissing(t *testing.T) {
	b := New()
	if _, err := b.GetJob(context.Background(), "nope"); err == nil {
		t.Fatal("expected not-found error")
	}
}
