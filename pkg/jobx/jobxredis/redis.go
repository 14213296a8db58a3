// Package jobxredis backs jobx with Redis: ready queues as lists, scheduled
// work as a sorted set scored by due time, one key per job record.
package jobxredis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/relayhr/doccapture/pkg/jobx"
)

// RedisBackend implements jobx.Backend on a Redis client.
type RedisBackend struct {
	rdb *redis.Client
}

// New wraps an established Redis client.
func New(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func readyKey(queue string) string     { return fmt.Sprintf("doccapture:jobs:ready:%s", queue) }
func scheduledKey(queue string) string { return fmt.Sprintf("doccapture:jobs:scheduled:%s", queue) }
func recordKey(id string) string       { return fmt.Sprintf("doccapture:jobs:record:%s", id) }

func (b *RedisBackend) storeNew(ctx context.Context, job jobx.Job) (*jobx.Record, []byte, error) {
	now := time.Now().UTC()
	rec := &jobx.Record{
		ID:          uuid.NewString(),
		Type:        job.Type,
		Queue:       job.Queue,
		Payload:     job.Payload,
		State:       jobx.StateQueued,
		MaxAttempts: job.MaxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, nil, redisErrors.NewWithCause(ErrMarshal, err)
	}
	return rec, data, nil
}

// Enqueue stores the record and pushes its id onto the ready queue.
func (b *RedisBackend) Enqueue(ctx context.Context, job jobx.Job) (string, error) {
	rec, data, err := b.storeNew(ctx, job)
	if err != nil {
		return "", err
	}

	pipe := b.rdb.Pipeline()
	pipe.Set(ctx, recordKey(rec.ID), data, 0)
	pipe.LPush(ctx, readyKey(rec.Queue), rec.ID)
	if _, execErr := pipe.Exec(ctx); execErr != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, execErr).WithDetail("queue", rec.Queue)
	}
	return rec.ID, nil
}

// EnqueueDelayed stores the record and parks its id in the scheduled set.
func (b *RedisBackend) EnqueueDelayed(ctx context.Context, job jobx.Job, delay time.Duration) (string, error) {
	rec, data, err := b.storeNew(ctx, job)
	if err != nil {
		return "", err
	}

	due := float64(time.Now().UTC().Add(delay).Unix())
	pipe := b.rdb.Pipeline()
	pipe.Set(ctx, recordKey(rec.ID), data, 0)
	pipe.ZAdd(ctx, scheduledKey(rec.Queue), redis.Z{Score: due, Member: rec.ID})
	if _, execErr := pipe.Exec(ctx); execErr != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, execErr).
			WithDetail("queue", rec.Queue).
			WithDetail("delay", delay.String())
	}
	return rec.ID, nil
}

// GetJob loads a job record.
func (b *RedisBackend) GetJob(ctx context.Context, jobID string) (*jobx.Record, error) {
	data, err := b.rdb.Get(ctx, recordKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, redisErrors.New(ErrNotFound).WithDetail("job_id", jobID)
		}
		return nil, redisErrors.NewWithCause(ErrGetJob, err).WithDetail("job_id", jobID)
	}
	var rec jobx.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("job_id", jobID)
	}
	return &rec, nil
}

func (b *RedisBackend) save(ctx context.Context, rec *jobx.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", rec.ID)
	}
	if err := b.rdb.Set(ctx, recordKey(rec.ID), data, 0).Err(); err != nil {
		return redisErrors.NewWithCause(ErrUpdate, err).WithDetail("job_id", rec.ID)
	}
	return nil
}

// Dequeue blocks on the ready queues and marks the popped job running.
func (b *RedisBackend) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.Record, error) {
	keys := make([]string, len(queues))
	for i, q := range queues {
		keys[i] = readyKey(q)
	}

	result, err := b.rdb.BRPop(ctx, timeout, keys...).Result()
	if err != nil {
		if err == redis.Nil || ctx.Err() != nil {
			return nil, nil
		}
		return nil, redisErrors.NewWithCause(ErrDequeue, err)
	}

	rec, getErr := b.GetJob(ctx, result[1])
	if getErr != nil {
		return nil, getErr
	}
	rec.State = jobx.StateRunning
	rec.Attempts++
	rec.UpdatedAt = time.Now().UTC()
	if err := b.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Complete marks a job succeeded.
func (b *RedisBackend) Complete(ctx context.Context, jobID string, result []byte) error {
	rec, err := b.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	rec.State = jobx.StateSucceeded
	rec.Result = result
	rec.UpdatedAt = time.Now().UTC()
	return b.save(ctx, rec)
}

// Fail records the error and reports whether attempts remain.
func (b *RedisBackend) Fail(ctx context.Context, jobID string, errMsg string) (bool, error) {
	rec, err := b.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	retry := rec.Attempts < rec.MaxAttempts
	if retry {
		rec.State = jobx.StateRetrying
	} else {
		rec.State = jobx.StateFailed
	}
	rec.LastError = errMsg
	rec.UpdatedAt = time.Now().UTC()
	if err := b.save(ctx, rec); err != nil {
		return false, err
	}
	return retry, nil
}

// Retry parks the job in the scheduled set for another run after delay.
func (b *RedisBackend) Retry(ctx context.Context, jobID string, delay time.Duration) error {
	rec, err := b.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	due := float64(time.Now().UTC().Add(delay).Unix())
	if err := b.rdb.ZAdd(ctx, scheduledKey(rec.Queue), redis.Z{Score: due, Member: jobID}).Err(); err != nil {
		return redisErrors.NewWithCause(ErrUpdate, err).WithDetail("job_id", jobID)
	}
	return nil
}

// promoteScript atomically moves due ids from the scheduled set to the ready
// queue.
var promoteScript = redis.NewScript(`
local scheduled_key = KEYS[1]
local ready_key = KEYS[2]
local now = tonumber(ARGV[1])
local ids = redis.call('ZRANGEBYSCORE', scheduled_key, '-inf', now)
if #ids > 0 then
    for _, id in ipairs(ids) do
        redis.call('LPUSH', ready_key, id)
    end
    redis.call('ZREMRANGEBYSCORE', scheduled_key, '-inf', now)
end
return #ids
`)

// PromoteDue makes scheduled jobs whose time has come dequeueable.
func (b *RedisBackend) PromoteDue(ctx context.Context, queues []string) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	for _, q := range queues {
		err := promoteScript.Run(ctx, b.rdb, []string{scheduledKey(q), readyKey(q)}, now).Err()
		if err != nil && err != redis.Nil {
			return redisErrors.NewWithCause(ErrPromote, err).WithDetail("queue", q)
		}
	}
	return nil
}
