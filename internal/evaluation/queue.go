package evaluation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evalia-ai/evalia/pkg/errors"
)

// Queue carries jobs from submitters to workers.
type Queue interface {
	// Enqueue adds a job, blocking while a bounded queue is full.
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (Job, error)
	// Close releases resources. Pending jobs of an in-process queue are dropped.
	Close() error
}

// DefaultQueueSize bounds the in-process queue.
const DefaultQueueSize = 1024

// MemoryQueue is a buffered-channel Queue.
type MemoryQueue struct {
	jobs chan Job
}

// NewMemoryQueue creates a queue holding up to size jobs.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &MemoryQueue{jobs: make(chan Job, size)}
}

// Enqueue implements Queue.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue implements Queue.
func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Len returns the number of waiting jobs.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Close implements Queue.
func (q *MemoryQueue) Close() error {
	return nil
}

// DefaultRedisKey is the list jobs are pushed to.
const DefaultRedisKey = "evalia:evaluations"

// redisClient is the subset of redis.Cmdable the queue uses.
type redisClient interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	Close() error
}

// RedisConfig configures a RedisQueue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisQueue is a Queue backed by a Redis list, shared by every server
// process pointing at the same key.
type RedisQueue struct {
	client redisClient
	key    string
	poll   time.Duration
}

// NewRedisQueue connects to Redis.
func NewRedisQueue(cfg RedisConfig) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisQueue(client, cfg.Key)
}

func newRedisQueue(client redisClient, key string) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisQueue{client: client, key: key, poll: time.Second}
}

// Enqueue implements Queue.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.WrapParse("json", "", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return errors.WrapResource("enqueue", "job", job.SubmissionID, err)
	}
	return nil
}

// Dequeue implements Queue. It polls with a short blocking pop so a
// cancelled context is noticed promptly.
func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		res, err := q.client.BRPop(ctx, q.poll, q.key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, errors.WrapResource("dequeue", "job", "", err)
		}
		// BRPOP returns [key, value].
		if len(res) != 2 {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return Job{}, errors.WrapParse("json", "", err)
		}
		return job, nil
	}
}

// Close implements Queue.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
