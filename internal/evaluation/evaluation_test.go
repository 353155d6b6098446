package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/internal/artifacts"
	"github.com/evalia-ai/evalia/pkg/competitions"
)

func accuracyJob() Job {
	return Job{
		SubmissionID: "s1",
		EventID:      "1",
		UserID:       "1",
		Metrics: []competitions.Metric{
			{Name: "accuracy", IsPrimary: true},
			{Name: "f1_score"},
		},
	}
}

func TestMemoryQueue(t *testing.T) {
	q := NewMemoryQueue(2)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Job{SubmissionID: "a"}))
	require.NoError(t, q.Enqueue(ctx, Job{SubmissionID: "b"}))
	assert.Equal(t, 2, q.Len())

	// A full queue blocks until the context gives up.
	full, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(full, Job{SubmissionID: "c"}), context.DeadlineExceeded)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", job.SubmissionID)
	job, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", job.SubmissionID)

	empty, cancel2 := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel2()
	_, err = q.Dequeue(empty)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, q.Close())
}

// fakeRedis is an in-memory list keyed like Redis, FIFO via LPUSH/BRPOP.
type fakeRedis struct {
	mu     sync.Mutex
	lists  map[string][]string
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{lists: make(map[string][]string)}
}

func (f *fakeRedis) LPush(_ context.Context, key string, values ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		var s string
		switch x := v.(type) {
		case []byte:
			s = string(x)
		case string:
			s = x
		}
		f.lists[key] = append([]string{s}, f.lists[key]...)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) BRPop(_ context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		list := f.lists[key]
		if len(list) == 0 {
			continue
		}
		last := list[len(list)-1]
		f.lists[key] = list[:len(list)-1]
		return redis.NewStringSliceResult([]string{key, last}, nil)
	}
	return redis.NewStringSliceResult(nil, redis.Nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisQueue(t *testing.T) {
	client := newFakeRedis()
	q := newRedisQueue(client, "")
	q.poll = time.Millisecond
	ctx := context.Background()

	first := accuracyJob()
	first.Timeout = 10 * time.Minute
	second := accuracyJob()
	second.SubmissionID = "s2"

	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))
	assert.Len(t, client.lists[DefaultRedisKey], 2)

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SubmissionID)
	assert.Equal(t, 10*time.Minute, got.Timeout)
	assert.Equal(t, "accuracy", got.Primary().Name)

	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", got.SubmissionID)

	t.Run("empty list waits for context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := q.Dequeue(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		client.lists[DefaultRedisKey] = []string{"{not json"}
		_, err := q.Dequeue(ctx)
		assert.Error(t, err)
	})

	require.NoError(t, q.Close())
	assert.True(t, client.closed)
}

func TestSimulatedMaximizeRange(t *testing.T) {
	ev := NewSimulated(WithDelay(0), WithRand(rand.New(rand.NewPCG(1, 2))))
	for range 200 {
		res, err := ev.Evaluate(context.Background(), accuracyJob())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Score, 0.70)
		assert.Less(t, res.Score, 1.0)
		assert.Equal(t, res.Score, res.Metrics["accuracy"])
		assert.Contains(t, res.Metrics, "f1_score")
		assert.GreaterOrEqual(t, res.Metrics["f1_score"], 0.0)
		assert.LessOrEqual(t, res.Metrics["f1_score"], 1.0)
	}
}

// topSource makes rand.Float64 return its largest value.
type topSource struct{}

func (topSource) Uint64() uint64 { return math.MaxUint64 }

func TestSimulatedUpperBoundsExclusive(t *testing.T) {
	ev := NewSimulated(WithDelay(0), WithRand(rand.New(topSource{})))

	res, err := ev.Evaluate(context.Background(), accuracyJob())
	require.NoError(t, err)
	assert.Less(t, res.Score, 1.0)
	assert.Equal(t, 0.9999, res.Score)

	res, err = ev.Evaluate(context.Background(), Job{Metrics: []competitions.Metric{{Name: "rmse", IsPrimary: true}}})
	require.NoError(t, err)
	assert.Less(t, res.Score, 15.0)
	assert.GreaterOrEqual(t, res.Score, 14.9999)
}

func TestSimulatedMinimize(t *testing.T) {
	ev := NewSimulated(WithDelay(0), WithRand(rand.New(rand.NewPCG(3, 4))))
	job := Job{Metrics: []competitions.Metric{{Name: "rmse", IsPrimary: true}, {Name: "mae"}}}

	res, err := ev.Evaluate(context.Background(), job)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Score, 10.0)
	assert.Less(t, res.Score, 15.0)
	assert.Less(t, res.Metrics["mae"], res.Score)

	ref := 12.5
	job.Reference = &ref
	res, err = ev.Evaluate(context.Background(), job)
	require.NoError(t, err)
	assert.InDelta(t, 12.5*1.025, res.Score, 12.5*0.076)
}

func TestSimulatedDeterministic(t *testing.T) {
	a := NewSimulated(WithDelay(0), WithRand(rand.New(rand.NewPCG(7, 7))))
	b := NewSimulated(WithDelay(0), WithRand(rand.New(rand.NewPCG(7, 7))))
	ra, err := a.Evaluate(context.Background(), accuracyJob())
	require.NoError(t, err)
	rb, err := b.Evaluate(context.Background(), accuracyJob())
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
}

func TestSimulatedHonorsContext(t *testing.T) {
	ev := NewSimulated(WithDelay(time.Minute))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := ev.Evaluate(ctx, accuracyJob())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimulatedVerifiesArtifact(t *testing.T) {
	store, err := artifacts.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	key := artifacts.Key("1", "s1", "model.pkl")
	_, err = store.Put(ctx, key, bytes.NewReader([]byte("weights")))
	require.NoError(t, err)

	ev := NewSimulated(WithDelay(0), WithArtifacts(store))

	job := accuracyJob()
	job.ArtifactKey = key
	job.FileSize = 7
	_, err = ev.Evaluate(ctx, job)
	require.NoError(t, err)

	job.FileSize = 8
	_, err = ev.Evaluate(ctx, job)
	assert.ErrorContains(t, err, "expected 8")

	job.ArtifactKey = artifacts.Key("1", "missing", "model.pkl")
	_, err = ev.Evaluate(ctx, job)
	assert.Error(t, err)
}

func TestPoolProcessesJobs(t *testing.T) {
	q := NewMemoryQueue(16)
	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{}, 16)

	pool := NewPool(q, func(_ context.Context, job Job) error {
		mu.Lock()
		seen[job.SubmissionID] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, 3, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- pool.Run(ctx) }()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, q.Enqueue(ctx, Job{SubmissionID: id}))
	}
	for range 5 {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	cancel()
	require.NoError(t, <-errc)
	assert.Len(t, seen, 5)
}

func TestPoolAppliesJobTimeout(t *testing.T) {
	q := NewMemoryQueue(1)
	var timedOut atomic.Bool
	done := make(chan struct{})

	pool := NewPool(q, func(ctx context.Context, _ Job) error {
		defer close(done)
		<-ctx.Done()
		timedOut.Store(ctx.Err() == context.DeadlineExceeded)
		return ctx.Err()
	}, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = pool.Run(ctx) }()

	require.NoError(t, q.Enqueue(ctx, Job{SubmissionID: "slow", Timeout: 10 * time.Millisecond}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never returned")
	}
	assert.True(t, timedOut.Load())
}

func TestJobJSON(t *testing.T) {
	ref := 0.9
	job := accuracyJob()
	job.Reference = &ref
	data, err := json.Marshal(job)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"submission_id":"s1"`)
	assert.Contains(t, string(data), `"reference":0.9`)
}
