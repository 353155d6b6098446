package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Handler processes one dequeued job. The context carries the job timeout.
type Handler func(ctx context.Context, job Job) error

// Pool runs workers that drain a Queue.
type Pool struct {
	queue   Queue
	handler Handler
	workers int
	logger  *zerolog.Logger
}

// NewPool creates a pool of workers.
func NewPool(queue Queue, handler Handler, workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Pool{queue: queue, handler: handler, workers: workers, logger: logger}
}

// Run blocks until ctx is cancelled. Jobs already handed to a worker finish
// under their own timeout.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range p.workers {
		g.Go(func() error {
			p.work(gctx, i)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) work(ctx context.Context, id int) {
	p.logger.Debug().Int("worker", id).Msg("Evaluation worker started")
	defer p.logger.Debug().Int("worker", id).Msg("Evaluation worker stopped")

	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error().Err(err).Int("worker", id).Msg("Failed to dequeue evaluation job")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		p.process(job)
	}
}

// process runs the handler detached from pool cancellation so shutdown does
// not abort an evaluation halfway; the job timeout still applies.
func (p *Pool) process(job Job) {
	ctx := context.Background()
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := p.handler(ctx, job)
	log := p.logger.With().
		Str("submission_id", job.SubmissionID).
		Str("event_id", job.EventID).
		Dur("duration", time.Since(start)).
		Logger()
	switch {
	case err == nil:
		log.Debug().Msg("Evaluation job done")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Msg("Evaluation job timed out")
	default:
		log.Error().Err(err).Msg("Evaluation job failed")
	}
}
