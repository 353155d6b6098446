package evaluation

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/evalia-ai/evalia/internal/artifacts"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// Evaluator scores a submitted model.
type Evaluator interface {
	Evaluate(ctx context.Context, job Job) (Result, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, job Job) (Result, error)

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(ctx context.Context, job Job) (Result, error) {
	return f(ctx, job)
}

// DefaultDelay is how long the simulated evaluator takes per submission.
const DefaultDelay = 3 * time.Second

// Simulated produces synthetic scores after a delay. It stands in for a
// scoring backend: it checks the artifact is readable and intact, then
// draws a primary score in [0.70, 1.00) for maximized metrics.
type Simulated struct {
	delay     time.Duration
	artifacts artifacts.Store

	mu  sync.Mutex
	rng *rand.Rand
}

// SimulatedOption configures a Simulated evaluator.
type SimulatedOption func(*Simulated)

// WithDelay sets the evaluation delay.
func WithDelay(d time.Duration) SimulatedOption {
	return func(s *Simulated) { s.delay = d }
}

// WithRand sets the random source, for deterministic tests.
func WithRand(r *rand.Rand) SimulatedOption {
	return func(s *Simulated) { s.rng = r }
}

// WithArtifacts makes the evaluator read back the artifact before scoring.
func WithArtifacts(store artifacts.Store) SimulatedOption {
	return func(s *Simulated) { s.artifacts = store }
}

// NewSimulated creates a simulated evaluator.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		delay: DefaultDelay,
		rng:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate implements Evaluator.
func (s *Simulated) Evaluate(ctx context.Context, job Job) (Result, error) {
	if s.artifacts != nil && job.ArtifactKey != "" {
		if err := s.verify(ctx, job); err != nil {
			return Result{}, err
		}
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	primary := job.Primary()
	score := s.draw(primary.Name, job.Reference)
	metrics := map[string]float64{primary.Name: score}
	for _, m := range job.Metrics {
		if m.Name == primary.Name {
			continue
		}
		metrics[m.Name] = s.near(m.Name, score, primary.Name)
	}
	return Result{Score: score, Metrics: metrics}, nil
}

func (s *Simulated) verify(ctx context.Context, job Job) error {
	rc, err := s.artifacts.Open(ctx, job.ArtifactKey)
	if err != nil {
		return err
	}
	defer rc.Close()
	n, err := io.Copy(io.Discard, rc)
	if err != nil {
		return errors.WrapIO("read", job.ArtifactKey, err)
	}
	if job.FileSize > 0 && n != job.FileSize {
		return fmt.Errorf("artifact is %d bytes, expected %d", n, job.FileSize)
	}
	return nil
}

func (s *Simulated) float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// draw picks a primary score. Loss metrics land within 15% of the event's
// best score, or in [10, 15) for an event with no score yet.
func (s *Simulated) draw(metric string, reference *float64) float64 {
	r := s.float()
	if competitions.MetricDirection(metric) == competitions.Maximize {
		return below(0.7+r*0.3, 1)
	}
	if reference != nil && *reference > 0 {
		return below(*reference*(0.95+r*0.15), *reference*1.1)
	}
	return below(10+r*5, 15)
}

// near derives a secondary metric from the primary score.
func (s *Simulated) near(metric string, primary float64, primaryName string) float64 {
	r := s.float()
	if competitions.MetricDirection(metric) == competitions.Maximize {
		base := primary
		if competitions.MetricDirection(primaryName) == competitions.Minimize {
			base = 0.85
		}
		return round(math.Min(1, math.Max(0, base+(r-0.5)*0.06)))
	}
	if competitions.MetricDirection(primaryName) == competitions.Minimize {
		return round(primary * (0.7 + r*0.2))
	}
	return round(10 + r*5)
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// below truncates v to four decimals, keeping it under the exclusive
// upper bound that float rounding of r near 1 can otherwise reach.
func below(v, upper float64) float64 {
	v = math.Floor(v*1e4) / 1e4
	if v >= upper {
		return round(upper - 1e-4)
	}
	return v
}
