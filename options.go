package evalia

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/evalia-ai/evalia/internal/artifacts"
	"github.com/evalia-ai/evalia/internal/auth"
	"github.com/evalia-ai/evalia/internal/evaluation"
	"github.com/evalia-ai/evalia/internal/store"
)

// Option configures a Client.
type Option func(*options)

// options holds the client configuration.
type options struct {
	store         store.Store
	artifacts     artifacts.Store
	artifactsDir  string
	queue         evaluation.Queue
	evaluator     evaluation.Evaluator
	evalDelay     time.Duration
	workers       int
	tokenSecret   []byte
	tokenTTL      time.Duration
	autoProvision bool
	seed          bool
	now           func() time.Time
	newID         func() string
	logger        *zerolog.Logger
}

// defaults returns the default configuration: in-memory storage, a local
// artifact directory, an in-process queue and the simulated evaluator.
func defaults() *options {
	return &options{
		evalDelay: evaluation.DefaultDelay,
		workers:   2,
		tokenTTL:  auth.DefaultTTL,
		now:       time.Now,
	}
}

// apply applies the given options and returns the configuration.
func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithStore sets the persistence backend.
func WithStore(s store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithArtifacts sets where uploaded models are kept.
func WithArtifacts(s artifacts.Store) Option {
	return func(o *options) {
		o.artifacts = s
	}
}

// WithArtifactsDir keeps uploaded models in a local directory. It is
// ignored when WithArtifacts is given.
func WithArtifactsDir(dir string) Option {
	return func(o *options) {
		o.artifactsDir = dir
	}
}

// WithQueue sets the evaluation queue.
func WithQueue(q evaluation.Queue) Option {
	return func(o *options) {
		o.queue = q
	}
}

// WithEvaluator replaces the simulated evaluator.
func WithEvaluator(e evaluation.Evaluator) Option {
	return func(o *options) {
		o.evaluator = e
	}
}

// WithEvaluationDelay sets how long the simulated evaluator takes.
func WithEvaluationDelay(d time.Duration) Option {
	return func(o *options) {
		o.evalDelay = d
	}
}

// WithWorkers sets the number of evaluation workers.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithTokenSecret sets the HMAC secret session tokens are signed with.
// Without it a random secret is generated and sessions do not survive a
// restart.
func WithTokenSecret(secret string) Option {
	return func(o *options) {
		o.tokenSecret = []byte(secret)
	}
}

// WithTokenTTL sets how long sessions stay valid.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.tokenTTL = ttl
	}
}

// WithAutoProvision makes Login create a participant account for an
// unknown email instead of failing.
func WithAutoProvision(enabled bool) Option {
	return func(o *options) {
		o.autoProvision = enabled
	}
}

// WithSeed loads the embedded demo dataset when the client starts.
func WithSeed(enabled bool) Option {
	return func(o *options) {
		o.seed = enabled
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator sets how new record IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
