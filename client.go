// Package evalia is the core of the EvalIA competition platform.
//
// A Client ties together accounts, the event catalogue, model submissions,
// their asynchronous evaluation and the leaderboards. Every operation takes
// the acting user explicitly; nothing is derived from global state, and the
// per-viewer participation marker of an event is computed on each read.
//
// Example usage:
//
//	c, err := evalia.New(
//	    evalia.WithStore(memory.New()),
//	    evalia.WithTokenSecret(os.Getenv("EVALIA_TOKEN_SECRET")),
//	    evalia.WithSeed(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	session, err := c.Login(ctx, "participant@evalia.com", "demo-participant")
//	...
//	events, err := c.ListEvents(ctx, session.User, competitions.EventFilter{Status: "active"})
package evalia

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/evalia-ai/evalia/internal/artifacts"
	"github.com/evalia-ai/evalia/internal/auth"
	"github.com/evalia-ai/evalia/internal/evaluation"
	"github.com/evalia-ai/evalia/internal/seed"
	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/internal/store/memory"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
	"github.com/evalia-ai/evalia/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client is the platform API.
type Client interface {
	// Accounts handles registration, login and sessions
	Accounts

	// Catalog handles events and participation
	Catalog

	// Submissions handles model uploads
	Submissions

	// Leaderboards ranks participants
	Leaderboards

	// Administration handles moderation and statistics
	Administration

	// Hooks provides access to event callback registration
	Hooks

	// Start loads the seed when configured, re-queues interrupted
	// evaluations and starts the evaluation workers.
	Start(ctx context.Context) error

	// Close stops the workers, waits for in-flight evaluations and releases
	// the store and queue.
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	store     store.Store
	artifacts artifacts.Store
	queue     evaluation.Queue
	evaluator evaluation.Evaluator
	tokens    *auth.TokenManager
	hooks     *hooks
	logger    *zerolog.Logger

	// locks serializes read-check-write sequences on the same key, such as
	// quota checks of one user in one event.
	locks *keyedMutex

	// worker state
	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Client. Missing backends fall back to in-memory defaults.
func New(opts ...Option) (Client, error) {
	o := defaults().apply(opts...)
	return newClient(o)
}

func newClient(o *options) (*client, error) {
	c := &client{
		options:   o,
		store:     o.store,
		artifacts: o.artifacts,
		queue:     o.queue,
		evaluator: o.evaluator,
		hooks:     newHooks(),
		logger:    o.logger,
		locks:     newKeyedMutex(),
	}
	if c.logger == nil {
		c.logger = logging.Default()
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}

	if c.store == nil {
		c.store = memory.New()
	}
	if c.artifacts == nil {
		dir := o.artifactsDir
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "evalia-artifacts")
		}
		fs, err := artifacts.NewFileStore(dir)
		if err != nil {
			return nil, errors.WrapResource("create", "artifact store", dir, err)
		}
		c.artifacts = fs
	}
	if c.queue == nil {
		c.queue = evaluation.NewMemoryQueue(evaluation.DefaultQueueSize)
	}
	if c.evaluator == nil {
		c.evaluator = evaluation.NewSimulated(
			evaluation.WithDelay(o.evalDelay),
			evaluation.WithArtifacts(c.artifacts),
		)
	}

	secret := o.tokenSecret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, errors.WrapResource("generate", "token secret", "", err)
		}
		c.logger.Warn().Msg("No token secret configured, sessions will not survive a restart")
	}
	tokens, err := auth.NewTokenManager(secret, o.tokenTTL, auth.WithClock(o.now))
	if err != nil {
		return nil, err
	}
	c.tokens = tokens

	return c, nil
}

// Start implements Client.
func (c *client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	if c.options.seed {
		if err := c.loadSeed(ctx); err != nil {
			return err
		}
	}
	if err := c.resume(ctx); err != nil {
		return err
	}

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pool := evaluation.NewPool(c.queue, c.handleJob, c.options.workers, c.logger)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.started = true

	go func() {
		defer close(c.done)
		if err := pool.Run(workerCtx); err != nil {
			c.logger.Error().Err(err).Msg("Evaluation pool stopped")
		}
	}()

	c.logger.Info().Int("workers", c.options.workers).Msg("Evaluation workers started")
	return nil
}

// Close implements Client.
func (c *client) Close() error {
	c.mu.Lock()
	if c.started {
		c.cancel()
		<-c.done
		c.started = false
	}
	c.mu.Unlock()

	var errs []error
	if err := c.queue.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// loadSeed writes the embedded demo dataset into the store.
func (c *client) loadSeed(ctx context.Context) error {
	ds, err := seed.Load()
	if err != nil {
		return err
	}
	res, err := ds.Apply(ctx, c.store, auth.HashPassword)
	if err != nil {
		return errors.WrapResource("apply", "seed", "", err)
	}
	c.logger.Info().
		Int("users", res.Users).
		Int("events", res.Events).
		Int("submissions", res.Submissions).
		Int("standings", res.Standings).
		Msg("Seed loaded")
	return nil
}

// resume re-queues submissions left pending or processing by a previous
// run. Submissions without a stored artifact cannot be evaluated and are
// left as they are.
func (c *client) resume(ctx context.Context) error {
	subs, err := c.store.ListSubmissions(ctx, competitions.SubmissionQuery{})
	if err != nil {
		return err
	}
	n := 0
	for _, s := range subs {
		if s.Status.Terminal() || s.ArtifactKey == "" {
			continue
		}
		event, err := c.store.GetEvent(ctx, s.EventID)
		if err != nil {
			continue
		}
		if err := c.queue.Enqueue(ctx, c.job(event, s)); err != nil {
			return err
		}
		n++
	}
	if n > 0 {
		c.logger.Info().Int("submissions", n).Msg("Re-queued interrupted evaluations")
	}
	return nil
}

// logContext makes sure ctx carries a logger. Requests arrive with the
// server's request logger; everything else gets the client's.
func (c *client) logContext(ctx context.Context) context.Context {
	if _, ok := logging.Lookup(ctx); ok {
		return ctx
	}
	return logging.WithLogger(ctx, c.logger)
}

func (c *client) now() time.Time {
	return c.options.now().UTC()
}

func (c *client) newID() string {
	return c.options.newID()
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock locks key and returns the matching unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
