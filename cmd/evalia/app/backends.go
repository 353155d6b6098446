package app

import (
	"context"
	"fmt"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/artifacts"
	"github.com/evalia-ai/evalia/internal/evaluation"
	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/internal/store/memory"
	"github.com/evalia-ai/evalia/internal/store/sqlstore"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// OpenStore opens the configured store. SQL stores are migrated on open.
func (a *App) OpenStore(ctx context.Context) (store.Store, error) {
	return openStore(ctx, a.config)
}

func openStore(ctx context.Context, cfg *Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case "", "memory":
		return memory.New(), nil
	}
	dialect, err := sqlstore.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	dsn := cfg.DatabaseDSN
	if dsn == "" {
		if dialect != sqlstore.SQLite {
			return nil, errors.NewConfigError("database_dsn", "required for "+string(dialect), nil)
		}
		dsn = "evalia.db"
	}
	return sqlstore.Open(ctx, dialect, dsn)
}

func openArtifacts(ctx context.Context, cfg *Config) (artifacts.Store, error) {
	switch cfg.ArtifactsBackend {
	case "", "local":
		return artifacts.NewFileStore(cfg.ArtifactsDir)
	case "s3":
		return artifacts.NewS3Store(ctx, artifacts.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
	}
	return nil, errors.NewConfigError("artifacts_backend", fmt.Sprintf("unsupported backend %q", cfg.ArtifactsBackend), nil)
}

func openQueue(cfg *Config) (evaluation.Queue, error) {
	switch cfg.QueueBackend {
	case "", "memory":
		return evaluation.NewMemoryQueue(evaluation.DefaultQueueSize), nil
	case "redis":
		return evaluation.NewRedisQueue(evaluation.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisQueueKey,
		}), nil
	}
	return nil, errors.NewConfigError("queue_backend", fmt.Sprintf("unsupported backend %q", cfg.QueueBackend), nil)
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions(ctx context.Context) ([]evalia.Option, error) {
	cfg := a.config

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	arts, err := openArtifacts(ctx, cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	queue, err := openQueue(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	a.logger.Debug().
		Str("database", cfg.DatabaseDriver).
		Str("artifacts", cfg.ArtifactsBackend).
		Str("queue", cfg.QueueBackend).
		Int("workers", cfg.EvaluationWorkers).
		Msg("Backends selected")

	opts := []evalia.Option{
		evalia.WithStore(st),
		evalia.WithArtifacts(arts),
		evalia.WithQueue(queue),
		evalia.WithSeed(cfg.Seed),
		evalia.WithAutoProvision(cfg.AutoProvision),
		evalia.WithEvaluationDelay(cfg.EvaluationDelay),
		evalia.WithLogger(a.logger),
	}
	if cfg.EvaluationWorkers > 0 {
		opts = append(opts, evalia.WithWorkers(cfg.EvaluationWorkers))
	}
	if cfg.TokenSecret != "" {
		opts = append(opts, evalia.WithTokenSecret(cfg.TokenSecret))
	}
	if cfg.TokenTTL > 0 {
		opts = append(opts, evalia.WithTokenTTL(cfg.TokenTTL))
	}
	return opts, nil
}
