// Package app assembles the directory store from configuration. Both binaries use it.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/userdir/internal/cache"
	"github.com/and161185/userdir/internal/config"
	"github.com/and161185/userdir/internal/migrate"
	"github.com/and161185/userdir/internal/remote"
	"github.com/and161185/userdir/internal/repository"
	"github.com/and161185/userdir/internal/repository/file"
	"github.com/and161185/userdir/internal/repository/postgres"
	rediscache "github.com/and161185/userdir/internal/repository/redis"
	"github.com/and161185/userdir/internal/service"
)

// OpenBlobStore opens the configured cache backend. closeFn releases its connections.
func OpenBlobStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.BlobStore, func(), error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		client, err := rediscache.Connect(ctx, rediscache.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("redis connect: %w", err)
		}
		log.Info("cache backend", zap.String("backend", "redis"), zap.String("key", cfg.Redis.Key))
		return rediscache.New(client, cfg.Redis.Key), func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
			return nil, nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool: %w", err)
		}
		log.Info("cache backend", zap.String("backend", "postgres"), zap.String("key", cfg.Cache.Key))
		return postgres.NewCacheRepo(db, cfg.Cache.Key), db.Close, nil

	default:
		path := cfg.Cache.Path
		if path == "" {
			path = file.DefaultPath()
		}
		log.Info("cache backend", zap.String("backend", "file"), zap.String("path", path))
		return file.New(path), func() {}, nil
	}
}

// NewDirectory wires the remote client and the cache codec around store.
func NewDirectory(store repository.BlobStore, cfg *config.Config, log *zap.Logger, rec service.Recorder) *service.Directory {
	client := remote.New(cfg.Remote.SeedURL, cfg.Remote.MirrorURL,
		remote.WithTimeout(cfg.Remote.FetchTimeout),
		remote.WithLogger(log),
	)
	c := cache.New(store, cache.WithPassphrase(cfg.Cache.Passphrase))
	return service.NewDirectory(client, c, log, rec, cfg.Options())
}
