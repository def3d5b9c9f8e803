// Package redis implements a BlobStore that keeps the directory under a single Redis key.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/and161185/userdir/internal/repository"
)

var _ repository.BlobStore = (*Store)(nil)

// Cmdable is the subset of *redis.Client used by Store.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Options describe how to reach Redis.
type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
	TLS      bool
}

// Connect instantiates a redis client and pings it.
func Connect(ctx context.Context, opts Options, logger *zap.Logger) (*redis.Client, error) {
	o := &redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}
	if opts.TLS {
		o.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(o)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if logger != nil {
			logger.Warn("redis ping failed", zap.String("addr", opts.Addr), zap.Error(err))
		}
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Store keeps the blob under key with no expiry.
type Store struct {
	client Cmdable
	key    string
}

// New constructs a Redis-backed store.
func New(client Cmdable, key string) *Store { return &Store{client: client, key: key} }

// Read returns the value under key.
func (s *Store) Read(ctx context.Context) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Write overwrites the value under key.
func (s *Store) Write(ctx context.Context, blob []byte) error {
	return s.client.Set(ctx, s.key, blob, 0).Err()
}

// Clear deletes key.
func (s *Store) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
