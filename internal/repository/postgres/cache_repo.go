package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/userdir/internal/repository"
)

var _ repository.BlobStore = (*CacheRepo)(nil)

// CacheRepo stores the serialized directory as one row of directory_cache.
type CacheRepo struct {
	db  *DB
	key string
}

// NewCacheRepo constructs a cache repository bound to key.
func NewCacheRepo(db *DB, key string) *CacheRepo { return &CacheRepo{db: db, key: key} }

// Read returns the payload stored under the repo key.
func (r *CacheRepo) Read(ctx context.Context) ([]byte, bool, error) {
	const q = `SELECT payload FROM directory_cache WHERE key=$1`
	var payload []byte
	if err := r.db.Pool.QueryRow(ctx, q, r.key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

// Write upserts the payload; the previous value is overwritten.
func (r *CacheRepo) Write(ctx context.Context, blob []byte) error {
	const q = `INSERT INTO directory_cache (key, payload, updated_at) VALUES ($1, $2, now()) ON CONFLICT (key) DO UPDATE SET payload=EXCLUDED.payload, updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, r.key, blob)
	return err
}

// Clear deletes the row for the repo key.
func (r *CacheRepo) Clear(ctx context.Context) error {
	const q = `DELETE FROM directory_cache WHERE key=$1`
	_, err := r.db.Pool.Exec(ctx, q, r.key)
	return err
}
