// Package cache persists directory snapshots through a BlobStore.
//
// Snapshots are written as a versioned JSON envelope, optionally sealed with a
// passphrase. Reads also accept the legacy form: a bare JSON array of users.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/and161185/userdir/internal/crypto"
	"github.com/and161185/userdir/internal/errs"
	"github.com/and161185/userdir/internal/model"
	"github.com/and161185/userdir/internal/repository"
)

// Cache reads and writes whole snapshots.
type Cache struct {
	store      repository.BlobStore
	passphrase []byte
}

// Option configures a Cache.
type Option func(*Cache)

// WithPassphrase seals snapshots at rest. An empty passphrase disables sealing.
func WithPassphrase(p string) Option {
	return func(c *Cache) {
		if p != "" {
			c.passphrase = []byte(p)
		}
	}
}

// New wraps store.
func New(store repository.BlobStore, opts ...Option) *Cache {
	c := &Cache{store: store}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the persisted snapshot. found is false when the store is empty.
func (c *Cache) Load(ctx context.Context) (model.Snapshot, bool, error) {
	blob, found, err := c.store.Read(ctx)
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("read cache: %w", err)
	}
	if !found {
		return model.Snapshot{}, false, nil
	}
	if crypto.IsSealed(blob) {
		if c.passphrase == nil {
			return model.Snapshot{}, false, errs.ErrCacheSealed
		}
		blob, err = crypto.Open(c.passphrase, blob)
		if err != nil {
			return model.Snapshot{}, false, fmt.Errorf("%w: %v", errs.ErrCacheSealed, err)
		}
	}
	snap, err := Decode(blob)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Save overwrites the persisted snapshot.
func (c *Cache) Save(ctx context.Context, snap model.Snapshot) error {
	blob, err := Encode(snap)
	if err != nil {
		return err
	}
	if c.passphrase != nil {
		if blob, err = crypto.Seal(c.passphrase, blob); err != nil {
			return fmt.Errorf("seal cache: %w", err)
		}
	}
	if err := c.store.Write(ctx, blob); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// Clear drops the persisted snapshot.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Encode serializes snap at the current schema version.
func Encode(snap model.Snapshot) ([]byte, error) {
	snap.Version = model.SnapshotVersion
	if snap.Users == nil {
		snap.Users = []model.User{}
	}
	return json.Marshal(snap)
}

// Decode parses an envelope or a legacy bare array (reported as version 0).
func Decode(blob []byte) (model.Snapshot, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 {
		return model.Snapshot{}, errors.New("decode cache: empty payload")
	}
	if trimmed[0] == '[' {
		var users []model.User
		if err := json.Unmarshal(trimmed, &users); err != nil {
			return model.Snapshot{}, fmt.Errorf("decode cache: %w", err)
		}
		return model.Snapshot{Version: 0, Users: users}, nil
	}
	var snap model.Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode cache: %w", err)
	}
	if snap.Version > model.SnapshotVersion {
		return model.Snapshot{}, fmt.Errorf("%w: %d", errs.ErrCacheVersion, snap.Version)
	}
	return snap, nil
}
