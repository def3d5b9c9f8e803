// Package repository defines storage interfaces implemented by concrete backends.
package repository

import "context"

// BlobStore holds a single opaque value: the serialized directory.
// Every write replaces the whole value; the last write wins.
type BlobStore interface {
	// Read returns the stored value; found is false when nothing was ever written (or it was cleared).
	Read(ctx context.Context) (blob []byte, found bool, err error)
	// Write overwrites the stored value.
	Write(ctx context.Context, blob []byte) error
	// Clear removes the stored value. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
