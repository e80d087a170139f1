// Package store defines the ordered key-value store port and errors.
//
// Records live in named partitions and are ordered by key within a
// partition; ranked reads are forward scans over a key prefix. Every
// stored value carries a version token used for optimistic-concurrency
// writes via Commit.
package store

import (
	"context"
	"encoding/binary"
)

// versionPrefixLen is the number of bytes reserved at the front of
// every stored value for the big-endian version token.
const versionPrefixLen = 8

// Record is a stored value together with its key and version token.
type Record struct {
	Key     string
	Value   []byte
	Version uint64
}

// Write is one mutation inside a guarded Commit. A nil-value write
// with Delete set removes the key.
type Write struct {
	Key    string
	Value  []byte
	Delete bool
}

// Store provides ordered, versioned access to partitioned records.
type Store interface {
	// Get returns the record at key. Returns ErrNotFound if absent.
	Get(ctx context.Context, partition, key string) (Record, error)

	// Put unconditionally overwrites key with value, bumping its
	// version token, and returns the new version.
	Put(ctx context.Context, partition, key string, value []byte) (uint64, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, partition, key string) error

	// Scan returns up to limit records whose keys start with prefix,
	// in ascending key order. A limit <= 0 means no limit.
	Scan(ctx context.Context, partition, prefix string, limit int) ([]Record, error)

	// Commit applies writes atomically, guarded by a version check on
	// guardKey: expectedVersion 0 requires the guard to be absent,
	// otherwise it must match the stored version. Every written record
	// receives the guard's new version, which is returned. A failed
	// check returns ErrVersionConflict and applies nothing.
	Commit(ctx context.Context, partition, guardKey string, expectedVersion uint64, writes []Write) (uint64, error)

	// Close releases the underlying store.
	Close() error
}

// sealValue prepends the version token to a value for storage.
func sealValue(version uint64, value []byte) []byte {
	buf := make([]byte, versionPrefixLen+len(value))
	binary.BigEndian.PutUint64(buf, version)
	copy(buf[versionPrefixLen:], value)
	return buf
}

// openValue splits a stored value into its version token and payload.
func openValue(raw []byte) (uint64, []byte, error) {
	if len(raw) < versionPrefixLen {
		return 0, nil, ErrCorruptRecord
	}
	return binary.BigEndian.Uint64(raw), raw[versionPrefixLen:], nil
}
