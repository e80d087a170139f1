package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-memory Store for tests and data-dir-less runs.
// Partitions are plain maps; scans sort keys on demand, which is fine
// at the leaderboard sizes this store is used for.
type MemStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string]Record
	closed     bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		partitions: make(map[string]map[string]Record),
	}
}

func (s *MemStore) Get(ctx context.Context, partition, key string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, ErrUnavailable
	}
	rec, ok := s.partitions[partition][key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemStore) Put(ctx context.Context, partition, key string, value []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrUnavailable
	}
	p := s.partition(partition)
	version := p[key].Version + 1
	p[key] = Record{Key: key, Value: append([]byte(nil), value...), Version: version}
	return version, nil
}

func (s *MemStore) Delete(ctx context.Context, partition, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUnavailable
	}
	delete(s.partitions[partition], key)
	return nil
}

func (s *MemStore) Scan(ctx context.Context, partition, prefix string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrUnavailable
	}
	keys := make([]string, 0, len(s.partitions[partition]))
	for k := range s.partitions[partition] {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]Record, len(keys))
	for i, k := range keys {
		out[i] = cloneRecord(s.partitions[partition][k])
	}
	return out, nil
}

func (s *MemStore) Commit(ctx context.Context, partition, guardKey string, expectedVersion uint64, writes []Write) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrUnavailable
	}
	p := s.partition(partition)
	current, exists := p[guardKey]
	switch {
	case expectedVersion == 0 && exists:
		return 0, ErrVersionConflict
	case expectedVersion != 0 && (!exists || current.Version != expectedVersion):
		return 0, ErrVersionConflict
	}
	next := expectedVersion + 1
	for _, w := range writes {
		if w.Delete {
			delete(p, w.Key)
			continue
		}
		p[w.Key] = Record{Key: w.Key, Value: append([]byte(nil), w.Value...), Version: next}
	}
	return next, nil
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.partitions = nil
	return nil
}

// partition returns the named partition map, creating it if missing.
// Must be called with s.mu held for writing.
func (s *MemStore) partition(name string) map[string]Record {
	p, ok := s.partitions[name]
	if !ok {
		p = make(map[string]Record)
		s.partitions[name] = p
	}
	return p
}

func cloneRecord(rec Record) Record {
	rec.Value = append([]byte(nil), rec.Value...)
	return rec
}
