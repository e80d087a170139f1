package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore is the persistent Store backed by BadgerDB. Badger keeps
// keys in ascending byte order, which is what the rank-key encoding
// relies on, and its transactions give Commit its atomicity.
//
// Full keys are partition + "/" + key; partition names must not
// contain '/'.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger-backed store at dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func fullKey(partition, key string) []byte {
	return []byte(partition + "/" + key)
}

func (s *BadgerStore) Get(ctx context.Context, partition, key string) (Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(fullKey(partition, key))
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			version, value, err := openValue(raw)
			if err != nil {
				return err
			}
			rec = Record{Key: key, Value: append([]byte(nil), value...), Version: version}
			return nil
		})
	})
	if err != nil {
		return Record{}, mapBadgerErr(err)
	}
	return rec, nil
}

func (s *BadgerStore) Put(ctx context.Context, partition, key string, value []byte) (uint64, error) {
	var version uint64
	err := s.db.Update(func(txn *badger.Txn) error {
		version = 1
		if item, err := txn.Get(fullKey(partition, key)); err == nil {
			if err := item.Value(func(raw []byte) error {
				prev, _, err := openValue(raw)
				version = prev + 1
				return err
			}); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(fullKey(partition, key), sealValue(version, value))
	})
	if err != nil {
		return 0, mapBadgerErr(err)
	}
	return version, nil
}

func (s *BadgerStore) Delete(ctx context.Context, partition, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(fullKey(partition, key))
	})
	if err != nil {
		return mapBadgerErr(err)
	}
	return nil
}

func (s *BadgerStore) Scan(ctx context.Context, partition, prefix string, limit int) ([]Record, error) {
	var out []Record
	scanPrefix := fullKey(partition, prefix)
	cut := len(partition) + 1
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scanPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			item := it.Item()
			key := string(item.Key()[cut:])
			if err := item.Value(func(raw []byte) error {
				version, value, err := openValue(raw)
				if err != nil {
					return err
				}
				out = append(out, Record{Key: key, Value: append([]byte(nil), value...), Version: version})
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapBadgerErr(err)
	}
	return out, nil
}

func (s *BadgerStore) Commit(ctx context.Context, partition, guardKey string, expectedVersion uint64, writes []Write) (uint64, error) {
	next := expectedVersion + 1
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(fullKey(partition, guardKey))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			if expectedVersion != 0 {
				return ErrVersionConflict
			}
		case err != nil:
			return err
		default:
			if expectedVersion == 0 {
				return ErrVersionConflict
			}
			var current uint64
			if err := item.Value(func(raw []byte) error {
				v, _, err := openValue(raw)
				current = v
				return err
			}); err != nil {
				return err
			}
			if current != expectedVersion {
				return ErrVersionConflict
			}
		}
		for _, w := range writes {
			if w.Delete {
				if err := txn.Delete(fullKey(partition, w.Key)); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(fullKey(partition, w.Key), sealValue(next, w.Value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, mapBadgerErr(err)
	}
	return next, nil
}

func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrUnavailable, err)
	}
	return nil
}

// mapBadgerErr translates badger errors into this package's sentinels.
// Badger's own transaction conflicts surface as version conflicts; the
// retry loop upstream treats both causes the same way.
func mapBadgerErr(err error) error {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrNotFound
	case errors.Is(err, badger.ErrConflict):
		return ErrVersionConflict
	case errors.Is(err, ErrVersionConflict), errors.Is(err, ErrCorruptRecord):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
