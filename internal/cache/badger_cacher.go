package cache

import (
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// BadgerCacher adapts a BadgerDB handle to the Cacher interface, giving the
// fingerprint cache (C8) a durable backend for multi-process deployments
// sharing one host's disk.
type BadgerCacher struct {
	db         *badger.DB
	defaultTTL time.Duration
	hits       int64
	misses     int64
}

// NewBadgerCacher opens (or creates) a Badger-backed cache at path.
func NewBadgerCacher(path string, defaultTTL time.Duration) (*BadgerCacher, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerCacher{db: db, defaultTTL: defaultTTL}, nil
}

func (b *BadgerCacher) Get(key string) (interface{}, bool) {
	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		atomic.AddInt64(&b.misses, 1)
		return nil, false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		atomic.AddInt64(&b.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&b.hits, 1)
	return v, true
}

func (b *BadgerCacher) Set(key string, value interface{}) {
	b.SetWithTTL(key, value, b.defaultTTL)
}

func (b *BadgerCacher) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (b *BadgerCacher) Delete(key string) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *BadgerCacher) Clear() {
	_ = b.db.DropAll()
}

func (b *BadgerCacher) GetStats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&b.hits),
		Misses: atomic.LoadInt64(&b.misses),
	}
}

func (b *BadgerCacher) HitRate() float64 {
	hits := atomic.LoadInt64(&b.hits)
	misses := atomic.LoadInt64(&b.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Close releases the underlying Badger database handle.
func (b *BadgerCacher) Close() error {
	return b.db.Close()
}
