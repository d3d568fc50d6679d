package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/recoship/ranking/internal/config"
	"github.com/recoship/ranking/internal/embedding"
)

// Key prefixes give each key kind a type-scoped namespace. Upsert stores the
// whole record, payload included, under vecKeyPrefix; payloadKeyPrefix keys
// are only deleted (by EnsureCollection), never written.
const (
	vecKeyPrefix     = "vec:"
	payloadKeyPrefix = "payload:"
)

type badgerRecord struct {
	InternalID    string    `json:"internal_id"`
	RealProductID string    `json:"real_product_id"`
	Vector        []float64 `json:"vector"`
	Available     bool      `json:"available"`
	Location      string    `json:"location"`
	Price         float64   `json:"price"`
	Rating        float64   `json:"rating"`
}

// badgerIndex persists collections to BadgerDB so they survive process
// restarts; reads still require a full scan per search since Badger has no
// native ANN support, mirroring the in-process index's brute-force scan
// but backed by durable storage.
type badgerIndex struct {
	cfg config.VectorIndexConfig
	db  *badger.DB
	mu  sync.Mutex
}

// NewBadgerIndex opens (or creates) a Badger-backed vector index at path.
func NewBadgerIndex(cfg config.VectorIndexConfig, path string) (Index, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: open badger store at %q: %w", path, err)
	}
	return &badgerIndex{cfg: cfg, db: db}, nil
}

func collectionKey(prefix, productType, internalID string) []byte {
	return []byte(prefix + productType + ":" + internalID)
}

func (b *badgerIndex) EnsureCollection(_ context.Context, productType string, recreate bool) error {
	if !recreate {
		return nil
	}
	prefix := []byte(vecKeyPrefix + productType + ":")
	return b.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, append([]byte{}, it.Item().KeyCopy(nil)...))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
			payloadKey := append([]byte(payloadKeyPrefix), k[len(vecKeyPrefix):]...)
			_ = txn.Delete(payloadKey)
		}
		return nil
	})
}

func (b *badgerIndex) Upsert(_ context.Context, productType string, p Point) (string, error) {
	if p.RealProductID == "" {
		return "", fmt.Errorf("vectorindex: upsert requires a real_product_id")
	}
	if p.InternalID == "" {
		p.InternalID = uuid.New().String()
	}
	rec := badgerRecord{
		InternalID:    p.InternalID,
		RealProductID: p.RealProductID,
		Vector:        []float64(p.Vector),
		Available:     p.Available,
		Location:      p.Location,
		Price:         p.Price,
		Rating:        p.Rating,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("vectorindex: marshal point: %w", err)
	}
	key := collectionKey(vecKeyPrefix, productType, p.InternalID)
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return "", fmt.Errorf("vectorindex: persist point: %w", err)
	}
	return p.InternalID, nil
}

func (b *badgerIndex) UpsertBatch(ctx context.Context, productType string, points []Point) ([]string, error) {
	ids := make([]string, len(points))
	for i, p := range points {
		id, err := b.Upsert(ctx, productType, p)
		if err != nil {
			return nil, fmt.Errorf("vectorindex: upsert_batch item %d: %w", i, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func (b *badgerIndex) Search(_ context.Context, productType string, query embedding.Vector, topK int, scoreThreshold float64) ([]SimilarProduct, error) {
	prefix := []byte(vecKeyPrefix + productType + ":")
	var results []SimilarProduct

	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec badgerRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				sim := cosineSimilarity(query, rec.Vector)
				if sim < scoreThreshold {
					return nil
				}
				results = append(results, SimilarProduct{
					RealProductID: rec.RealProductID,
					Similarity:    sim,
					InternalID:    rec.InternalID,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].RealProductID < results[j].RealProductID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (b *badgerIndex) DeleteByProductID(_ context.Context, productType, realProductID string) error {
	prefix := []byte(vecKeyPrefix + productType + ":")
	return b.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		var toDelete [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var rec badgerRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			if rec.RealProductID == realProductID {
				toDelete = append(toDelete, append([]byte{}, item.KeyCopy(nil)...))
			}
		}
		for _, k := range toDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *badgerIndex) HealthCheck(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db.View(func(txn *badger.Txn) error { return nil })
}

func (b *badgerIndex) HealthCheckSync(ctx context.Context) error {
	return b.HealthCheck(ctx)
}

var errBadgerClosed = errors.New("vectorindex: badger store is closed")

// Close releases the underlying Badger database handle.
func (b *badgerIndex) Close() error {
	if b.db == nil {
		return errBadgerClosed
	}
	return b.db.Close()
}
