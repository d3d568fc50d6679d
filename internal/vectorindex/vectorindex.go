// Package vectorindex provides per-product-type collections over a
// cosine-distance index: upsert, batch upsert, top-k search, and delete by
// product id. The default backend is an in-process brute-force scan; a
// second backend persists to BadgerDB so collections survive restarts.
package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recoship/ranking/internal/cache"
	"github.com/recoship/ranking/internal/config"
	"github.com/recoship/ranking/internal/embedding"
)

// Point is a vector plus its denormalized payload, keyed internally by an
// opaque id assigned on upsert.
type Point struct {
	InternalID    string
	RealProductID string
	Vector        embedding.Vector
	Available     bool
	Location      string
	Price         float64
	Rating        float64
}

// SimilarProduct is one search result.
type SimilarProduct struct {
	RealProductID string
	Similarity    float64
	InternalID    string
}

// Index manages collections of vectors, one per product type.
type Index interface {
	EnsureCollection(ctx context.Context, productType string, recreate bool) error
	Upsert(ctx context.Context, productType string, p Point) (string, error)
	UpsertBatch(ctx context.Context, productType string, points []Point) ([]string, error)
	Search(ctx context.Context, productType string, query embedding.Vector, topK int, scoreThreshold float64) ([]SimilarProduct, error)
	DeleteByProductID(ctx context.Context, productType, realProductID string) error
	HealthCheck(ctx context.Context) error
	HealthCheckSync(ctx context.Context) error
}

// collection holds one product type's points in memory.
type collection struct {
	mu     sync.RWMutex
	points map[string]Point // internal id -> point
}

// memoryIndex is the default in-process backend: brute-force cosine scan
// bounded by an ef-sized min-heap (least similar evicted first) so a search
// never sorts the full collection to find its top-k.
type memoryIndex struct {
	cfg         config.VectorIndexConfig
	mu          sync.RWMutex
	collections map[string]*collection
}

// New constructs the default in-process vector index.
func New(cfg config.VectorIndexConfig) Index {
	return &memoryIndex{
		cfg:         cfg,
		collections: make(map[string]*collection),
	}
}

func (idx *memoryIndex) getOrCreate(productType string) *collection {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	c, ok := idx.collections[productType]
	if !ok {
		c = &collection{points: make(map[string]Point)}
		idx.collections[productType] = c
	}
	return c
}

func (idx *memoryIndex) EnsureCollection(_ context.Context, productType string, recreate bool) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if recreate {
		idx.collections[productType] = &collection{points: make(map[string]Point)}
		return nil
	}
	if _, ok := idx.collections[productType]; !ok {
		idx.collections[productType] = &collection{points: make(map[string]Point)}
	}
	return nil
}

func (idx *memoryIndex) Upsert(_ context.Context, productType string, p Point) (string, error) {
	if p.RealProductID == "" {
		return "", fmt.Errorf("vectorindex: upsert requires a real_product_id")
	}
	c := idx.getOrCreate(productType)
	if p.InternalID == "" {
		p.InternalID = uuid.New().String()
	}
	c.mu.Lock()
	c.points[p.InternalID] = p
	c.mu.Unlock()
	return p.InternalID, nil
}

func (idx *memoryIndex) UpsertBatch(ctx context.Context, productType string, points []Point) ([]string, error) {
	ids := make([]string, len(points))
	for i, p := range points {
		id, err := idx.Upsert(ctx, productType, p)
		if err != nil {
			return nil, fmt.Errorf("vectorindex: upsert_batch item %d: %w", i, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// Search scans the collection, scoring every point by cosine similarity
// and keeping the top `ef` via a bounded min-heap keyed on a synthetic
// timestamp derived from the similarity score (higher similarity maps to
// a later synthetic time, so the heap's "evict oldest on overflow"
// behavior evicts the least similar candidate first).
func (idx *memoryIndex) Search(_ context.Context, productType string, query embedding.Vector, topK int, scoreThreshold float64) ([]SimilarProduct, error) {
	idx.mu.RLock()
	c, ok := idx.collections[productType]
	idx.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	ef := idx.cfg.EFSearch
	if ef <= 0 {
		ef = topK
	}
	if ef < topK {
		ef = topK
	}

	heap := cache.NewMinHeap[SimilarProduct](ef)

	c.mu.RLock()
	for _, p := range c.points {
		sim := cosineSimilarity(query, p.Vector)
		if sim < scoreThreshold {
			continue
		}
		heap.Push(p.InternalID, SimilarProduct{
			RealProductID: p.RealProductID,
			Similarity:    sim,
			InternalID:    p.InternalID,
		}, similarityToSyntheticTime(sim))
	}
	c.mu.RUnlock()

	entries := heap.All()
	results := make([]SimilarProduct, len(entries))
	for i, e := range entries {
		results[i] = e.Value
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

func (idx *memoryIndex) DeleteByProductID(_ context.Context, productType, realProductID string) error {
	idx.mu.RLock()
	c, ok := idx.collections[productType]
	idx.mu.RUnlock()
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for internalID, p := range c.points {
		if p.RealProductID == realProductID {
			delete(c.points, internalID)
		}
	}
	return nil
}

func (idx *memoryIndex) HealthCheck(_ context.Context) error     { return nil }
func (idx *memoryIndex) HealthCheckSync(_ context.Context) error { return nil }

// cosineSimilarity assumes both vectors are unit-norm, so it reduces to a
// dot product; on a dimension mismatch it uses only the shared leading
// dimensions. It does not re-normalize vectors whose norm differs from 1.
func cosineSimilarity(a, b embedding.Vector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	return dot
}

// similarityToSyntheticTime maps a cosine similarity in [-1,1] to a
// monotonically increasing time.Time so the shared MinHeap primitive
// (ordered by timestamp) can double as a bounded top-k-by-score heap.
func similarityToSyntheticTime(sim float64) time.Time {
	offsetNanos := int64((sim + 1) * 1e9)
	return time.Unix(0, offsetNanos)
}
