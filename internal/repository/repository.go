// Package repository exposes a narrow, read-only view over product
// records. The relational store behind it is an external collaborator;
// this package only defines the contract the recommendation core
// consumes (fetch by id, batch fetch) plus a process-local in-memory
// implementation for standalone operation.
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/recoship/ranking/internal/cache"
	"github.com/recoship/ranking/internal/config"
	"github.com/recoship/ranking/internal/resilience"
)

// ProductRecord is the vehicle-variant product record the recommendation
// core reads. Fuel/transmission are opaque metadata strings rather than
// validated enums: the repository is a read-only external collaborator
// and must not reject records carrying unrecognized upstream values.
type ProductRecord struct {
	ID            string
	ProductType   string
	Brand         string
	Model         string
	Year          int
	VehicleType   string
	Transmission  string
	Fuel          string
	Seats         int
	LuggageKg     float64
	Location      string
	DailyPrice    float64
	Available     bool
	AverageRating float64
	RentalCount   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Description renders the deterministic, order-stable text used as the
// embedding query for this product.
func (p ProductRecord) Description() string {
	return fmt.Sprintf("%s %s %d %s %s %s %d seats, %s location, %.2f per day",
		p.Brand, p.Model, p.Year, p.VehicleType, p.Transmission, p.Fuel, p.Seats, p.Location, p.DailyPrice)
}

// Repository fetches product records by id.
type Repository interface {
	Get(ctx context.Context, id string) (*ProductRecord, error)
	GetBatch(ctx context.Context, ids []string) (map[string]*ProductRecord, error)
	// Suggest returns up to limit brand or model values (field is "brand" or
	// "model") whose normalized form starts with prefix, most-inserted first.
	Suggest(field, prefix string, limit int) []string
	HealthCheck(ctx context.Context) error
	HealthCheckSync(ctx context.Context) error
}

// inMemory is a standalone Repository backed by an LFU cache of bounded
// capacity, standing in for the relational store's connection pool.
type inMemory struct {
	mu      sync.RWMutex
	records map[string]*ProductRecord
	recent  *cache.LFUCacheGeneric[*ProductRecord]
	breaker *gobreaker.CircuitBreaker[*ProductRecord]
	suggest *cache.TrieIndex
}

// New constructs an in-memory Repository seeded with records, bounded by
// cfg.Capacity for its warm-record LFU tier (0 or negative falls back to
// an unbounded map only).
func New(cfg config.RepositoryConfig, breakerCfg config.BreakerConfig, records []ProductRecord) Repository {
	r := &inMemory{
		records: make(map[string]*ProductRecord, len(records)),
		breaker: resilience.New[*ProductRecord]("repository", breakerCfg),
		suggest: cache.NewTrieIndex(),
	}
	if cfg.Capacity > 0 {
		r.recent = cache.NewLFUCacheGeneric[*ProductRecord](cfg.Capacity, 0)
	}
	brandTrie := r.suggest.GetOrCreate("brand")
	modelTrie := r.suggest.GetOrCreate("model")
	for i := range records {
		rec := records[i]
		r.records[rec.ID] = &rec
		if rec.Brand != "" {
			brandTrie.InsertWithData(rec.Brand, rec.ID)
		}
		if rec.Model != "" {
			modelTrie.InsertWithData(rec.Model, rec.ID)
		}
	}
	return r
}

// Suggest implements the autocomplete lookup documented on Repository.
func (r *inMemory) Suggest(field, prefix string, limit int) []string {
	trie := r.suggest.Get(field)
	if trie == nil {
		return nil
	}
	results := trie.AutocompleteWithLimit(prefix, limit)
	out := make([]string, len(results))
	for i, res := range results {
		out[i] = res.Value
	}
	return out
}

// ErrNotFound is returned by Get when the product id has no record. Core A
// treats this as a non-error, empty-result condition rather than
// propagating it to the HTTP edge.
var ErrNotFound = fmt.Errorf("repository: product not found")

func (r *inMemory) Get(_ context.Context, id string) (*ProductRecord, error) {
	result, err := r.breaker.Execute(func() (*ProductRecord, error) {
		if r.recent != nil {
			if rec, ok := r.recent.Get(id); ok {
				return rec, nil
			}
		}
		r.mu.RLock()
		rec, ok := r.records[id]
		r.mu.RUnlock()
		if !ok {
			return nil, ErrNotFound
		}
		if r.recent != nil {
			r.recent.Set(id, rec)
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *inMemory) GetBatch(ctx context.Context, ids []string) (map[string]*ProductRecord, error) {
	out := make(map[string]*ProductRecord, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("repository: get_batch id %q: %w", id, err)
		}
		out[id] = rec
	}
	return out, nil
}

func (r *inMemory) HealthCheck(_ context.Context) error {
	return nil
}

func (r *inMemory) HealthCheckSync(ctx context.Context) error {
	return r.HealthCheck(ctx)
}
