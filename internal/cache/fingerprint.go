package cache

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/recoship/ranking/internal/metrics"
)

// RequestFingerprint identifies a recommendation or sentiment cache entry.
// ProductID/ProductType select the product-level fallback tier; SentimentScore
// selects the sentiment-bucketed tier.
type RequestFingerprint struct {
	ProductType    string
	ProductID      string
	SentimentScore float64
	Extra          map[string]string
}

// productEntry is what the product-level tier stores: the cached value
// alongside the sentiment score it was computed for, so a later lookup can
// reject it once the request's sentiment has drifted past tolerance.
type productEntry struct {
	Value          interface{}
	SentimentScore float64
}

// FingerprintCache layers two lookup tiers over a Cacher:
//  1. sentiment-bucketed match: a request whose score buckets to the same
//     value as a stored entry is an "exact" hit; one that buckets to a
//     neighboring bucket (+/- tolerance) is a "fuzzy" hit, catching pairs of
//     scores within tolerance of each other that straddle a bucket boundary.
//  2. product-level match ignoring sentiment entirely, but only honored when
//     the cached entry's own sentiment is within tolerance of the request's —
//     otherwise a request with a very different sentiment would reuse a
//     ranking computed for an unrelated mood.
type FingerprintCache struct {
	backend   Cacher
	bloom     *BloomLRU
	tolerance float64

	mu      sync.Mutex
	recKeys map[string]map[string]struct{} // productKey -> rec keys Store has written for it
}

// NewFingerprintCache wraps backend with tolerance-aware fingerprint lookup.
// tolerance is the sentiment-score bucket width (tau); bloomCapacity/bloomFP
// size the short-circuit bloom filter used to skip lookups for keys that were
// never written.
func NewFingerprintCache(backend Cacher, tolerance float64, bloomCapacity int, bloomFP float64) *FingerprintCache {
	if tolerance <= 0 {
		tolerance = 0.1
	}
	return &FingerprintCache{
		backend:   backend,
		bloom:     NewBloomLRU(bloomCapacity, 0 /* ttl managed by backend */, bloomFP),
		tolerance: tolerance,
		recKeys:   make(map[string]map[string]struct{}),
	}
}

// Bucket rounds a sentiment score to the nearest multiple of tau, producing a
// stable fingerprint for bucketed matching: bucket(s) = round(s/tau) * tau.
func Bucket(score, tau float64) float64 {
	if tau <= 0 {
		return score
	}
	return math.Round(score/tau) * tau
}

// recKey builds the recommendation-tier key for fp with its sentiment score
// pinned to bucket.
func recKey(fp RequestFingerprint, bucket float64) string {
	bucketed := fp
	bucketed.SentimentScore = bucket
	return GenerateKey("rec", bucketed)
}

func productKey(productType, productID string) string {
	return fmt.Sprintf("prod:%s:%s", productType, productID)
}

// neighborBuckets returns the buckets adjacent to bucket, clamped to the
// valid sentiment range [-1, 1].
func neighborBuckets(bucket, tau float64) []float64 {
	out := make([]float64, 0, 2)
	for _, n := range [2]float64{bucket - tau, bucket + tau} {
		if n >= -1 && n <= 1 {
			out = append(out, n)
		}
	}
	return out
}

// Get attempts the same-bucket ("exact") lookup, then the neighbor-bucket
// ("fuzzy") lookups, then the tolerance-guarded product-level fallback, in
// order, and reports which tier satisfied the request (empty string on a
// full miss).
func (f *FingerprintCache) Get(fp RequestFingerprint) (interface{}, string, bool) {
	bucket := Bucket(fp.SentimentScore, f.tolerance)
	neighbors := neighborBuckets(bucket, f.tolerance)
	pk := productKey(fp.ProductType, fp.ProductID)

	candidates := make([]string, 0, len(neighbors)+2)
	candidates = append(candidates, recKey(fp, bucket))
	for _, n := range neighbors {
		candidates = append(candidates, recKey(fp, n))
	}
	candidates = append(candidates, pk)

	maybePresent := false
	for _, k := range candidates {
		if f.bloom.bloom.Test(k) {
			maybePresent = true
			break
		}
	}
	if !maybePresent {
		return nil, "", false
	}

	if v, ok := f.backend.Get(recKey(fp, bucket)); ok {
		return v, "exact", true
	}
	for _, n := range neighbors {
		if v, ok := f.backend.Get(recKey(fp, n)); ok {
			return v, "fuzzy", true
		}
	}
	if v, ok := f.backend.Get(pk); ok {
		entry, ok := v.(productEntry)
		if !ok {
			return nil, "", false
		}
		if math.Abs(entry.SentimentScore-fp.SentimentScore) > f.tolerance {
			return nil, "", false
		}
		return entry.Value, "product", true
	}
	return nil, "", false
}

// Store writes value under its own sentiment bucket and under the
// product-level tier (paired with the sentiment score it was computed for,
// so Get can enforce the tolerance guard), tracking the bucketed key so
// Invalidate can find and remove it later.
func (f *FingerprintCache) Store(fp RequestFingerprint, value interface{}, ttl time.Duration) {
	bucket := Bucket(fp.SentimentScore, f.tolerance)
	rk := recKey(fp, bucket)
	pk := productKey(fp.ProductType, fp.ProductID)

	f.backend.SetWithTTL(rk, value, ttl)
	f.backend.SetWithTTL(pk, productEntry{Value: value, SentimentScore: fp.SentimentScore}, ttl)

	f.bloom.Record(rk)
	f.bloom.Record(pk)

	f.mu.Lock()
	set, ok := f.recKeys[pk]
	if !ok {
		set = make(map[string]struct{})
		f.recKeys[pk] = set
	}
	set[rk] = struct{}{}
	f.mu.Unlock()

	metrics.CacheEntries.Set(float64(f.backend.GetStats().TotalKeys))
}

// Invalidate removes every tier's entry for a product: the product-level
// entry and every sentiment-bucketed key Store has written for it, so the
// next identical request recomputes instead of serving a stale result. It
// returns the number of keys deleted.
func (f *FingerprintCache) Invalidate(productType, productID string) int {
	pk := productKey(productType, productID)

	f.mu.Lock()
	keys := f.recKeys[pk]
	delete(f.recKeys, pk)
	f.mu.Unlock()

	count := 0
	for k := range keys {
		f.backend.Delete(k)
		count++
	}
	f.backend.Delete(pk)
	count++

	metrics.CacheEntries.Set(float64(f.backend.GetStats().TotalKeys))
	return count
}

// Stats reports the backend's hit/miss counters.
func (f *FingerprintCache) Stats() Stats {
	return f.backend.GetStats()
}
