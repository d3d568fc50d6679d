// Package recommend orchestrates Core A's recommendation pipeline: a
// tolerance-aware cache probe, anchor lookup, query construction,
// embedding, vector search, detail fetch, and fusion ranking.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/recoship/ranking/internal/cache"
	"github.com/recoship/ranking/internal/embedding"
	"github.com/recoship/ranking/internal/logging"
	"github.com/recoship/ranking/internal/metrics"
	"github.com/recoship/ranking/internal/ranker"
	"github.com/recoship/ranking/internal/repository"
	"github.com/recoship/ranking/internal/vectorindex"
)

// Request is one recommendation query.
type Request struct {
	ClientID           string
	ReferenceProductID string
	ProductType        string
	SentimentScore     float64
	TopK               int
}

// Result is the Core A response payload.
type Result struct {
	ClientID           string                 `json:"client_id"`
	ReferenceProductID string                 `json:"reference_product_id"`
	SentimentScore     float64                `json:"sentiment_score"`
	ProductType        string                 `json:"product_type"`
	Recommendations    []ranker.RankedProduct `json:"recommendations"`
	TotalResults       int                    `json:"total_results"`
	Cached             bool                   `json:"cached"`
	CacheKey           string                 `json:"cache_key,omitempty"`
}

// Pipeline wires together the collaborators a recommendation request
// passes through.
type Pipeline struct {
	Cache      *cache.FingerprintCache
	Repository repository.Repository
	Embedder   embedding.Service
	Index      vectorindex.Index
	Weights    ranker.Weights
	RankOpts   ranker.Options
}

const defaultTopK = 10

// Run executes the full pipeline for req. A cache hit short-circuits
// every downstream stage; an anchor miss degrades to an empty, non-error
// result; a cache put only happens after a successful rank so a
// cancelled request never corrupts the cache.
func (p *Pipeline) Run(ctx context.Context, req Request, ttl time.Duration) (Result, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	fp := cache.RequestFingerprint{
		ProductType:    req.ProductType,
		ProductID:      req.ReferenceProductID,
		SentimentScore: req.SentimentScore,
		Extra:          map[string]string{"client_id": req.ClientID},
	}

	cacheStart := time.Now()
	if p.Cache != nil {
		if cached, tier, ok := p.Cache.Get(fp); ok {
			metrics.RecordRecommendationStage("cache_lookup", time.Since(cacheStart))
			metrics.RecordCacheHit(tier)
			if result, ok := cached.(Result); ok {
				logging.Ctx(ctx).Debug().Str("cache_tier", tier).Msg("recommendation cache hit")
				result.Cached = true
				return result, nil
			}
		} else {
			metrics.RecordRecommendationStage("cache_lookup", time.Since(cacheStart))
			metrics.RecordCacheMiss()
		}
	}

	anchor, err := p.Repository.Get(ctx, req.ReferenceProductID)
	if err != nil {
		if err == repository.ErrNotFound {
			metrics.RecordRecommendationResult("empty")
			return Result{
				ClientID:           req.ClientID,
				ReferenceProductID: req.ReferenceProductID,
				SentimentScore:     req.SentimentScore,
				ProductType:        req.ProductType,
				Recommendations:    []ranker.RankedProduct{},
				TotalResults:       0,
				Cached:             false,
			}, nil
		}
		metrics.RecordRecommendationResult("error")
		return Result{}, fmt.Errorf("recommend: anchor fetch: %w", err)
	}

	query := anchor.Description()

	vec, err := p.Embedder.Encode(ctx, query)
	if err != nil {
		metrics.RecordRecommendationResult("error")
		return Result{}, fmt.Errorf("recommend: embed: %w", err)
	}

	searchStart := time.Now()
	similar, err := p.Index.Search(ctx, req.ProductType, vec, topK*2, 0)
	metrics.RecordRecommendationStage("embedding_search", time.Since(searchStart))
	if err != nil {
		metrics.RecordRecommendationResult("error")
		return Result{}, fmt.Errorf("recommend: index search: %w", err)
	}
	similar = excludeAndTruncate(similar, req.ReferenceProductID, topK)
	metrics.EmbeddingSearchCandidates.Observe(float64(len(similar)))

	ids := make([]string, len(similar))
	for i, s := range similar {
		ids[i] = s.RealProductID
	}
	details, err := p.Repository.GetBatch(ctx, ids)
	if err != nil {
		metrics.RecordRecommendationResult("error")
		return Result{}, fmt.Errorf("recommend: details batch fetch: %w", err)
	}

	rankStart := time.Now()
	ranked := ranker.Rank(similar, details, req.ProductType, p.Weights, p.RankOpts)
	metrics.RecordRecommendationStage("ranking", time.Since(rankStart))

	result := Result{
		ClientID:           req.ClientID,
		ReferenceProductID: req.ReferenceProductID,
		SentimentScore:     req.SentimentScore,
		ProductType:        req.ProductType,
		Recommendations:    ranked,
		TotalResults:       len(ranked),
		Cached:             false,
	}

	select {
	case <-ctx.Done():
		// Aborted after ranking completed but before we could persist the
		// result; skip the cache put so a cancelled request never writes a
		// stale or partial entry.
		metrics.RecordRecommendationResult("error")
		return result, ctx.Err()
	default:
	}

	if p.Cache != nil {
		p.Cache.Store(fp, result, ttl)
	}

	metrics.RecordRecommendationResult("success")
	return result, nil
}

func excludeAndTruncate(similar []vectorindex.SimilarProduct, excludeID string, topK int) []vectorindex.SimilarProduct {
	out := make([]vectorindex.SimilarProduct, 0, len(similar))
	for _, s := range similar {
		if s.RealProductID == excludeID {
			continue
		}
		out = append(out, s)
		if len(out) == topK {
			break
		}
	}
	return out
}
