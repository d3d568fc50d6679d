package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/recoship/ranking/internal/ahp"
	"github.com/recoship/ranking/internal/cache"
	"github.com/recoship/ranking/internal/config"
	"github.com/recoship/ranking/internal/courier"
	"github.com/recoship/ranking/internal/embedding"
	"github.com/recoship/ranking/internal/geomath"
	"github.com/recoship/ranking/internal/recommend"
	"github.com/recoship/ranking/internal/repository"
	"github.com/recoship/ranking/internal/sentiment"
	"github.com/recoship/ranking/internal/vectorindex"
)

func testBreakerConfig() config.BreakerConfig {
	return config.BreakerConfig{MaxRequests: 5, Interval: time.Minute, Timeout: time.Second, FailureRate: 0.9}
}

func buildRecommendPipeline(t *testing.T) *recommend.Pipeline {
	t.Helper()
	records := []repository.ProductRecord{
		{ID: "anchor", ProductType: "vehicle", Brand: "Renault", Model: "Clio", Available: true, AverageRating: 4.5},
		{ID: "p1", ProductType: "vehicle", Brand: "Peugeot", Model: "208", Available: true, AverageRating: 4.0},
	}
	repo := repository.New(config.RepositoryConfig{Capacity: 10}, testBreakerConfig(), records)
	embedder := embedding.New(config.EmbeddingConfig{Dimensions: 16, Timeout: time.Second}, testBreakerConfig(), "")
	idx := vectorindex.New(config.VectorIndexConfig{EFSearch: 50, DefaultTopK: 10})

	ctx := context.Background()
	for _, id := range []string{"anchor", "p1"} {
		rec, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("seed Get(%s): %v", id, err)
		}
		vec, err := embedder.Encode(ctx, rec.Description())
		if err != nil {
			t.Fatalf("seed Encode(%s): %v", id, err)
		}
		if _, err := idx.Upsert(ctx, "vehicle", vectorindex.Point{RealProductID: id, Vector: vec, Available: rec.Available}); err != nil {
			t.Fatalf("seed Upsert(%s): %v", id, err)
		}
	}

	return &recommend.Pipeline{
		Cache:      cache.NewFingerprintCache(cache.New(time.Minute), 0.1, 1000, 0.01),
		Repository: repo,
		Embedder:   embedder,
		Index:      idx,
	}
}

func buildSentiment() sentiment.Service {
	return sentiment.New(config.SentimentConfig{ModelClasses: 3, Timeout: time.Second}, testBreakerConfig(), 3)
}

func TestSyncSentimentThenRecommend_FoldsScoreIntoRequest(t *testing.T) {
	o := New(buildRecommendPipeline(t), buildSentiment(), nil, time.Minute)

	sentimentResult, recResult, err := o.SyncSentimentThenRecommend(context.Background(), SentimentRecommendRequest{
		ClientID:           "c1",
		ReferenceProductID: "anchor",
		ProductType:        "vehicle",
		ReviewText:         "excellent voiture, tres propre",
		TopK:               5,
	})
	if err != nil {
		t.Fatalf("SyncSentimentThenRecommend: %v", err)
	}
	if recResult.SentimentScore != sentimentResult.Score {
		t.Fatalf("recommendation result sentiment score %v != analyzed score %v", recResult.SentimentScore, sentimentResult.Score)
	}
}

func TestInvalidate_ClearsCacheEntry(t *testing.T) {
	o := New(buildRecommendPipeline(t), buildSentiment(), nil, time.Minute)
	ctx := context.Background()

	req := recommend.Request{ReferenceProductID: "anchor", ProductType: "vehicle", ClientID: "c1"}
	first, err := o.SyncRecommend(ctx, req)
	if err != nil {
		t.Fatalf("SyncRecommend: %v", err)
	}
	if first.Cached {
		t.Fatalf("first call should not be cached")
	}

	second, err := o.SyncRecommend(ctx, req)
	if err != nil {
		t.Fatalf("SyncRecommend (2nd): %v", err)
	}
	if !second.Cached {
		t.Fatalf("expected second identical call to be a cache hit")
	}

	o.Invalidate("vehicle", "anchor")

	third, err := o.SyncRecommend(ctx, req)
	if err != nil {
		t.Fatalf("SyncRecommend (3rd): %v", err)
	}
	if third.Cached {
		t.Fatalf("expected invalidation to force recomputation")
	}
}

func TestRankCouriers_DelegatesToCourierPackage(t *testing.T) {
	o := New(buildRecommendPipeline(t), buildSentiment(), nil, time.Minute)

	ann := courier.Announcement{
		ID:      "ann-1",
		Pickup:  geomath.Point{Lat: 48.8566, Lon: 2.3522},
		Dropoff: geomath.Point{Lat: 48.8738, Lon: 2.2950},
		Urgency: ahp.UrgencyStandard,
	}
	candidates := []courier.Candidate{
		{ID: "c1", Position: geomath.Point{Lat: 48.86, Lon: 2.32}, Reputation: 4.5, VehicleType: "car", MaxCapacityKg: 50},
	}

	result, err := o.RankCouriers(ann, candidates, 0)
	if err != nil {
		t.Fatalf("RankCouriers: %v", err)
	}
	if len(result.Eligible) != 1 {
		t.Fatalf("expected one eligible courier, got %d", len(result.Eligible))
	}
}

func TestCheckHealthSync_ReportsOK(t *testing.T) {
	o := New(buildRecommendPipeline(t), buildSentiment(), nil, time.Minute)
	report := o.CheckHealthSync(context.Background())
	if report.Recommend != "ok" || report.Sentiment != "ok" {
		t.Fatalf("expected a healthy report, got %+v", report)
	}
}
