package vectorindex

import (
	"context"
	"testing"

	"github.com/recoship/ranking/internal/config"
	"github.com/recoship/ranking/internal/embedding"
)

func testConfig() config.VectorIndexConfig {
	return config.VectorIndexConfig{M: 16, EFConstruct: 100, EFSearch: 128, FullScanThreshold: 10000, DefaultTopK: 10}
}

func unit(v embedding.Vector) embedding.Vector {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		return v
	}
	norm := sumSq
	out := make(embedding.Vector, len(v))
	for i, x := range v {
		out[i] = x / sqrt(norm)
	}
	return out
}

func sqrt(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 30; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

func TestUpsertAndSearch_FindsExactMatch(t *testing.T) {
	idx := New(testConfig())
	ctx := context.Background()

	v := unit(embedding.Vector{1, 0, 0})
	id, err := idx.Upsert(ctx, "vehicle", Point{RealProductID: "p1", Vector: v})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated internal id")
	}

	results, err := idx.Search(ctx, "vehicle", v, 5, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].RealProductID != "p1" {
		t.Fatalf("Search results = %+v, want one hit for p1", results)
	}
	if results[0].Similarity < 0.999 {
		t.Errorf("Similarity = %v, want ~1 for identical vector", results[0].Similarity)
	}
}

func TestSearch_OrdersByDescendingSimilarity(t *testing.T) {
	idx := New(testConfig())
	ctx := context.Background()

	idx.Upsert(ctx, "vehicle", Point{RealProductID: "close", Vector: unit(embedding.Vector{1, 0.01, 0})})
	idx.Upsert(ctx, "vehicle", Point{RealProductID: "far", Vector: unit(embedding.Vector{0, 1, 0})})

	results, err := idx.Search(ctx, "vehicle", unit(embedding.Vector{1, 0, 0}), 5, -1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || results[0].RealProductID != "close" {
		t.Fatalf("expected close first, got %+v", results)
	}
}

func TestSearch_RespectsScoreThreshold(t *testing.T) {
	idx := New(testConfig())
	ctx := context.Background()
	idx.Upsert(ctx, "vehicle", Point{RealProductID: "orthogonal", Vector: unit(embedding.Vector{0, 1, 0})})

	results, err := idx.Search(ctx, "vehicle", unit(embedding.Vector{1, 0, 0}), 5, 0.5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results above threshold, got %+v", results)
	}
}

func TestUpsert_RequiresRealProductID(t *testing.T) {
	idx := New(testConfig())
	_, err := idx.Upsert(context.Background(), "vehicle", Point{Vector: embedding.Vector{1, 0}})
	if err == nil {
		t.Fatal("expected error for missing real_product_id")
	}
}

func TestDeleteByProductID_RemovesFromSearch(t *testing.T) {
	idx := New(testConfig())
	ctx := context.Background()
	v := unit(embedding.Vector{1, 0, 0})
	idx.Upsert(ctx, "vehicle", Point{RealProductID: "p1", Vector: v})

	if err := idx.DeleteByProductID(ctx, "vehicle", "p1"); err != nil {
		t.Fatalf("DeleteByProductID: %v", err)
	}
	results, _ := idx.Search(ctx, "vehicle", v, 5, -1)
	if len(results) != 0 {
		t.Fatalf("expected no results after delete, got %+v", results)
	}
}

func TestEnsureCollection_RecreateClears(t *testing.T) {
	idx := New(testConfig())
	ctx := context.Background()
	idx.Upsert(ctx, "vehicle", Point{RealProductID: "p1", Vector: embedding.Vector{1, 0}})

	if err := idx.EnsureCollection(ctx, "vehicle", true); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	results, _ := idx.Search(ctx, "vehicle", embedding.Vector{1, 0}, 5, -1)
	if len(results) != 0 {
		t.Fatalf("expected empty collection after recreate, got %+v", results)
	}
}

func TestUpsertBatch_AssignsIDPerPoint(t *testing.T) {
	idx := New(testConfig())
	ctx := context.Background()
	points := []Point{
		{RealProductID: "p1", Vector: embedding.Vector{1, 0}},
		{RealProductID: "p2", Vector: embedding.Vector{0, 1}},
	}
	ids, err := idx.UpsertBatch(ctx, "vehicle", points)
	if err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}
	if len(ids) != 2 || ids[0] == ids[1] {
		t.Fatalf("expected 2 distinct ids, got %v", ids)
	}
}
