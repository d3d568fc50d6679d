package ranker

import (
	"testing"

	"github.com/recoship/ranking/internal/repository"
	"github.com/recoship/ranking/internal/vectorindex"
)

func TestRank_WeaklyDecreasingFinalScore(t *testing.T) {
	similar := []vectorindex.SimilarProduct{
		{RealProductID: "p1", Similarity: 0.9},
		{RealProductID: "p2", Similarity: 0.5},
		{RealProductID: "p3", Similarity: 0.7},
	}
	details := map[string]*repository.ProductRecord{
		"p1": {ID: "p1", Available: true, AverageRating: 4.0},
		"p2": {ID: "p2", Available: false, AverageRating: 5.0},
		"p3": {ID: "p3", Available: true, AverageRating: 3.0},
	}

	ranked := Rank(similar, details, "vehicle", DefaultWeights(), Options{})
	if len(ranked) != 3 {
		t.Fatalf("len(ranked) = %d, want 3", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].FinalScore > ranked[i-1].FinalScore {
			t.Fatalf("scores not weakly decreasing at rank %d", i+1)
		}
		if ranked[i].Rank != i+1 {
			t.Errorf("rank field = %d, want %d", ranked[i].Rank, i+1)
		}
	}
}

func TestRank_SkipsMissingDetails(t *testing.T) {
	similar := []vectorindex.SimilarProduct{
		{RealProductID: "p1", Similarity: 0.9},
		{RealProductID: "missing", Similarity: 0.8},
	}
	details := map[string]*repository.ProductRecord{
		"p1": {ID: "p1", Available: true, AverageRating: 4.0},
	}
	ranked := Rank(similar, details, "vehicle", DefaultWeights(), Options{})
	if len(ranked) != 1 {
		t.Fatalf("len(ranked) = %d, want 1", len(ranked))
	}
}

func TestRank_MinimumScoreFilter(t *testing.T) {
	similar := []vectorindex.SimilarProduct{
		{RealProductID: "p1", Similarity: 0.9},
		{RealProductID: "p2", Similarity: 0.01},
	}
	details := map[string]*repository.ProductRecord{
		"p1": {ID: "p1", Available: true, AverageRating: 5.0},
		"p2": {ID: "p2", Available: false, AverageRating: 0},
	}
	ranked := Rank(similar, details, "vehicle", DefaultWeights(), Options{MinimumScore: 0.5})
	if len(ranked) != 1 || ranked[0].RealProductID != "p1" {
		t.Fatalf("expected only p1 to survive the minimum score filter, got %+v", ranked)
	}
}

func TestRank_TiesBrokenByIDLexOrder(t *testing.T) {
	similar := []vectorindex.SimilarProduct{
		{RealProductID: "zzz", Similarity: 0.5},
		{RealProductID: "aaa", Similarity: 0.5},
	}
	details := map[string]*repository.ProductRecord{
		"zzz": {ID: "zzz", Available: false, AverageRating: 0},
		"aaa": {ID: "aaa", Available: false, AverageRating: 0},
	}
	ranked := Rank(similar, details, "vehicle", DefaultWeights(), Options{})
	if ranked[0].RealProductID != "aaa" {
		t.Errorf("expected tie broken lexicographically, got order %s, %s", ranked[0].RealProductID, ranked[1].RealProductID)
	}
}

func TestWeights_NormalizeArbitraryRatios(t *testing.T) {
	ranked := Rank(
		[]vectorindex.SimilarProduct{{RealProductID: "p1", Similarity: 1.0}},
		map[string]*repository.ProductRecord{"p1": {ID: "p1", Available: true, AverageRating: 5.0}},
		"vehicle",
		Weights{Similarity: 6, Availability: 3, Reputation: 1},
		Options{},
	)
	if len(ranked) != 1 {
		t.Fatalf("expected one result")
	}
	if ranked[0].FinalScore < 0.99 || ranked[0].FinalScore > 1.0 {
		t.Errorf("FinalScore = %v, want ~1 for a perfect candidate", ranked[0].FinalScore)
	}
}
