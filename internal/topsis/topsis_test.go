package topsis

import (
	"math"
	"testing"
)

func TestRank_BasicOrdering(t *testing.T) {
	// proximity: cost, reputation/capacity/vehicle: benefit.
	weights := []float64{0.55, 0.25, 0.12, 0.08}
	polarities := []Polarity{Cost, Benefit, Benefit, Benefit}

	alts := []Alternative{
		{ID: "L1", Scores: []float64{0.3, 7, 40, VehicleTypeScore("moto")}},
		{ID: "L2", Scores: []float64{1.2, 9, 20, VehicleTypeScore("bike")}},
		{ID: "L3", Scores: []float64{15.0, 10, 200, VehicleTypeScore("truck")}},
	}

	ranked, err := Rank(alts, weights, polarities)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked results, got %d", len(ranked))
	}
	for _, r := range ranked {
		if r.Closeness < 0 || r.Closeness > 1 {
			t.Errorf("closeness for %s = %v, out of [0,1]", r.ID, r.Closeness)
		}
	}
	// L3 is far away (high cost criterion); expect it ranked last.
	if ranked[len(ranked)-1].ID != "L3" {
		t.Errorf("expected L3 (farthest) ranked last, got order %v", idsOf(ranked))
	}
}

func TestRank_TiesBrokenLexicographically(t *testing.T) {
	weights := []float64{0.5, 0.5}
	polarities := []Polarity{Benefit, Benefit}
	alts := []Alternative{
		{ID: "Z", Scores: []float64{1, 1}},
		{ID: "A", Scores: []float64{1, 1}},
	}
	ranked, err := Rank(alts, weights, polarities)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if ranked[0].ID != "A" || ranked[1].ID != "Z" {
		t.Errorf("expected tie broken lexicographically (A before Z), got %v", idsOf(ranked))
	}
}

func TestRank_ZeroColumnNoNaN(t *testing.T) {
	weights := []float64{1.0}
	polarities := []Polarity{Benefit}
	alts := []Alternative{
		{ID: "A", Scores: []float64{0}},
		{ID: "B", Scores: []float64{0}},
	}
	ranked, err := Rank(alts, weights, polarities)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	for _, r := range ranked {
		if math.IsNaN(r.Closeness) {
			t.Errorf("closeness for %s is NaN", r.ID)
		}
	}
}

func TestRank_MismatchedCriteriaCount(t *testing.T) {
	_, err := Rank([]Alternative{{ID: "A", Scores: []float64{1, 2}}}, []float64{1}, []Polarity{Benefit})
	if err == nil {
		t.Fatal("expected error for mismatched score/weight length")
	}
}

func TestRank_NoAlternatives(t *testing.T) {
	_, err := Rank(nil, []float64{1}, []Polarity{Benefit})
	if err == nil {
		t.Fatal("expected error for empty alternative set")
	}
}

func TestVehicleTypeScore_Unknown(t *testing.T) {
	if got := VehicleTypeScore("hovercraft"); got != 0 {
		t.Errorf("VehicleTypeScore(unknown) = %v, want 0", got)
	}
}

func idsOf(ranked []Ranked) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	return ids
}
