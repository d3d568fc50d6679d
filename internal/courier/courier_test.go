package courier

import (
	"testing"

	"github.com/recoship/ranking/internal/ahp"
	"github.com/recoship/ranking/internal/geomath"
)

func sampleAnnouncement() Announcement {
	return Announcement{
		ID:      "ann-1",
		Pickup:  geomath.Point{Lat: 48.8566, Lon: 2.3522},  // Paris
		Dropoff: geomath.Point{Lat: 48.8738, Lon: 2.2950},  // Arc de Triomphe, ~4km away
		Urgency: ahp.UrgencySameday,
	}
}

func TestRank_EligibleCandidateIsRankedAndWeightsConsistent(t *testing.T) {
	ann := sampleAnnouncement()
	candidates := []Candidate{
		{ID: "c1", Position: geomath.Point{Lat: 48.86, Lon: 2.32}, Reputation: 4.8, VehicleType: "car", MaxCapacityKg: 50},
		{ID: "c2", Position: geomath.Point{Lat: 48.865, Lon: 2.31}, Reputation: 4.2, VehicleType: "moto", MaxCapacityKg: 10},
	}

	result, err := Rank(ann, candidates, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(result.Eligible) != 2 {
		t.Fatalf("expected both candidates eligible, got %d eligible, %d rejected", len(result.Eligible), len(result.Rejected))
	}
	if !result.Weights.Consistent {
		t.Fatalf("expected sameday preset matrix to be consistent, CR=%v", result.Weights.CR)
	}
	for _, rc := range result.Eligible {
		if rc.Rank < 1 || rc.Rank > 2 {
			t.Errorf("candidate %s has out-of-range rank %d", rc.ID, rc.Rank)
		}
	}
}

func TestRank_FarCandidateRejectedByEllipse(t *testing.T) {
	ann := sampleAnnouncement()
	candidates := []Candidate{
		{ID: "near", Position: geomath.Point{Lat: 48.86, Lon: 2.32}, Reputation: 4.0, VehicleType: "car", MaxCapacityKg: 50},
		{ID: "far", Position: geomath.Point{Lat: 43.2965, Lon: 5.3698}, Reputation: 4.9, VehicleType: "truck", MaxCapacityKg: 500}, // Marseille
	}

	result, err := Rank(ann, candidates, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	foundFarRejected := false
	for _, r := range result.Rejected {
		if r.ID == "far" {
			foundFarRejected = true
			if r.MeasuredTotal <= 0 {
				t.Errorf("expected positive measured total distance for rejected candidate")
			}
		}
	}
	if !foundFarRejected {
		t.Fatalf("expected far candidate to be rejected, got eligible=%v rejected=%v", result.Eligible, result.Rejected)
	}
	for _, rc := range result.Eligible {
		if rc.ID == "far" {
			t.Fatalf("far candidate should not appear in eligible ranking")
		}
	}
}

func TestRank_NoEligibleCandidatesReturnsWarningNotError(t *testing.T) {
	ann := sampleAnnouncement()
	candidates := []Candidate{
		{ID: "far", Position: geomath.Point{Lat: 43.2965, Lon: 5.3698}, Reputation: 4.0, VehicleType: "car", MaxCapacityKg: 50},
	}

	result, err := Rank(ann, candidates, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(result.Eligible) != 0 {
		t.Fatalf("expected no eligible candidates, got %d", len(result.Eligible))
	}
	if len(result.Warnings) == 0 {
		t.Fatalf("expected a warning when no candidates are eligible")
	}
}

func TestRank_ToleranceOverrideWidensEligibility(t *testing.T) {
	ann := sampleAnnouncement()
	candidates := []Candidate{
		{ID: "edge", Position: geomath.Point{Lat: 48.90, Lon: 2.40}, Reputation: 4.0, VehicleType: "car", MaxCapacityKg: 50},
	}

	_, err := Rank(ann, candidates, 0)
	if err != nil {
		t.Fatalf("Rank (default tolerance): %v", err)
	}

	wide, err := Rank(ann, candidates, 50.0)
	if err != nil {
		t.Fatalf("Rank (wide tolerance): %v", err)
	}
	if len(wide.Eligible) != 1 {
		t.Fatalf("expected a 50km tolerance to admit the edge candidate, got %d eligible", len(wide.Eligible))
	}
}

func TestRank_UnknownUrgencyPropagatesError(t *testing.T) {
	ann := sampleAnnouncement()
	ann.Urgency = ahp.Urgency("unknown")
	candidates := []Candidate{
		{ID: "c1", Position: ann.Pickup, Reputation: 4.0, VehicleType: "car", MaxCapacityKg: 50},
	}

	_, err := Rank(ann, candidates, 0)
	if err == nil {
		t.Fatalf("expected an error for unknown urgency class")
	}
}
