// Package courier implements Core B: a pure, stateless pipeline that
// geofilters courier candidates against a delivery announcement, derives
// AHP criterion weights from the urgency class, and ranks eligible
// candidates with TOPSIS.
package courier

import (
	"fmt"
	"sort"
	"time"

	"github.com/recoship/ranking/internal/ahp"
	"github.com/recoship/ranking/internal/cache"
	"github.com/recoship/ranking/internal/geomath"
	"github.com/recoship/ranking/internal/metrics"
	"github.com/recoship/ranking/internal/topsis"
)

// Announcement is a delivery request: pickup/drop-off points and urgency.
type Announcement struct {
	ID       string
	Pickup   geomath.Point
	Dropoff  geomath.Point
	Urgency  ahp.Urgency
}

// Candidate is a courier available for assignment.
type Candidate struct {
	ID             string
	CommercialName string
	Position       geomath.Point
	Reputation     float64
	DeliveryCount  int
	SuccessRate    float64
	VehicleType    string
	MaxCapacityKg  float64
}

// Rejected records a candidate excluded by the ellipse predicate.
type Rejected struct {
	ID             string
	Reason         string
	MeasuredTotal  float64
}

// RankedCandidate is an eligible courier with its TOPSIS score.
type RankedCandidate struct {
	ID         string
	Closeness  float64
	Rank       int
}

// Result is the full Core B response.
type Result struct {
	AnnouncementID string
	Eligible       []RankedCandidate
	Rejected       []Rejected
	Weights        ahp.Result
	Warnings       []string
}

// Tolerances maps urgency to its default ellipse tolerance in kilometers.
var Tolerances = map[ahp.Urgency]float64{
	ahp.UrgencyStandard: 2.5,
	ahp.UrgencyExpress:  1.5,
	ahp.UrgencySameday:  1.0,
}

// Rank runs the full Core B pipeline: geofence, AHP weights, TOPSIS
// scoring. tolOverride, if non-zero, replaces the urgency's default
// tolerance.
func Rank(ann Announcement, candidates []Candidate, tolOverride float64) (Result, error) {
	tol := Tolerances[ann.Urgency]
	if tolOverride > 0 {
		tol = tolOverride
	}

	eligible, rejected := partition(ann, candidates, tol)
	metrics.GeofenceEligibleCandidates.WithLabelValues(string(ann.Urgency)).Observe(float64(len(eligible)))

	result := Result{AnnouncementID: ann.ID, Rejected: rejected}

	if len(eligible) == 0 {
		result.Warnings = append(result.Warnings, "no eligible candidates after geofence filter")
		return result, nil
	}

	matrix, err := ahp.PresetMatrix(ann.Urgency)
	if err != nil {
		return Result{}, fmt.Errorf("courier: ahp preset: %w", err)
	}
	weights, err := ahp.Weigh(matrix)
	if err != nil {
		return Result{}, fmt.Errorf("courier: ahp weigh: %w", err)
	}
	result.Weights = weights
	metrics.AHPConsistencyRatio.Observe(weights.CR)
	if !weights.Consistent {
		result.Warnings = append(result.Warnings, fmt.Sprintf("AHP matrix for urgency %q is inconsistent (CR=%.3f)", ann.Urgency, weights.CR))
	}

	alternatives := make([]topsis.Alternative, len(eligible))
	for i, c := range eligible {
		totalDistance := geomath.Haversine(c.Position, ann.Pickup) + geomath.Haversine(c.Position, ann.Dropoff)
		alternatives[i] = topsis.Alternative{
			ID: c.ID,
			Scores: []float64{
				totalDistance,
				c.Reputation,
				c.MaxCapacityKg,
				topsis.VehicleTypeScore(c.VehicleType),
			},
		}
	}

	polarities := []topsis.Polarity{topsis.Cost, topsis.Benefit, topsis.Benefit, topsis.Benefit}
	ranked, err := topsis.Rank(alternatives, weights.Weights, polarities)
	if err != nil {
		return Result{}, fmt.Errorf("courier: topsis: %w", err)
	}

	result.Eligible = make([]RankedCandidate, len(ranked))
	for i, r := range ranked {
		result.Eligible[i] = RankedCandidate{ID: r.ID, Closeness: r.Closeness, Rank: r.Rank}
		metrics.TOPSISClosenessCoefficient.Observe(r.Closeness)
	}

	return result, nil
}

// partition buckets candidates into a coarse spatial hash grid (cell size
// from geomath.CellSize for the tolerance) and applies the exact ellipse
// predicate first to the candidates the grid returns within the focal
// distance plus twice the tolerance of the pickup/drop-off midpoint, then to
// every candidate that query did not return. Each candidate is classified
// exactly once, so eligibility depends only on the predicate.
func partition(ann Announcement, candidates []Candidate, tol float64) ([]Candidate, []Rejected) {
	cellSizeKm := geomath.CellSize(tol) * 111.0
	grid := cache.NewSpatialHashGrid(cellSizeKm)
	for _, c := range candidates {
		grid.Insert(c.ID, c.Position.Lat, c.Position.Lon, time.Time{}, c)
	}

	var eligible []Candidate
	var rejected []Rejected

	seen := make(map[string]bool, len(candidates))
	mid := midpoint(ann.Pickup, ann.Dropoff)
	radiusKm := geomath.Haversine(ann.Pickup, ann.Dropoff) + 2*tol
	nearby := grid.QueryNearby(mid.Lat, mid.Lon, radiusKm)
	for _, entry := range nearby {
		c, ok := entry.Data.(Candidate)
		if !ok {
			continue
		}
		seen[c.ID] = true
		classify(ann, c, tol, &eligible, &rejected)
	}
	// The grid query is a radius-bounded accelerator; any candidate it
	// missed (e.g. due to floating antimeridian wraparound) still gets the
	// exact predicate applied directly so eligibility is never a function
	// of the bucketing, only of the predicate itself.
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		classify(ann, c, tol, &eligible, &rejected)
	}

	sort.SliceStable(rejected, func(i, j int) bool { return rejected[i].ID < rejected[j].ID })
	return eligible, rejected
}

func classify(ann Announcement, c Candidate, tol float64, eligible *[]Candidate, rejected *[]Rejected) {
	if geomath.EllipsePredicate(c.Position, ann.Pickup, ann.Dropoff, tol) {
		*eligible = append(*eligible, c)
		return
	}
	total := geomath.Haversine(c.Position, ann.Pickup) + geomath.Haversine(c.Position, ann.Dropoff)
	*rejected = append(*rejected, Rejected{
		ID:            c.ID,
		Reason:        "outside ellipse for urgency tolerance",
		MeasuredTotal: total,
	})
}

func midpoint(a, b geomath.Point) geomath.Point {
	return geomath.Point{Lat: (a.Lat + b.Lat) / 2, Lon: (a.Lon + b.Lon) / 2}
}
