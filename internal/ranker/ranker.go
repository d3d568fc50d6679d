// Package ranker fuses similarity, availability, and reputation signals
// into a single final score per candidate and produces a stably-ordered
// ranking.
package ranker

import (
	"sort"

	"github.com/recoship/ranking/internal/repository"
	"github.com/recoship/ranking/internal/vectorindex"
)

// Weights are the fusion coefficients; they are sum-normalized to 1
// before use so callers may pass arbitrary positive ratios.
type Weights struct {
	Similarity   float64
	Availability float64
	Reputation   float64
}

// DefaultWeights matches the documented defaults (0.60/0.25/0.15).
func DefaultWeights() Weights {
	return Weights{Similarity: 0.60, Availability: 0.25, Reputation: 0.15}
}

func (w Weights) normalized() Weights {
	sum := w.Similarity + w.Availability + w.Reputation
	if sum == 0 {
		return DefaultWeights()
	}
	return Weights{
		Similarity:   w.Similarity / sum,
		Availability: w.Availability / sum,
		Reputation:   w.Reputation / sum,
	}
}

// RankedProduct is one scored, ordered candidate.
type RankedProduct struct {
	RealProductID string
	ProductType   string
	Similarity    float64
	Availability  bool
	Reputation    float64
	FinalScore    float64
	Rank          int
	Metadata      map[string]string
}

// Options configures optional post-processing hooks, both off by default.
type Options struct {
	// AvailabilityBoost is an additive bonus applied to available
	// candidates' final score, capped at 1.0. Zero disables it.
	AvailabilityBoost float64
	// MinimumScore filters out candidates below this final score. Zero
	// disables filtering.
	MinimumScore float64
}

// Rank fuses each similar product with its repository details into a
// final score, sorts descending (ties broken by similarity, then by id),
// and assigns a 1-based rank.
func Rank(similar []vectorindex.SimilarProduct, details map[string]*repository.ProductRecord, productType string, weights Weights, opts Options) []RankedProduct {
	w := weights.normalized()

	out := make([]RankedProduct, 0, len(similar))
	for _, s := range similar {
		rec, ok := details[s.RealProductID]
		if !ok {
			continue
		}
		reputation := clamp01(rec.AverageRating / 5)
		availabilityScore := 0.0
		if rec.Available {
			availabilityScore = 1.0
		}
		final := w.Similarity*s.Similarity + w.Availability*availabilityScore + w.Reputation*reputation

		if opts.AvailabilityBoost > 0 && rec.Available {
			final = clamp01(final + opts.AvailabilityBoost)
		}
		if opts.MinimumScore > 0 && final < opts.MinimumScore {
			continue
		}

		out = append(out, RankedProduct{
			RealProductID: s.RealProductID,
			ProductType:   productType,
			Similarity:    s.Similarity,
			Availability:  rec.Available,
			Reputation:    reputation,
			FinalScore:    final,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FinalScore != out[j].FinalScore {
			return out[i].FinalScore > out[j].FinalScore
		}
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].RealProductID < out[j].RealProductID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
