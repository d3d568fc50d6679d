// Package topsis implements the Technique for Order of Preference by
// Similarity to Ideal Solution, ranking alternatives across weighted,
// mixed-polarity criteria.
package topsis

import (
	"fmt"
	"math"
	"sort"
)

// Polarity marks whether higher values are better (benefit) or worse (cost)
// for a criterion.
type Polarity int

const (
	Benefit Polarity = iota
	Cost
)

// Alternative is a single ranking candidate: an opaque ID plus its raw
// score on each criterion, in the same column order as the Weights and
// Polarities passed to Rank.
type Alternative struct {
	ID     string
	Scores []float64
}

// Ranked is an Alternative augmented with its computed TOPSIS outputs.
type Ranked struct {
	ID        string
	Closeness float64
	DistPlus  float64
	DistMinus float64
	Rank      int
}

// Rank scores and orders alternatives by closeness to the ideal solution.
// weights must sum to 1 (not enforced here; callers derive it from AHP) and
// polarities must have one entry per criterion column.
func Rank(alternatives []Alternative, weights []float64, polarities []Polarity) ([]Ranked, error) {
	m := len(alternatives)
	if m == 0 {
		return nil, fmt.Errorf("topsis: no alternatives")
	}
	n := len(weights)
	if len(polarities) != n {
		return nil, fmt.Errorf("topsis: %d weights but %d polarities", n, len(polarities))
	}
	for i, alt := range alternatives {
		if len(alt.Scores) != n {
			return nil, fmt.Errorf("topsis: alternative %q has %d scores, want %d", alt.ID, len(alt.Scores), n)
		}
		_ = i
	}

	// Column-vector normalization.
	colNorm := make([]float64, n)
	for j := 0; j < n; j++ {
		var sumSq float64
		for i := 0; i < m; i++ {
			sumSq += alternatives[i].Scores[j] * alternatives[i].Scores[j]
		}
		norm := math.Sqrt(sumSq)
		if norm == 0 {
			norm = 1
		}
		colNorm[j] = norm
	}

	weighted := make([][]float64, m)
	for i := 0; i < m; i++ {
		weighted[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			v := alternatives[i].Scores[j] / colNorm[j]
			weighted[i][j] = weights[j] * v
		}
	}

	idealPos := make([]float64, n)
	idealNeg := make([]float64, n)
	for j := 0; j < n; j++ {
		idealPos[j] = weighted[0][j]
		idealNeg[j] = weighted[0][j]
		for i := 1; i < m; i++ {
			v := weighted[i][j]
			if v > idealPos[j] {
				idealPos[j] = v
			}
			if v < idealNeg[j] {
				idealNeg[j] = v
			}
		}
		if polarities[j] == Cost {
			idealPos[j], idealNeg[j] = idealNeg[j], idealPos[j]
		}
	}

	const epsilon = 1e-10
	results := make([]Ranked, m)
	for i := 0; i < m; i++ {
		var dPlus, dMinus float64
		for j := 0; j < n; j++ {
			dPlus += sq(weighted[i][j] - idealPos[j])
			dMinus += sq(weighted[i][j] - idealNeg[j])
		}
		dPlus = math.Sqrt(dPlus)
		dMinus = math.Sqrt(dMinus)

		denom := dPlus + dMinus
		var closeness float64
		if denom < epsilon {
			closeness = 0
		} else {
			closeness = dMinus / denom
		}

		results[i] = Ranked{
			ID:        alternatives[i].ID,
			Closeness: closeness,
			DistPlus:  dPlus,
			DistMinus: dMinus,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Closeness != results[j].Closeness {
			return results[i].Closeness > results[j].Closeness
		}
		return results[i].ID < results[j].ID
	})
	for i := range results {
		results[i].Rank = i + 1
	}

	return results, nil
}

func sq(v float64) float64 { return v * v }
