// Package ahp implements the Analytic Hierarchy Process: deriving a
// criterion weight vector and a consistency ratio from a pairwise
// comparison matrix.
package ahp

import (
	"fmt"
	"math"
)

// riTable is the random consistency index lookup by matrix order n,
// 1-indexed at n=1 (ri[0] corresponds to n=1).
var riTable = []float64{0, 0, 0.58, 0.90, 1.12, 1.24, 1.32, 1.41, 1.45, 1.49}

// Result is the outcome of weighing a pairwise comparison matrix.
type Result struct {
	Weights    []float64
	LambdaMax  float64
	CI         float64
	CR         float64
	Consistent bool
}

// Matrix is a square pairwise comparison matrix. M[i][i] must be 1 and
// M[j][i] must equal 1/M[i][j].
type Matrix [][]float64

// Validate checks that m is a well-formed reciprocal pairwise comparison
// matrix: square, order in [1,10], unit diagonal, reciprocal off-diagonal
// entries, and strictly positive entries everywhere.
func (m Matrix) Validate() error {
	n := len(m)
	if n < 1 || n > 10 {
		return fmt.Errorf("ahp: matrix order %d out of range [1,10]", n)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("ahp: matrix is not square, row %d has %d columns, want %d", i, len(row), n)
		}
	}
	const eps = 1e-9
	for i := 0; i < n; i++ {
		if m[i][i] <= 0 {
			return fmt.Errorf("ahp: diagonal entry [%d][%d] = %v, must be positive", i, i, m[i][i])
		}
		if math.Abs(m[i][i]-1) > eps {
			return fmt.Errorf("ahp: diagonal entry [%d][%d] = %v, must equal 1", i, i, m[i][i])
		}
		for j := 0; j < n; j++ {
			if m[i][j] <= 0 {
				return fmt.Errorf("ahp: entry [%d][%d] = %v, must be positive", i, j, m[i][j])
			}
			if math.Abs(m[i][j]*m[j][i]-1) > eps {
				return fmt.Errorf("ahp: entries [%d][%d]=%v and [%d][%d]=%v are not reciprocal", i, j, m[i][j], j, i, m[j][i])
			}
		}
	}
	return nil
}

// Weigh runs the AHP algorithm on m: column-sum normalization, row-mean
// weight extraction, and a consistency ratio against the Saaty random
// index table. An inconsistent result (CR >= 0.1) is returned with
// Consistent = false rather than as an error; only a malformed matrix
// produces an error.
func Weigh(m Matrix) (Result, error) {
	if err := m.Validate(); err != nil {
		return Result{}, err
	}
	n := len(m)

	colSums := make([]float64, n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			colSums[j] += m[i][j]
		}
	}

	normalized := make(Matrix, n)
	for i := 0; i < n; i++ {
		normalized[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			normalized[i][j] = m[i][j] / colSums[j]
		}
	}

	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += normalized[i][j]
		}
		weights[i] = sum / float64(n)
	}

	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}
	for i := range weights {
		weights[i] /= weightSum
	}

	mw := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			mw[i] += m[i][j] * weights[j]
		}
	}

	var lambdaSum float64
	for i := 0; i < n; i++ {
		lambdaSum += mw[i] / weights[i]
	}
	lambdaMax := lambdaSum / float64(n)

	if n <= 2 {
		// A 1x1 or 2x2 reciprocal matrix is always perfectly consistent;
		// CI/CR are undefined (RI = 0) so we report them as zero.
		return Result{
			Weights:    weights,
			LambdaMax:  lambdaMax,
			CI:         0,
			CR:         0,
			Consistent: true,
		}, nil
	}

	ci := (lambdaMax - float64(n)) / float64(n-1)
	ri := riTable[n-1]
	cr := ci / ri

	return Result{
		Weights:    weights,
		LambdaMax:  lambdaMax,
		CI:         ci,
		CR:         cr,
		Consistent: cr < 0.1,
	}, nil
}
