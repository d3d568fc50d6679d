package ahp

import (
	"math"
	"testing"
)

func reciprocalMatrix(n int, upper func(i, j int) float64) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := upper(i, j)
			m[i][j] = v
			m[j][i] = 1 / v
		}
	}
	return m
}

func TestWeigh_WeightsSumToOne(t *testing.T) {
	for _, u := range []Urgency{UrgencyStandard, UrgencyExpress, UrgencySameday} {
		m, err := PresetMatrix(u)
		if err != nil {
			t.Fatalf("PresetMatrix(%v): %v", u, err)
		}
		res, err := Weigh(m)
		if err != nil {
			t.Fatalf("Weigh(%v): %v", u, err)
		}
		var sum float64
		for _, w := range res.Weights {
			sum += w
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("urgency %v: weights sum to %v, want 1", u, sum)
		}
		if res.CR < 0 {
			t.Errorf("urgency %v: CR = %v, want >= 0", u, res.CR)
		}
	}
}

func TestWeigh_ProximityMonotonicAcrossUrgency(t *testing.T) {
	std, _ := PresetMatrix(UrgencyStandard)
	exp, _ := PresetMatrix(UrgencyExpress)
	same, _ := PresetMatrix(UrgencySameday)

	rStd, _ := Weigh(std)
	rExp, _ := Weigh(exp)
	rSame, _ := Weigh(same)

	if !(rStd.Weights[CriterionProximity] < rExp.Weights[CriterionProximity] &&
		rExp.Weights[CriterionProximity] < rSame.Weights[CriterionProximity]) {
		t.Errorf("expected proximity weight to increase standard < express < sameday, got %v, %v, %v",
			rStd.Weights[CriterionProximity], rExp.Weights[CriterionProximity], rSame.Weights[CriterionProximity])
	}
}

func TestWeigh_IdentityMatrixIsPerfectlyConsistent(t *testing.T) {
	m := reciprocalMatrix(4, func(i, j int) float64 { return 1 })
	res, err := Weigh(m)
	if err != nil {
		t.Fatalf("Weigh: %v", err)
	}
	if res.CR > 1e-9 {
		t.Errorf("identity matrix CR = %v, want ~0", res.CR)
	}
	if !res.Consistent {
		t.Errorf("identity matrix should be consistent")
	}
	for _, w := range res.Weights {
		if math.Abs(w-0.25) > 1e-9 {
			t.Errorf("identity matrix weight = %v, want 0.25", w)
		}
	}
}

func TestValidate_RejectsNonSquare(t *testing.T) {
	m := Matrix{{1, 2}, {0.5, 1, 3}}
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for non-square matrix")
	}
}

func TestValidate_RejectsNonReciprocal(t *testing.T) {
	m := Matrix{{1, 2}, {2, 1}}
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for non-reciprocal matrix")
	}
}

func TestValidate_RejectsOrderOutOfRange(t *testing.T) {
	m := make(Matrix, 11)
	for i := range m {
		m[i] = make([]float64, 11)
		m[i][i] = 1
	}
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for order 11")
	}
}

func TestPresetMatrix_UnknownUrgency(t *testing.T) {
	_, err := PresetMatrix(Urgency("overnight"))
	if err == nil {
		t.Fatal("expected error for unknown urgency")
	}
}

func TestWeigh_TwoByTwoAlwaysConsistent(t *testing.T) {
	m := reciprocalMatrix(2, func(i, j int) float64 { return 7 })
	res, err := Weigh(m)
	if err != nil {
		t.Fatalf("Weigh: %v", err)
	}
	if !res.Consistent || res.CR != 0 {
		t.Errorf("2x2 matrix should always be reported consistent with CR=0, got consistent=%v cr=%v", res.Consistent, res.CR)
	}
}
