package ahp

// Criterion indexes the four courier-ranking criteria in the fixed order
// used throughout Core B: proximity, reputation, capacity, vehicle type.
type Criterion int

const (
	CriterionProximity Criterion = iota
	CriterionReputation
	CriterionCapacity
	CriterionVehicle
	criterionCount
)

// Urgency is the delivery urgency class that parameterizes the preset AHP
// matrix and the geofence tolerance.
type Urgency string

const (
	UrgencyStandard Urgency = "standard"
	UrgencyExpress  Urgency = "express"
	UrgencySameday  Urgency = "sameday"
)

// presetUpperTriangle holds the six Saaty-scale integers for an urgency
// class, in the fixed order: proximity-vs-reputation, proximity-vs-capacity,
// proximity-vs-vehicle, reputation-vs-capacity, reputation-vs-vehicle,
// capacity-vs-vehicle.
type presetUpperTriangle struct {
	proximityReputation int
	proximityCapacity   int
	proximityVehicle    int
	reputationCapacity  int
	reputationVehicle   int
	capacityVehicle     int
}

var presets = map[Urgency]presetUpperTriangle{
	UrgencyStandard: {
		proximityReputation: 2,
		proximityCapacity:   3,
		proximityVehicle:    5,
		reputationCapacity:  2,
		reputationVehicle:   3,
		capacityVehicle:     2,
	},
	UrgencyExpress: {
		proximityReputation: 4,
		proximityCapacity:   5,
		proximityVehicle:    6,
		reputationCapacity:  2,
		reputationVehicle:   3,
		capacityVehicle:     2,
	},
	UrgencySameday: {
		proximityReputation: 6,
		proximityCapacity:   7,
		proximityVehicle:    7,
		reputationCapacity:  2,
		reputationVehicle:   2,
		capacityVehicle:     1,
	},
}

// PresetMatrix builds the 4x4 reciprocal pairwise comparison matrix for the
// given urgency class, in criterion order [proximity, reputation, capacity,
// vehicle].
func PresetMatrix(u Urgency) (Matrix, error) {
	t, ok := presets[u]
	if !ok {
		return nil, &UnknownUrgencyError{Urgency: u}
	}

	m := make(Matrix, criterionCount)
	for i := range m {
		m[i] = make([]float64, criterionCount)
		m[i][i] = 1
	}

	set := func(a, b Criterion, v int) {
		m[a][b] = float64(v)
		m[b][a] = 1 / float64(v)
	}

	set(CriterionProximity, CriterionReputation, t.proximityReputation)
	set(CriterionProximity, CriterionCapacity, t.proximityCapacity)
	set(CriterionProximity, CriterionVehicle, t.proximityVehicle)
	set(CriterionReputation, CriterionCapacity, t.reputationCapacity)
	set(CriterionReputation, CriterionVehicle, t.reputationVehicle)
	set(CriterionCapacity, CriterionVehicle, t.capacityVehicle)

	return m, nil
}

// UnknownUrgencyError reports a request for a preset matrix with no known
// urgency class.
type UnknownUrgencyError struct {
	Urgency Urgency
}

func (e *UnknownUrgencyError) Error() string {
	return "ahp: unknown urgency class " + string(e.Urgency)
}
