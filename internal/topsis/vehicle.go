package topsis

// VehicleTypeScores maps a courier's vehicle type to the fixed benefit
// score used as the fourth TOPSIS criterion column.
var VehicleTypeScores = map[string]float64{
	"bike":  0.1,
	"moto":  0.3,
	"car":   0.8,
	"truck": 1.0,
}

// VehicleTypeScore returns the fixed score for vehicleType, or 0 if the
// vehicle type is not recognized.
func VehicleTypeScore(vehicleType string) float64 {
	return VehicleTypeScores[vehicleType]
}
