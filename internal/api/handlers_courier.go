package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/recoship/ranking/internal/ahp"
	"github.com/recoship/ranking/internal/courier"
	"github.com/recoship/ranking/internal/geomath"
	"github.com/recoship/ranking/internal/orchestrator"
	"github.com/recoship/ranking/internal/validation"
)

type courierHandlers struct {
	orch *orchestrator.Orchestrator
}

type pointBody struct {
	Lat float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon float64 `json:"lon" validate:"required,min=-180,max=180"`
}

type candidateBody struct {
	ID             string  `json:"id" validate:"required"`
	CommercialName string  `json:"commercial_name"`
	Position       pointBody `json:"position" validate:"required"`
	Reputation     float64 `json:"reputation" validate:"min=0,max=10"`
	DeliveryCount  int     `json:"delivery_count"`
	SuccessRate    float64 `json:"success_rate" validate:"min=0,max=1"`
	VehicleType    string  `json:"vehicle_type" validate:"required"`
	MaxCapacityKg  float64 `json:"max_capacity_kg" validate:"min=0"`
}

// rankCouriersRequestBody is the wire shape for POST /api/v1/livreurs/rank.
type rankCouriersRequestBody struct {
	AnnouncementID string          `json:"announcement_id" validate:"required"`
	Pickup         pointBody       `json:"pickup" validate:"required"`
	Dropoff        pointBody       `json:"dropoff" validate:"required"`
	Urgency        string          `json:"urgency" validate:"required,oneof=standard express sameday"`
	ToleranceKM    float64         `json:"tolerance_km" validate:"omitempty,min=0"`
	Candidates     []candidateBody `json:"candidates" validate:"required,min=1,dive"`
}

func (h *courierHandlers) handleRankCouriers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body rankCouriersRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("malformed JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ann := courier.Announcement{
		ID:      body.AnnouncementID,
		Pickup:  geomath.Point{Lat: body.Pickup.Lat, Lon: body.Pickup.Lon},
		Dropoff: geomath.Point{Lat: body.Dropoff.Lat, Lon: body.Dropoff.Lon},
		Urgency: ahp.Urgency(body.Urgency),
	}
	candidates := make([]courier.Candidate, len(body.Candidates))
	for i, c := range body.Candidates {
		candidates[i] = courier.Candidate{
			ID:             c.ID,
			CommercialName: c.CommercialName,
			Position:       geomath.Point{Lat: c.Position.Lat, Lon: c.Position.Lon},
			Reputation:     c.Reputation,
			DeliveryCount:  c.DeliveryCount,
			SuccessRate:    c.SuccessRate,
			VehicleType:    c.VehicleType,
			MaxCapacityKg:  c.MaxCapacityKg,
		}
	}

	result, err := h.orch.RankCouriers(ann, candidates, body.ToleranceKM)
	if err != nil {
		rw.BadRequestWithDetails("courier ranking failed: "+err.Error(), nil)
		return
	}
	rw.Success(result)
}

func (h *courierHandlers) handleCourierHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]string{"status": "ok"})
}
