package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/recoship/ranking/internal/orchestrator"
	"github.com/recoship/ranking/internal/recommend"
	"github.com/recoship/ranking/internal/validation"
)

// recommendRequestBody is the wire shape for POST /api/v1/recommendations/.
type recommendRequestBody struct {
	ClientID           string `json:"client_id" validate:"required"`
	ReferenceProductID string `json:"reference_product_id" validate:"required"`
	ProductType        string `json:"product_type" validate:"required"`
	ReviewText         string `json:"review_text"`
	TopK               int    `json:"top_k" validate:"omitempty,min=1,max=100"`
}

// recommendHandlers groups the recommendation endpoints sharing an
// orchestrator dependency.
type recommendHandlers struct {
	orch *orchestrator.Orchestrator
}

// handleRecommend serves POST /api/v1/recommendations/: runs Core A's full
// two-stage sentiment-then-recommend flow synchronously.
func (h *recommendHandlers) handleRecommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body recommendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("malformed JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	sentimentResult, recResult, err := h.orch.SyncSentimentThenRecommend(r.Context(), orchestrator.SentimentRecommendRequest{
		ClientID:           body.ClientID,
		ReferenceProductID: body.ReferenceProductID,
		ProductType:        body.ProductType,
		ReviewText:         body.ReviewText,
		TopK:               body.TopK,
	})
	if err != nil {
		rw.ServiceUnavailable("recommendation pipeline failed: " + err.Error())
		return
	}

	rw.Success(map[string]interface{}{
		"sentiment":      sentimentResult,
		"recommendation": recResult,
	})
}

// directRecommendRequestBody is the wire shape for POST
// /api/v1/recommendations/direct, which skips the sentiment stage entirely.
type directRecommendRequestBody struct {
	ClientID           string  `json:"client_id" validate:"required"`
	ReferenceProductID string  `json:"reference_product_id" validate:"required"`
	ProductType        string  `json:"product_type" validate:"required"`
	SentimentScore     float64 `json:"sentiment_score" validate:"min=-1,max=1"`
	TopK               int     `json:"top_k" validate:"omitempty,min=1,max=100"`
}

func (h *recommendHandlers) handleRecommendDirect(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body directRecommendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("malformed JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	result, err := h.orch.SyncRecommend(r.Context(), recommend.Request{
		ClientID:           body.ClientID,
		ReferenceProductID: body.ReferenceProductID,
		ProductType:        body.ProductType,
		SentimentScore:     body.SentimentScore,
		TopK:               body.TopK,
	})
	if err != nil {
		rw.ServiceUnavailable("recommendation pipeline failed: " + err.Error())
		return
	}
	rw.Success(result)
}

// handleRecommendAsync serves POST /api/v1/recommendations/async: submits the
// same direct-recommendation request to the task runner and returns a
// pollable task id.
func (h *recommendHandlers) handleRecommendAsync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body directRecommendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("malformed JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	taskID, err := h.orch.SubmitRecommend(r.Context(), recommend.Request{
		ClientID:           body.ClientID,
		ReferenceProductID: body.ReferenceProductID,
		ProductType:        body.ProductType,
		SentimentScore:     body.SentimentScore,
		TopK:               body.TopK,
	})
	if err != nil {
		rw.ServiceUnavailable("failed to submit recommendation task: " + err.Error())
		return
	}
	rw.Created(map[string]string{"task_id": taskID})
}
