package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/recoship/ranking/internal/orchestrator"
	"github.com/recoship/ranking/internal/validation"
)

const maxSentimentBatch = 100

type sentimentHandlers struct {
	orch *orchestrator.Orchestrator
}

type sentimentRequestBody struct {
	Text string `json:"text" validate:"required"`
}

func (h *sentimentHandlers) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body sentimentRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("malformed JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	result := h.orch.Sentiment.Analyze(r.Context(), body.Text)
	rw.Success(result)
}

func (h *sentimentHandlers) handleAnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body sentimentRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("malformed JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	taskID, err := h.orch.SubmitSentiment(r.Context(), body.Text)
	if err != nil {
		rw.ServiceUnavailable("failed to submit sentiment task: " + err.Error())
		return
	}
	rw.Created(map[string]string{"task_id": taskID})
}

type sentimentBatchRequestBody struct {
	Texts []string `json:"texts" validate:"required,min=1,max=100,dive,required"`
}

func (h *sentimentHandlers) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body sentimentBatchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("malformed JSON body")
		return
	}
	if len(body.Texts) > maxSentimentBatch {
		rw.BadRequest("batch exceeds maximum size of 100 texts")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	results := h.orch.BatchSentiment(r.Context(), body.Texts)
	rw.Success(map[string]interface{}{"results": results, "count": len(results)})
}
