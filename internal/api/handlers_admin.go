package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/recoship/ranking/internal/auth"
	"github.com/recoship/ranking/internal/orchestrator"
	"github.com/recoship/ranking/internal/validation"
	"github.com/recoship/ranking/internal/vectorindex"
)

type adminHandlers struct {
	orch    *orchestrator.Orchestrator
	jwtMgr  *auth.JWTManager
}

type vectorizeRequestBody struct {
	ProductType string   `json:"product_type" validate:"required"`
	ProductIDs  []string `json:"product_ids" validate:"required,min=1,dive,required"`
}

// handleVectorize serves POST /api/v1/admin/vectorize: re-encodes a batch of
// products and upserts their vectors into the collection for product_type.
func (h *adminHandlers) handleVectorize(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body vectorizeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("malformed JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	rec := h.orch.Recommend
	ctx := r.Context()

	records, err := rec.Repository.GetBatch(ctx, body.ProductIDs)
	if err != nil {
		rw.RepositoryError(err)
		return
	}

	vectorized := make([]string, 0, len(body.ProductIDs))
	failed := make(map[string]string)
	for _, id := range body.ProductIDs {
		product, ok := records[id]
		if !ok {
			failed[id] = "not found"
			continue
		}
		vec, err := rec.Embedder.Encode(ctx, product.Description())
		if err != nil {
			failed[id] = err.Error()
			continue
		}
		if _, err := rec.Index.Upsert(ctx, body.ProductType, vectorindex.Point{
			RealProductID: id,
			Vector:        vec,
			Available:     product.Available,
		}); err != nil {
			failed[id] = err.Error()
			continue
		}
		vectorized = append(vectorized, id)
	}

	rw.Success(map[string]interface{}{
		"vectorized": vectorized,
		"failed":     failed,
	})
}

type cacheInvalidateRequestBody struct {
	ProductType string `json:"product_type" validate:"required"`
	ProductID   string `json:"product_id" validate:"required"`
}

// handleCacheInvalidate serves POST /api/v1/admin/cache/invalidate.
func (h *adminHandlers) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body cacheInvalidateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("malformed JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	count := h.orch.Invalidate(body.ProductType, body.ProductID)
	rw.Success(map[string]interface{}{"invalidated": count})
}

// handleRecreateCollection serves POST /api/v1/admin/collections/{type}: drop
// and rebuild the named vector collection from scratch.
func (h *adminHandlers) handleRecreateCollection(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	productType := chi.URLParam(r, "type")
	if productType == "" {
		rw.BadRequest("missing collection type")
		return
	}

	if err := h.orch.Recommend.Index.EnsureCollection(r.Context(), productType, true); err != nil {
		rw.InternalError("failed to recreate collection: " + err.Error())
		return
	}
	rw.NoContent()
}

type tokenRequestBody struct {
	Username string `json:"username" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
}

// handleIssueToken serves POST /api/v1/admin/token: mints a JWT for local
// development and test harnesses. It is itself an admin-only route.
func (h *adminHandlers) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body tokenRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("malformed JSON body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	token, err := h.jwtMgr.GenerateToken(body.Username, body.Role)
	if err != nil {
		rw.InternalError("failed to issue token: " + err.Error())
		return
	}
	rw.Created(map[string]string{"token": token})
}
