package api

import (
	"net/http"
	"strconv"

	"github.com/recoship/ranking/internal/orchestrator"
)

type productHandlers struct {
	orch *orchestrator.Orchestrator
}

const defaultSuggestLimit = 10

// handleSuggest serves GET /api/v1/products/suggest?field=brand&q=ren&limit=5:
// prefix autocomplete over brand or model values seen by the repository.
func (h *productHandlers) handleSuggest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	field := r.URL.Query().Get("field")
	if field != "brand" && field != "model" {
		rw.BadRequest("field must be \"brand\" or \"model\"")
		return
	}
	prefix := r.URL.Query().Get("q")
	if prefix == "" {
		rw.BadRequest("missing q")
		return
	}
	limit := defaultSuggestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	suggestions := h.orch.Recommend.Repository.Suggest(field, prefix, limit)
	rw.Success(map[string]interface{}{"field": field, "suggestions": suggestions})
}
