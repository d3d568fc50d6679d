package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/recoship/ranking/internal/orchestrator"
)

type taskHandlers struct {
	orch *orchestrator.Orchestrator
}

// handleGetTask serves GET /api/v1/tasks/{id}: the task's lifecycle status.
func (h *taskHandlers) handleGetTask(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	taskID := chi.URLParam(r, "id")

	status, ok := h.orch.TaskStatus(taskID)
	if !ok {
		rw.NotFound("no such task")
		return
	}
	rw.Success(map[string]string{"task_id": taskID, "status": string(status)})
}

// handleGetTaskResult serves GET /api/v1/tasks/{id}/result: the task's
// completed payload, decoded as JSON when possible.
func (h *taskHandlers) handleGetTaskResult(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	taskID := chi.URLParam(r, "id")

	status, ok := h.orch.TaskStatus(taskID)
	if !ok {
		rw.NotFound("no such task")
		return
	}
	if status != "succeeded" && status != "failed" {
		rw.Error(http.StatusAccepted, "TASK_NOT_READY", "task has not finished: status="+string(status))
		return
	}

	payload, taskErr, ok := h.orch.TaskResult(taskID)
	if !ok {
		rw.NotFound("no such task")
		return
	}
	if taskErr != nil {
		rw.ErrorWithDetails(http.StatusUnprocessableEntity, "TASK_FAILED", taskErr.Error(), nil)
		return
	}

	var decoded interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		rw.Success(map[string]string{"raw": string(payload)})
		return
	}
	rw.Success(decoded)
}

// handleCancelTask serves DELETE /api/v1/tasks/{id}.
func (h *taskHandlers) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	taskID := chi.URLParam(r, "id")

	if !h.orch.CancelTask(taskID) {
		rw.Conflict("task cannot be cancelled: already running, finished, or unknown")
		return
	}
	rw.NoContent()
}
