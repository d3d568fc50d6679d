// Package reqctx propagates request-scoped identity (correlation id, user id,
// session id) across both synchronous HTTP handling and asynchronous task
// runner execution, using context.Context as the single carrier so the same
// values survive a handoff from an HTTP handler to a background worker.
package reqctx

import (
	"context"

	"github.com/recoship/ranking/internal/logging"
)

// RequestContext is the propagated identity for a single logical request,
// whether it is being served synchronously or dispatched to a task queue.
type RequestContext struct {
	CorrelationID string
	RequestID     string
	UserID        string
	SessionID     string
}

// New builds a context.Context carrying rc's fields, laid on top of parent.
func New(parent context.Context, rc RequestContext) context.Context {
	ctx := parent
	if rc.CorrelationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, rc.CorrelationID)
	}
	if rc.RequestID != "" {
		ctx = logging.ContextWithRequestID(ctx, rc.RequestID)
	}
	if rc.UserID != "" {
		ctx = logging.ContextWithUserID(ctx, rc.UserID)
	}
	if rc.SessionID != "" {
		ctx = logging.ContextWithSessionID(ctx, rc.SessionID)
	}
	return ctx
}

// NewIncoming builds a context for an inbound HTTP request, generating a
// correlation id and request id if the caller didn't supply one (e.g. via an
// X-Correlation-ID header).
func NewIncoming(parent context.Context, correlationID, userID, sessionID string) context.Context {
	if correlationID == "" {
		correlationID = logging.GenerateCorrelationID()
	}
	return New(parent, RequestContext{
		CorrelationID: correlationID,
		RequestID:     logging.GenerateRequestID(),
		UserID:        userID,
		SessionID:     sessionID,
	})
}

// From extracts the propagated identity fields from ctx, e.g. to serialize
// them alongside a task payload before it crosses into the task runner.
func From(ctx context.Context) RequestContext {
	return RequestContext{
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		RequestID:     logging.RequestIDFromContext(ctx),
		UserID:        logging.UserIDFromContext(ctx),
		SessionID:     logging.SessionIDFromContext(ctx),
	}
}

// Detach returns a new background context carrying rc's fields but
// independent of any deadline or cancellation on the original request
// context. Use this when handing a request off to the task runner: the
// async work must keep running after the HTTP handler returns.
func Detach(rc RequestContext) context.Context {
	return New(context.Background(), rc)
}
