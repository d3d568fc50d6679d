package reqctx

import (
	"context"
	"testing"

	"github.com/recoship/ranking/internal/logging"
)

func TestNewAndFrom_RoundTrip(t *testing.T) {
	rc := RequestContext{
		CorrelationID: "corr-1",
		RequestID:     "req-1",
		UserID:        "user-1",
		SessionID:     "sess-1",
	}

	ctx := New(context.Background(), rc)
	got := From(ctx)

	if got != rc {
		t.Fatalf("From(New(rc)) = %+v, want %+v", got, rc)
	}
}

func TestNewIncoming_GeneratesCorrelationID(t *testing.T) {
	ctx := NewIncoming(context.Background(), "", "user-2", "sess-2")

	if logging.CorrelationIDFromContext(ctx) == "" {
		t.Fatalf("expected a generated correlation id")
	}
	if logging.RequestIDFromContext(ctx) == "" {
		t.Fatalf("expected a generated request id")
	}
	if got := logging.UserIDFromContext(ctx); got != "user-2" {
		t.Errorf("UserID = %q, want user-2", got)
	}
}

func TestNewIncoming_PreservesSuppliedCorrelationID(t *testing.T) {
	ctx := NewIncoming(context.Background(), "existing-corr", "", "")
	if got := logging.CorrelationIDFromContext(ctx); got != "existing-corr" {
		t.Errorf("CorrelationID = %q, want existing-corr", got)
	}
}

func TestDetach_SurvivesParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	rc := From(New(parent, RequestContext{CorrelationID: "c1"}))
	cancel()

	detached := Detach(rc)
	select {
	case <-detached.Done():
		t.Fatalf("detached context should not be canceled")
	default:
	}
	if got := logging.CorrelationIDFromContext(detached); got != "c1" {
		t.Errorf("CorrelationID = %q, want c1", got)
	}
}
