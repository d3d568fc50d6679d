package taskrunner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recoship/ranking/internal/config"
)

func testConfig() config.TaskRunnerConfig {
	return config.TaskRunnerConfig{
		Workers:           2,
		QueueBuffer:       16,
		RetryMaxAttempts:  2,
		RetryBaseDelay:    10 * time.Millisecond,
		RetryMaxDelay:     50 * time.Millisecond,
		HealthCheckPeriod: 50 * time.Millisecond,
	}
}

func startRunner(t *testing.T, r *Runner) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Serve(ctx)
	}()
	// Give the router a moment to finish subscribing before any Submit.
	time.Sleep(20 * time.Millisecond)
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestSubmitAndResult_SucceedsAndStoresPayload(t *testing.T) {
	r := New(testConfig())
	done := make(chan struct{})
	r.RegisterHandler(QueueDefault, func(ctx context.Context, payload []byte) ([]byte, error) {
		defer close(done)
		return append([]byte("echo:"), payload...), nil
	})
	startRunner(t, r)

	taskID, err := r.Submit(context.Background(), QueueDefault, []byte("hello"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler never ran")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if status, _ := r.Status(taskID); status == StatusSucceeded {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	payload, taskErr, ok := r.Result(taskID)
	if !ok {
		t.Fatalf("expected a completed result")
	}
	if taskErr != nil {
		t.Fatalf("unexpected task error: %v", taskErr)
	}
	if string(payload) != "echo:hello" {
		t.Fatalf("payload = %q, want %q", payload, "echo:hello")
	}
}

func TestSubmit_UnknownQueueNeverCompletes(t *testing.T) {
	r := New(testConfig())
	r.RegisterHandler(QueueDefault, func(ctx context.Context, payload []byte) ([]byte, error) { return payload, nil })
	startRunner(t, r)

	taskID, err := r.Submit(context.Background(), QueueSentiment, []byte("x"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if status, _ := r.Status(taskID); status != StatusPending {
		t.Fatalf("expected task on an unhandled queue to stay pending, got %v", status)
	}
}

func TestCancel_PendingTaskBecomesCancelled(t *testing.T) {
	r := New(testConfig())
	taskID, err := func() (string, error) {
		_, cancel := context.WithCancel(context.Background())
		rec := &taskRecord{id: "manual", status: StatusPending, cancel: cancel}
		r.tasks.Store("manual", rec)
		return "manual", nil
	}()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if ok := r.Cancel(taskID); !ok {
		t.Fatalf("expected Cancel to succeed on a pending task")
	}
	status, _ := r.Status(taskID)
	if status != StatusCancelled {
		t.Fatalf("status = %v, want %v", status, StatusCancelled)
	}
	if ok := r.Cancel(taskID); ok {
		t.Fatalf("expected a second Cancel on an already-cancelled task to fail")
	}
}

func TestDispatch_HandlerErrorMarksTaskFailed(t *testing.T) {
	r := New(testConfig())
	wantErr := errors.New("boom")
	r.RegisterHandler(QueueDefault, func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, wantErr
	})
	startRunner(t, r)

	taskID, err := r.Submit(context.Background(), QueueDefault, []byte("x"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var status Status
	for time.Now().Before(deadline) {
		status, _ = r.Status(taskID)
		if status == StatusFailed {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if status != StatusFailed {
		t.Fatalf("expected task to end in StatusFailed, got %v", status)
	}
}

func TestThroughput_CountsDispatchedTasks(t *testing.T) {
	r := New(testConfig())
	r.RegisterHandler(QueueDefault, func(ctx context.Context, payload []byte) ([]byte, error) { return payload, nil })
	startRunner(t, r)

	if _, err := r.Submit(context.Background(), QueueDefault, []byte("a")); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && r.Throughput(QueueDefault, time.Hour) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if r.Throughput(QueueDefault, time.Hour) < 1 {
		t.Fatalf("expected at least one dispatched task counted")
	}
}
