// Package taskrunner implements the asynchronous worker pool (C13) backing
// the orchestrator's submit/status/cancel surface. Tasks are dispatched over
// named in-process queues using Watermill's gochannel Pub/Sub, processed by a
// pre-configured Router (panic recovery, retry with backoff), and the
// runner's lifecycle is supervised by a suture tree so a crashed worker
// restarts instead of silently disappearing.
package taskrunner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/recoship/ranking/internal/cache"
	"github.com/recoship/ranking/internal/config"
	"github.com/recoship/ranking/internal/logging"
	"github.com/recoship/ranking/internal/metrics"
	"github.com/recoship/ranking/internal/reqctx"
)

// Queue names the async work classes the runner recognizes.
type Queue string

const (
	QueueRecommendations Queue = "recommendations"
	QueueSentiment       Queue = "sentiment"
	QueueVectorization   Queue = "vectorization"
	QueueDefault         Queue = "default"
	QueueHealthCheck     Queue = "health_check"
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Handler processes a task's payload under ctx (carrying the caller's
// propagated request context) and returns the result to store, or an error.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// taskRecord tracks one submitted task's lifecycle for the status/result API.
type taskRecord struct {
	mu       sync.Mutex
	id       string
	queue    Queue
	status   Status
	result   []byte
	err      error
	cancel   context.CancelFunc
	attempts int
}

func (t *taskRecord) snapshot() (Status, []byte, error, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.result, t.err, t.attempts
}

func (t *taskRecord) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Runner owns the pub/sub bus, registered handlers, and per-task bookkeeping.
type Runner struct {
	cfg        config.TaskRunnerConfig
	pubsub     *gochannel.GoChannel
	router     *message.Router
	handlers   map[Queue]Handler
	tasks      sync.Map // task id -> *taskRecord
	throughput map[Queue]*cache.TemporalFenwickTree
	retries    *cache.SlidingWindowStore
	limiter    *rate.Limiter
	mu         sync.Mutex
}

// New builds a Runner. RegisterHandler must be called for every queue before
// Serve, and Serve must run before any task is submitted.
func New(cfg config.TaskRunnerConfig) *Runner {
	var limiter *rate.Limiter
	if cfg.MaxDispatchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxDispatchRate), maxInt(int(cfg.MaxDispatchRate), 1))
	}
	return &Runner{
		cfg:        cfg,
		handlers:   make(map[Queue]Handler),
		throughput: make(map[Queue]*cache.TemporalFenwickTree),
		retries:    cache.NewSlidingWindowStore(time.Hour, 60, 0),
		limiter:    limiter,
	}
}

// RegisterHandler binds a processing function to a queue. Must be called
// before Serve.
func (r *Runner) RegisterHandler(q Queue, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[q] = h
}

// Serve implements suture.Service: it builds the Watermill router with the
// registered handlers and blocks until ctx is cancelled or the router
// returns.
func (r *Runner) Serve(ctx context.Context) error {
	logger := watermill.NewStdLogger(false, false)
	r.pubsub = gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(maxInt(r.cfg.QueueBuffer, 1)),
		Persistent:          false,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return fmt.Errorf("taskrunner: new router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      maxInt(r.cfg.RetryMaxAttempts, 1),
		InitialInterval: orDefault(r.cfg.RetryBaseDelay, time.Second),
		MaxInterval:     orDefault(r.cfg.RetryMaxDelay, 10*time.Minute),
		Multiplier:      2.0,
		Logger:          logger,
	}.Middleware)

	r.mu.Lock()
	for q, h := range r.handlers {
		queue, handler := q, h
		router.AddNoPublisherHandler(
			string(queue)+"-worker",
			string(queue),
			r.pubsub,
			func(msg *message.Message) error {
				return r.dispatch(queue, handler, msg)
			},
		)
	}
	r.mu.Unlock()

	r.router = router
	return router.Run(ctx)
}

// dispatch runs a single message through its registered handler, updating
// the task record and throughput counters. A handler error causes Watermill's
// Retry middleware to redeliver the message up to RetryMaxAttempts times;
// only the final, unrecovered failure is reflected as StatusFailed.
func (r *Runner) dispatch(q Queue, h Handler, msg *message.Message) error {
	taskID := msg.Metadata.Get("task_id")
	rec, _ := r.tasks.Load(taskID)
	record, _ := rec.(*taskRecord)

	if r.limiter != nil {
		if err := r.limiter.Wait(msg.Context()); err != nil {
			return err
		}
	}

	r.recordThroughput(q)
	metrics.TaskQueueDepth.WithLabelValues(string(q)).Dec()

	rc := reqctx.RequestContext{
		CorrelationID: msg.Metadata.Get("correlation_id"),
		RequestID:     msg.Metadata.Get("request_id"),
		UserID:        msg.Metadata.Get("user_id"),
		SessionID:     msg.Metadata.Get("session_id"),
	}
	ctx := reqctx.Detach(rc)

	if record != nil {
		if status, _, _, _ := record.snapshot(); status == StatusCancelled {
			return nil
		}
		record.setStatus(StatusRunning)
	}

	start := time.Now()
	result, err := h(ctx, msg.Payload)
	if record != nil {
		record.mu.Lock()
		record.attempts++
		record.mu.Unlock()
	}

	if err != nil {
		r.recordRetry(q)
		metrics.RecordTaskExecution(string(q), "failed", time.Since(start))
		logging.Ctx(ctx).Warn().Str("queue", string(q)).Str("task_id", taskID).Err(err).Msg("task handler failed")
		if record != nil {
			record.mu.Lock()
			record.err = err
			if record.attempts > maxInt(r.cfg.RetryMaxAttempts, 1) {
				record.status = StatusFailed
			}
			record.mu.Unlock()
		}
		return err
	}

	metrics.RecordTaskExecution(string(q), "succeeded", time.Since(start))
	if record != nil {
		record.mu.Lock()
		record.status = StatusSucceeded
		record.result = result
		record.err = nil
		record.mu.Unlock()
	}
	return nil
}

// Submit publishes a task onto q and returns a task id the caller can poll
// with Status/Result. The request context propagated via ctx rides along as
// message metadata and is reattached for the handler via reqctx.Detach.
func (r *Runner) Submit(ctx context.Context, q Queue, payload []byte) (string, error) {
	if r.pubsub == nil {
		return "", fmt.Errorf("taskrunner: Submit called before Serve")
	}

	taskID := uuid.NewString()
	rc := reqctx.From(ctx)

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("task_id", taskID)
	msg.Metadata.Set("correlation_id", rc.CorrelationID)
	msg.Metadata.Set("request_id", rc.RequestID)
	msg.Metadata.Set("user_id", rc.UserID)
	msg.Metadata.Set("session_id", rc.SessionID)

	_, cancel := context.WithCancel(context.Background())
	record := &taskRecord{id: taskID, queue: q, status: StatusPending, cancel: cancel}
	r.tasks.Store(taskID, record)

	if err := r.pubsub.Publish(string(q), msg); err != nil {
		record.setStatus(StatusFailed)
		return "", fmt.Errorf("taskrunner: publish: %w", err)
	}

	metrics.TaskQueueDepth.WithLabelValues(string(q)).Inc()
	return taskID, nil
}

// RunHealthChecks submits a QueueHealthCheck task to payloadFn's queue every
// r.cfg.HealthCheckPeriod until ctx is cancelled, giving the health check
// both a synchronous entry point (direct handler invocation, see the
// orchestrator) and this asynchronous periodic one without duplicating the
// check logic.
func (r *Runner) RunHealthChecks(ctx context.Context, payloadFn func() []byte) {
	period := orDefault(r.cfg.HealthCheckPeriod, 5*time.Minute)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Submit(ctx, QueueHealthCheck, payloadFn()); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("periodic health check submit failed")
			}
		}
	}
}

// Status reports a task's current lifecycle state.
func (r *Runner) Status(taskID string) (Status, bool) {
	v, ok := r.tasks.Load(taskID)
	if !ok {
		return "", false
	}
	status, _, _, _ := v.(*taskRecord).snapshot()
	return status, true
}

// Result returns a completed task's output payload, or the error it failed
// with. ok is false if the task id is unknown or still pending/running.
func (r *Runner) Result(taskID string) (payload []byte, taskErr error, ok bool) {
	v, exists := r.tasks.Load(taskID)
	if !exists {
		return nil, nil, false
	}
	status, result, err, _ := v.(*taskRecord).snapshot()
	if status != StatusSucceeded && status != StatusFailed {
		return nil, nil, false
	}
	return result, err, true
}

// Cancel marks a pending task as cancelled so its status query reflects the
// cancellation; an already-running task will still run to completion since
// the in-process queue has no mid-flight interrupt primitive.
func (r *Runner) Cancel(taskID string) bool {
	v, ok := r.tasks.Load(taskID)
	if !ok {
		return false
	}
	record := v.(*taskRecord)
	record.mu.Lock()
	defer record.mu.Unlock()
	if record.status != StatusPending {
		return false
	}
	record.status = StatusCancelled
	if record.cancel != nil {
		record.cancel()
	}
	return true
}

// Throughput returns the number of tasks dispatched on q within the last
// window, backed by a minute-bucketed Fenwick tree for O(log n) range sums.
func (r *Runner) Throughput(q Queue, window time.Duration) int64 {
	r.mu.Lock()
	tree, ok := r.throughput[q]
	r.mu.Unlock()
	if !ok {
		return 0
	}
	now := timeNow()
	return tree.RangeSumTime(now.Add(-window), now)
}

// RetryRate returns the count of retried (failed-then-redelivered) task
// attempts on q within the sliding window.
func (r *Runner) RetryRate(q Queue) int64 {
	return r.retries.Count(string(q))
}

func (r *Runner) recordThroughput(q Queue) {
	r.mu.Lock()
	tree, ok := r.throughput[q]
	if !ok {
		now := timeNow()
		tree = cache.NewTemporalFenwickTree(now.Add(-24*time.Hour), now.Add(24*time.Hour), time.Minute)
		r.throughput[q] = tree
	}
	r.mu.Unlock()
	tree.Increment(timeNow())
}

func (r *Runner) recordRetry(q Queue) {
	r.retries.Increment(string(q))
	metrics.TaskRetriesTotal.WithLabelValues(string(q)).Inc()
}

func maxInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func timeNow() time.Time {
	return time.Now()
}
