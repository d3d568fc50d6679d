// Package orchestrator exposes a single sync/async entry point (C12) over
// Core A's recommendation pipeline, Core B's courier ranking pipeline, and
// the sentiment service, delegating asynchronous work to the task runner and
// owning Core A's two-stage sentiment-then-recommendation fan-in.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/recoship/ranking/internal/courier"
	"github.com/recoship/ranking/internal/logging"
	"github.com/recoship/ranking/internal/recommend"
	"github.com/recoship/ranking/internal/sentiment"
	"github.com/recoship/ranking/internal/taskrunner"
)

// SentimentRecommendRequest drives Core A's two-stage flow: score the
// client's review text, then fold the resulting score into a recommendation
// query against the reference product.
type SentimentRecommendRequest struct {
	ClientID           string
	ReferenceProductID string
	ProductType        string
	ReviewText         string
	TopK               int
}

// Orchestrator wires Core A and Core B's pipelines to a common sync/async
// surface. It holds no pipeline-specific logic itself; every call is a thin
// dispatch to the owned collaborator, either inline (sync) or via the task
// runner (async).
type Orchestrator struct {
	Recommend *recommend.Pipeline
	Sentiment sentiment.Service
	Runner    *taskrunner.Runner
	CacheTTL  time.Duration
}

// New wires an Orchestrator and registers its task runner handlers. Runner
// may be nil if only the synchronous surface is needed (e.g. in tests).
func New(rec *recommend.Pipeline, sent sentiment.Service, runner *taskrunner.Runner, cacheTTL time.Duration) *Orchestrator {
	o := &Orchestrator{Recommend: rec, Sentiment: sent, Runner: runner, CacheTTL: cacheTTL}
	if runner != nil {
		runner.RegisterHandler(taskrunner.QueueRecommendations, o.handleRecommendTask)
		runner.RegisterHandler(taskrunner.QueueSentiment, o.handleSentimentTask)
		runner.RegisterHandler(taskrunner.QueueHealthCheck, o.handleHealthCheckTask)
	}
	return o
}

// SyncRecommend runs Core A's recommendation pipeline inline and returns the
// full result, skipping the sentiment stage (the caller already has a
// sentiment score, or doesn't need one).
func (o *Orchestrator) SyncRecommend(ctx context.Context, req recommend.Request) (recommend.Result, error) {
	return o.Recommend.Run(ctx, req, o.CacheTTL)
}

// SyncSentimentThenRecommend runs Core A's full two-stage flow inline:
// score req.ReviewText, then recommend against req.ReferenceProductID using
// that score.
func (o *Orchestrator) SyncSentimentThenRecommend(ctx context.Context, req SentimentRecommendRequest) (sentiment.Result, recommend.Result, error) {
	sentimentResult := o.Sentiment.Analyze(ctx, req.ReviewText)

	recResult, err := o.Recommend.Run(ctx, recommend.Request{
		ClientID:           req.ClientID,
		ReferenceProductID: req.ReferenceProductID,
		ProductType:        req.ProductType,
		SentimentScore:     sentimentResult.Score,
		TopK:               req.TopK,
	}, o.CacheTTL)

	return sentimentResult, recResult, err
}

// SubmitRecommend dispatches a recommendation request to the async task
// runner and returns a task id pollable via TaskStatus/TaskResult.
func (o *Orchestrator) SubmitRecommend(ctx context.Context, req recommend.Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("orchestrator: marshal recommend request: %w", err)
	}
	return o.Runner.Submit(ctx, taskrunner.QueueRecommendations, payload)
}

// SubmitSentiment dispatches a sentiment-analysis request to the async task
// runner.
func (o *Orchestrator) SubmitSentiment(ctx context.Context, text string) (string, error) {
	return o.Runner.Submit(ctx, taskrunner.QueueSentiment, []byte(text))
}

// BatchSentiment scores a batch of texts inline; batches are bounded by the
// caller (the HTTP layer enforces a maximum batch size) so there is no need
// to route this through the async queue.
func (o *Orchestrator) BatchSentiment(ctx context.Context, texts []string) []sentiment.Result {
	results := make([]sentiment.Result, len(texts))
	for i, text := range texts {
		results[i] = o.Sentiment.Analyze(ctx, text)
	}
	return results
}

// RankCouriers runs Core B's pure courier ranking pipeline inline. It is
// never dispatched async: the pipeline does no I/O and completes in
// microseconds for any realistic candidate count.
func (o *Orchestrator) RankCouriers(ann courier.Announcement, candidates []courier.Candidate, tolOverride float64) (courier.Result, error) {
	return courier.Rank(ann, candidates, tolOverride)
}

// Invalidate evicts every cache tier's entry for productType/productID so
// the next recommendation request recomputes instead of serving a stale
// result. It returns the number of cache keys deleted.
func (o *Orchestrator) Invalidate(productType, productID string) int {
	if o.Recommend != nil && o.Recommend.Cache != nil {
		return o.Recommend.Cache.Invalidate(productType, productID)
	}
	return 0
}

// TaskStatus reports an async task's lifecycle state.
func (o *Orchestrator) TaskStatus(taskID string) (taskrunner.Status, bool) {
	return o.Runner.Status(taskID)
}

// TaskResult returns an async task's completed payload.
func (o *Orchestrator) TaskResult(taskID string) ([]byte, error, bool) {
	return o.Runner.Result(taskID)
}

// CancelTask cancels a pending async task.
func (o *Orchestrator) CancelTask(taskID string) bool {
	return o.Runner.Cancel(taskID)
}

func (o *Orchestrator) handleRecommendTask(ctx context.Context, payload []byte) ([]byte, error) {
	var req recommend.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("orchestrator: unmarshal recommend task: %w", err)
	}
	result, err := o.Recommend.Run(ctx, req, o.CacheTTL)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

func (o *Orchestrator) handleSentimentTask(ctx context.Context, payload []byte) ([]byte, error) {
	result := o.Sentiment.Analyze(ctx, string(payload))
	return json.Marshal(result)
}

// HealthReport is the payload both the sync and async health-check entry
// points produce; RunHealthChecks's periodic submission and a direct
// /health/ handler call both funnel through checkHealth so the two never
// drift apart.
type HealthReport struct {
	Recommend string `json:"recommend"`
	Sentiment string `json:"sentiment"`
}

func (o *Orchestrator) handleHealthCheckTask(ctx context.Context, _ []byte) ([]byte, error) {
	report := o.checkHealth(ctx)
	return json.Marshal(report)
}

// CheckHealthSync is the synchronous health-check entry point, used by the
// HTTP /health/ready handler for an immediate answer.
func (o *Orchestrator) CheckHealthSync(ctx context.Context) HealthReport {
	return o.checkHealth(ctx)
}

func (o *Orchestrator) checkHealth(ctx context.Context) HealthReport {
	report := HealthReport{Recommend: "ok", Sentiment: "ok"}
	if o.Recommend != nil && o.Recommend.Embedder != nil {
		if err := o.Recommend.Embedder.HealthCheck(ctx); err != nil {
			report.Recommend = "degraded: " + err.Error()
			logging.Ctx(ctx).Warn().Err(err).Msg("embedding health check failed")
		}
	}
	if o.Sentiment != nil {
		if err := o.Sentiment.HealthCheck(ctx); err != nil {
			report.Sentiment = "degraded: " + err.Error()
		}
	}
	return report
}
