/*
Package metrics provides Prometheus metrics collection and export for
observability of the recommendation and courier ranking pipelines.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Recommendation pipeline per-stage latency and outcome (Core A)
  - Sentiment score distribution and embedding search candidate counts
  - Tolerance-aware cache hit/miss rates by tier (exact, fuzzy, product)
  - AHP consistency ratio and TOPSIS closeness coefficient distributions (Core B)
  - Geofence-eligible candidate counts per delivery urgency
  - Async task queue depth, retries, and duration
  - Circuit breaker state transitions for external-call clients

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Usage

Most call sites use the package-level Record and Set helpers rather than
touching the underlying prometheus.Collector variables directly, so a
metric's cardinality stays centralized:

	metrics.RecordRecommendationStage("embedding_search", elapsed)
	metrics.RecordCacheHit("fuzzy")
	metrics.SetCircuitBreakerState("embedding", breaker.State().String())
*/
package metrics
