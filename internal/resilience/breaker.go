// Package resilience wires circuit breakers around the external
// collaborators each pipeline stage depends on (embedding, sentiment,
// vector index, repository), isolating a struggling backend to its own
// stage instead of letting failures cascade into request-wide timeouts.
package resilience

import (
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/recoship/ranking/internal/config"
	"github.com/recoship/ranking/internal/metrics"
)

// New builds a named circuit breaker from cfg. name identifies the client
// (e.g. "embedding", "sentiment", "vectorindex", "repository") and is used
// both as the breaker's own name and as the metrics label.
func New[T any](name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 1 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRate
		},
		OnStateChange: func(breakerName string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(breakerName, to.String())
		},
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}
