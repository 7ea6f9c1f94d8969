package middleware

import (
	"runtime/debug"
	"time"

	"sierra_bridge/utils"

	"github.com/sony/gobreaker"
)

// NewOrderBreaker returns the circuit breaker placed in front of host order
// submissions. After repeated host failures the breaker opens and commands
// fail fast instead of waiting on a dead order endpoint.
func NewOrderBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "order-router-breaker",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			utils.Logger.Infow("Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})
}

// RecoverCycle runs one engine invocation and converts a panic into a
// logged diagnostic. A fault must never propagate out of a cycle: the
// single-writer external state would desynchronize if the process died
// mid-handoff.
func RecoverCycle(next func()) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			utils.Logger.Errorw("Panic recovered in invocation cycle",
				"error", r,
				"stack", string(stack))
		}
	}()
	next()
}
