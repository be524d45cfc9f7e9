package kvclient

import (
	"context"
	"errors"
	"time"

	"github.com/pior/kvclient/wire"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// NewCircuitBreakerConfig returns a function that creates circuit breakers for servers.
// This is a helper for common use cases.
// Uses CircuitBreaker[bool] to support both single and batch operations.
//
// Only transport failures count: a server answering with an Err envelope is
// healthy.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration, logger *zap.Logger) func(string) *gobreaker.CircuitBreaker[bool] {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(serverAddr string) *gobreaker.CircuitBreaker[bool] {
		settings := gobreaker.Settings{
			Name:        serverAddr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				return !isServerFailure(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("Circuit breaker state changed",
					zap.String("server", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			},
		}
		return gobreaker.NewCircuitBreaker[bool](settings)
	}
}

// isServerFailure reports whether err says something about the health of the
// server, as opposed to a refused command or a caller giving up.
func isServerFailure(err error) bool {
	if err == nil {
		return false
	}

	var respErr *wire.ResponseError
	switch {
	case errors.As(err, &respErr):
		return false
	case errors.Is(err, wire.ErrInvalidArgumentType), errors.Is(err, wire.ErrValueTooLarge):
		return false
	case errors.Is(err, context.Canceled):
		return false
	}
	return true
}
