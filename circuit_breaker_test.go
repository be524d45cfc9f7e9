package kvclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pior/kvclient/internal/kvtest"
	"github.com/pior/kvclient/wire"
)

func TestIsServerFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"response error", &wire.ResponseError{Message: "not scalar"}, false},
		{"wrapped response error", fmt.Errorf("get: %w", &wire.ResponseError{Message: "x"}), false},
		{"invalid argument", &wire.InvalidArgumentTypeError{Type: "array"}, false},
		{"canceled", &ConnectionError{Op: "execute", Err: context.Canceled}, false},
		{"deadline", &ConnectionError{Op: "execute", Err: context.DeadlineExceeded}, true},
		{"parse error", &wire.ParseError{Offset: 3, Message: "unknown tag"}, true},
		{"eof", ErrUnexpectedEOF, true},
		{"connect timeout", &ConnectTimeoutError{Addr: "x", Timeout: time.Second}, true},
		{"other", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isServerFailure(tt.err))
		})
	}
}

func TestNewCircuitBreakerConfig(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	newBreaker := NewCircuitBreakerConfig(1, time.Minute, time.Minute, zap.New(core))

	cb := newBreaker("server:7000")
	require.NotNil(t, cb)
	assert.Equal(t, "server:7000", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	// refusals from a healthy server never trip the breaker
	refused := newBreaker("refused:7000")
	for range 10 {
		_, _ = refused.Execute(func() (bool, error) {
			return false, &wire.ResponseError{Message: "object not a set"}
		})
	}
	assert.Equal(t, gobreaker.StateClosed, refused.State())
	assert.Zero(t, refused.Counts().TotalFailures)

	for range 3 {
		_, _ = cb.Execute(func() (bool, error) {
			return false, ErrUnexpectedEOF
		})
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (bool, error) { return true, nil })
	require.ErrorIs(t, err, gobreaker.ErrOpenState)

	require.Equal(t, 1, logs.FilterMessage("Circuit breaker state changed").Len())
}

func TestClient_WithCircuitBreaker(t *testing.T) {
	addr := kvtest.FreeAddr(t)
	client, err := NewClient(NewStaticServers(addr), Config{
		ConnectTimeout:    10 * time.Millisecond,
		NewCircuitBreaker: NewCircuitBreakerConfig(1, time.Minute, time.Minute, nil),
	})
	require.NoError(t, err)
	defer client.Close()
	ctx := testContext(t)

	for range 3 {
		_, err := client.Get(ctx, "k")
		require.ErrorIs(t, err, ErrConnectTimeout)
	}

	_, err = client.Get(ctx, "k")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)

	stats := client.AllPoolStats()
	require.Len(t, stats, 1)
	assert.Equal(t, gobreaker.StateOpen, stats[0].CircuitBreakerState)
}

func TestClient_CircuitBreakerIgnoresResponseErrors(t *testing.T) {
	srv := kvtest.Start(t)
	client := newTestClient(t, Config{
		NewCircuitBreaker: NewCircuitBreakerConfig(1, time.Minute, time.Minute, nil),
	}, srv)
	ctx := testContext(t)

	require.NoError(t, client.Set(ctx, "k", wire.Int(1)))
	for range 5 {
		_, err := client.SCard(ctx, "k")
		var respErr *wire.ResponseError
		require.ErrorAs(t, err, &respErr)
	}

	stats := client.AllPoolStats()[0]
	assert.Equal(t, gobreaker.StateClosed, stats.CircuitBreakerState)
	assert.Zero(t, stats.CircuitBreakerCounts.TotalFailures)
}

func TestClient_WithoutCircuitBreaker(t *testing.T) {
	srv := kvtest.Start(t)
	client := newTestClient(t, Config{}, srv)

	require.NoError(t, client.Set(testContext(t), "k", wire.Int(1)))

	stats := client.AllPoolStats()[0]
	assert.Equal(t, gobreaker.StateClosed, stats.CircuitBreakerState)
	assert.Zero(t, stats.CircuitBreakerCounts.Requests)
}
