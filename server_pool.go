package kvclient

import (
	"context"

	"github.com/pior/kvclient/wire"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// NewServerPool creates the pool of connections to one server.
func NewServerPool(addr string, config Config) (*ServerPool, error) {
	config = config.withDefaults()

	dialer := &Dialer{
		Timeout:      config.ConnectTimeout,
		PollInterval: config.PollInterval,
		NetDialer:    config.Dialer,
		Logger:       config.Logger,
	}

	constructor := func(ctx context.Context) (*Connection, error) {
		return dialer.Dial(ctx, addr)
	}

	pool, err := config.Pool(constructor, config.MaxSize)
	if err != nil {
		return nil, err
	}

	sp := &ServerPool{
		addr:   addr,
		pool:   pool,
		logger: config.Logger.With(zap.String("server", addr)),
	}
	if config.NewCircuitBreaker != nil {
		sp.circuitBreaker = config.NewCircuitBreaker(addr)
	}
	return sp, nil
}

// ServerPool wraps a pool, a circuit breaker with its server address.
type ServerPool struct {
	addr           string
	pool           Pool
	circuitBreaker *gobreaker.CircuitBreaker[bool] // nil if not configured
	logger         *zap.Logger
}

func (sp *ServerPool) Address() string {
	return sp.addr
}

// ServerPoolStats contains stats for a single server pool
type ServerPoolStats struct {
	Addr                 string
	PoolStats            PoolStats
	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

func (sp *ServerPool) Stats() ServerPoolStats {
	stats := ServerPoolStats{
		Addr:      sp.addr,
		PoolStats: sp.pool.Stats(),
	}
	if sp.circuitBreaker != nil {
		stats.CircuitBreakerState = sp.circuitBreaker.State()
		stats.CircuitBreakerCounts = sp.circuitBreaker.Counts()
	}
	return stats
}

// Execute executes a single request-response cycle with proper connection management.
// It handles acquiring a connection, sending the request, reading the response, and
// releasing/destroying the connection based on error conditions.
// The request is wrapped with the server's circuit breaker.
func (sp *ServerPool) Execute(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	var resp *wire.Response
	err := sp.withBreaker(func() (err error) {
		resp, err = sp.execRequestDirect(ctx, req)
		return err
	})
	return resp, err
}

// ExecuteBatch pipelines reqs on a single connection.
//
// Returns responses in the same order as requests. Err envelopes are part of
// the responses; only transport and stream failures are returned as errors.
func (sp *ServerPool) ExecuteBatch(ctx context.Context, reqs []*wire.Request) ([]*wire.Response, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	var responses []*wire.Response
	err := sp.withBreaker(func() (err error) {
		responses, err = sp.execBatchDirect(ctx, reqs)
		return err
	})
	return responses, err
}

func (sp *ServerPool) withBreaker(fn func() error) error {
	if sp.circuitBreaker == nil {
		return fn()
	}

	_, err := sp.circuitBreaker.Execute(func() (bool, error) {
		return true, fn()
	})
	return err
}

// execRequestDirect performs the actual request execution without circuit breaker.
func (sp *ServerPool) execRequestDirect(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	resource, err := sp.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := resource.Value().Execute(ctx, req)
	sp.giveBack(resource, err)
	return resp, err
}

// execBatchDirect performs the actual batch execution without circuit breaker.
func (sp *ServerPool) execBatchDirect(ctx context.Context, reqs []*wire.Request) ([]*wire.Response, error) {
	resource, err := sp.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	responses, err := resource.Value().ExecuteBatch(ctx, reqs)
	sp.giveBack(resource, err)
	return responses, err
}

func (sp *ServerPool) giveBack(resource Resource, err error) {
	if ShouldCloseConnection(err) {
		sp.logger.Warn("Destroying connection", zap.Error(err))
	}
	releaseOrDestroy(resource, err)
}

// Close closes the connection pool.
func (sp *ServerPool) Close() error {
	return sp.pool.Close()
}
