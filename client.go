package kvclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pior/kvclient/wire"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxSize = 10

	// healthCheckKey is checked with TTL: any Int reply proves the server reads
	// and answers frames.
	healthCheckKey = "__kvclient_health__"
)

// Config holds configuration for the client connection pools.
type Config struct {
	// MaxSize is the maximum number of connections per server.
	// Zero means DefaultMaxSize.
	MaxSize int32

	// MaxConnLifetime is the maximum duration a connection can be reused.
	// Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a connection can be idle before being closed.
	// Zero means no limit.
	MaxConnIdleTime time.Duration

	// HealthCheckInterval is how often to check idle connections for health.
	// Zero disables health checks.
	HealthCheckInterval time.Duration

	// ConnectTimeout bounds the connect retry loop of new connections, and
	// each health check. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// PollInterval is the pause between refused connection attempts.
	// Zero means DefaultPollInterval.
	PollInterval time.Duration

	// Dialer performs each connection attempt.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// Pool is the connection pool factory function.
	// If nil, uses the default channel-based pool (fastest).
	// To use puddle pool: Pool: kvclient.NewPuddlePool
	Pool PoolFactory

	// SelectServer picks which server to use for a key.
	// If nil, uses DefaultSelectServer (jump hash).
	SelectServer SelectServerFunc

	// NewCircuitBreaker creates a circuit breaker for a server.
	// Called once per server address when the pool is created.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(serverAddr string) *gobreaker.CircuitBreaker[bool]

	// Logger receives connection lifecycle events. If nil, nothing is logged.
	Logger *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Dialer == nil {
		c.Dialer = &net.Dialer{}
	}
	if c.Pool == nil {
		c.Pool = NewChannelPool
	}
	if c.SelectServer == nil {
		c.SelectServer = DefaultSelectServer
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Client routes requests to a set of servers, with one connection pool per
// server.
//
// Keyed requests go to the server chosen by SelectServer from their first
// argument. KEYS is sent to every server and the replies are merged in server
// order. Batches are split per server, pipelined concurrently and reassembled
// in request order.
//
// The typed commands of Commands are available directly on the client.
type Client struct {
	*Commands

	servers Servers
	config  Config
	logger  *zap.Logger

	mu    sync.RWMutex
	pools map[string]*ServerPool

	stopHealthCheck chan struct{}
	healthCheckDone chan struct{}
	closeOnce       sync.Once

	stats clientStatsCollector
}

// NewClient creates a new client with the given servers and configuration.
// For a single server, use: NewClient(NewStaticServers("host:port"), config)
func NewClient(servers Servers, config Config) (*Client, error) {
	if len(servers.List()) == 0 {
		return nil, ErrNoServers
	}

	config = config.withDefaults()

	client := &Client{
		servers:         servers,
		config:          config,
		logger:          config.Logger,
		pools:           make(map[string]*ServerPool),
		stopHealthCheck: make(chan struct{}),
		healthCheckDone: make(chan struct{}),
	}
	client.Commands = NewCommands(client)

	if config.HealthCheckInterval > 0 {
		go client.healthCheckLoop()
	} else {
		close(client.healthCheckDone)
	}

	return client, nil
}

// Batch returns the batch operations of the client.
func (c *Client) Batch() *BatchCommands {
	return NewBatchCommands(c)
}

// Close stops the health checks and closes every pool.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stopHealthCheck)
		<-c.healthCheckDone

		c.mu.Lock()
		defer c.mu.Unlock()

		for _, sp := range c.pools {
			err = multierr.Append(err, sp.Close())
		}
	})
	return err
}

// Stats returns a snapshot of the client operation counters.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// AllPoolStats returns the stats of every server pool created so far.
func (c *Client) AllPoolStats() []ServerPoolStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]ServerPoolStats, 0, len(c.pools))
	for _, sp := range c.pools {
		stats = append(stats, sp.Stats())
	}
	return stats
}

// Execute routes req to its server and returns the response.
func (c *Client) Execute(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	c.stats.recordRequest()

	resp, err := c.execute(ctx, req)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}
	if resp.IsError() {
		c.stats.recordResponseErrors(1)
	}
	return resp, nil
}

func (c *Client) execute(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	if req.Command == wire.CmdShutdown {
		return nil, fmt.Errorf("kvclient: %s must be sent with Connection.Shutdown", req.Command)
	}

	if len(req.Args) == 0 {
		return c.executeOnAll(ctx, req)
	}

	sp, err := c.poolForKey(routingKey(req))
	if err != nil {
		return nil, err
	}
	return sp.Execute(ctx, req)
}

// executeOnAll sends a keyless request to every server and concatenates the
// array replies in server order. The first Err envelope wins.
func (c *Client) executeOnAll(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	addrs := c.servers.List()
	if len(addrs) == 0 {
		return nil, ErrNoServers
	}

	responses := make([]*wire.Response, len(addrs))

	var g errgroup.Group
	for i, addr := range addrs {
		g.Go(func() error {
			sp, err := c.getOrCreatePool(addr)
			if err != nil {
				return err
			}
			resp, err := sp.Execute(ctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", addr, err)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []wire.Value
	for _, resp := range responses {
		if resp.IsError() {
			return resp, nil
		}
		elems, ok := resp.Value.AsArray()
		if !ok {
			return nil, unexpectedKind(req.Command, resp.Value, wire.KindArray)
		}
		merged = append(merged, elems...)
	}
	return &wire.Response{Status: wire.StatusOK, Value: wire.Array(merged...)}, nil
}

// ExecuteBatch pipelines reqs. Requests are grouped per server, each group
// is sent as one batch on one connection, and the groups run concurrently.
// Responses are returned in request order.
func (c *Client) ExecuteBatch(ctx context.Context, reqs []*wire.Request) ([]*wire.Response, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	c.stats.recordBatch(len(reqs))

	responses, err := c.executeBatch(ctx, reqs)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}

	errCount := 0
	for _, resp := range responses {
		if resp.IsError() {
			errCount++
		}
	}
	c.stats.recordResponseErrors(errCount)

	return responses, nil
}

func (c *Client) executeBatch(ctx context.Context, reqs []*wire.Request) ([]*wire.Response, error) {
	servers := c.servers.List()

	groups := make(map[string][]int)
	var keyless []int
	for i, req := range reqs {
		if len(req.Args) == 0 {
			keyless = append(keyless, i)
			continue
		}
		addr, err := c.config.SelectServer(routingKey(req), servers)
		if err != nil {
			return nil, err
		}
		groups[addr] = append(groups[addr], i)
	}

	responses := make([]*wire.Response, len(reqs))

	// Groups share ctx but not a cancellation: a failing server must not
	// break the connections of the healthy ones.
	var g errgroup.Group
	for addr, indexes := range groups {
		g.Go(func() error {
			sp, err := c.getOrCreatePool(addr)
			if err != nil {
				return err
			}

			batch := make([]*wire.Request, len(indexes))
			for j, i := range indexes {
				batch[j] = reqs[i]
			}

			resps, err := sp.ExecuteBatch(ctx, batch)
			if err != nil {
				return fmt.Errorf("%s: %w", addr, err)
			}
			for j, i := range indexes {
				responses[i] = resps[j]
			}
			return nil
		})
	}
	for _, i := range keyless {
		g.Go(func() error {
			resp, err := c.execute(ctx, reqs[i])
			responses[i] = resp
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// routingKey is the text of the first argument, the key of every keyed
// command.
func routingKey(req *wire.Request) string {
	if s, ok := req.Args[0].Text(); ok {
		return s
	}
	return req.Args[0].String()
}

// poolForKey returns the pool for the server that should handle this key.
// Creates pool lazily if it doesn't exist.
func (c *Client) poolForKey(key string) (*ServerPool, error) {
	addr, err := c.config.SelectServer(key, c.servers.List())
	if err != nil {
		return nil, err
	}
	return c.getOrCreatePool(addr)
}

// getOrCreatePool gets or creates a pool for the given server address.
func (c *Client) getOrCreatePool(addr string) (*ServerPool, error) {
	// Fast path: read lock
	c.mu.RLock()
	sp, exists := c.pools[addr]
	c.mu.RUnlock()
	if exists {
		return sp, nil
	}

	// Slow path: write lock and create
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if sp, exists := c.pools[addr]; exists {
		return sp, nil
	}

	select {
	case <-c.stopHealthCheck:
		return nil, ErrPoolClosed
	default:
	}

	sp, err := NewServerPool(addr, c.config)
	if err != nil {
		return nil, err
	}
	c.pools[addr] = sp
	return sp, nil
}

// healthCheckLoop periodically checks idle connections for health and lifecycle limits.
func (c *Client) healthCheckLoop() {
	defer close(c.healthCheckDone)

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHealthCheck:
			return
		case <-ticker.C:
			c.checkAllPools()
		}
	}
}

// checkAllPools runs health checks on all existing pools
func (c *Client) checkAllPools() {
	c.mu.RLock()
	pools := make([]*ServerPool, 0, len(c.pools))
	for _, sp := range c.pools {
		pools = append(pools, sp)
	}
	c.mu.RUnlock()

	for _, sp := range pools {
		c.checkPoolConnections(sp)
	}
}

// checkPoolConnections checks all idle connections in a pool and destroys those that are stale or unhealthy.
func (c *Client) checkPoolConnections(sp *ServerPool) {
	now := time.Now()

	for _, res := range sp.pool.AcquireAllIdle() {
		if c.config.MaxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.config.MaxConnLifetime {
			sp.logger.Debug("Evicting connection", zap.String("reason", "lifetime"))
			res.Destroy()
			continue
		}

		if c.config.MaxConnIdleTime > 0 && res.IdleDuration() > c.config.MaxConnIdleTime {
			sp.logger.Debug("Evicting connection", zap.String("reason", "idle"))
			res.Destroy()
			continue
		}

		if err := c.healthCheck(res.Value()); err != nil {
			sp.logger.Debug("Evicting connection", zap.String("reason", "health check"), zap.Error(err))
			res.Destroy()
			continue
		}

		res.ReleaseUnused()
	}
}

// healthCheck tests a connection with a TTL request on a reserved key.
func (c *Client) healthCheck(conn *Connection) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.ConnectTimeout)
	defer cancel()

	resp, err := conn.Execute(ctx, wire.NewRequest(wire.CmdTTL, wire.String(healthCheckKey)))
	if err != nil {
		return err
	}

	v, err := resp.Result()
	if err != nil {
		return err
	}
	if _, ok := v.AsInt(); !ok {
		return errors.New("health check: unexpected reply " + v.String())
	}
	return nil
}
