package kvclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pior/kvclient/internal/coarsetime"
	"go.uber.org/multierr"
)

// NewChannelPool creates a new channel-based connection pool.
// This is the default pool implementation, optimized for performance.
func NewChannelPool(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("kvclient: pool size must be > 0, got %d", maxSize)
	}

	return &channelPool{
		constructor: constructor,
		idle:        make(chan *channelResource, maxSize),
		slots:       make(chan struct{}, maxSize),
		done:        make(chan struct{}),
	}, nil
}

// channelResource implements Resource for channel pool.
type channelResource struct {
	conn         *Connection
	pool         *channelPool
	creationTime time.Time
	lastUsedTime time.Time
}

func (r *channelResource) Value() *Connection {
	return r.conn
}

func (r *channelResource) Release() {
	r.lastUsedTime = coarsetime.Now()
	r.pool.put(r)
}

func (r *channelResource) ReleaseUnused() {
	// Don't update lastUsedTime for health checks
	r.pool.put(r)
}

func (r *channelResource) Destroy() {
	_ = r.conn.Close()
	<-r.pool.slots
	r.pool.stats.recordDestroy()
}

func (r *channelResource) CreationTime() time.Time {
	return r.creationTime
}

func (r *channelResource) IdleDuration() time.Duration {
	return coarsetime.Since(r.lastUsedTime)
}

// channelPool is a simple, allocation-optimized connection pool using Go channels.
//
// slots holds one token per live connection, so its length is the pool size
// and a send on it reserves room for a new connection. idle holds released
// connections; it never fills up since idle connections are a subset of the
// live ones.
type channelPool struct {
	constructor func(ctx context.Context) (*Connection, error)

	idle  chan *channelResource
	slots chan struct{}

	mu     sync.Mutex
	closed bool
	done   chan struct{}

	stats poolStatsCollector
}

func (p *channelPool) Acquire(ctx context.Context) (Resource, error) {
	p.stats.recordAcquire()

	select {
	case <-p.done:
		p.stats.recordAcquireError()
		return nil, ErrPoolClosed
	default:
	}

	// Idle connections first
	select {
	case res := <-p.idle:
		p.stats.recordAcquireFromIdle()
		return res, nil
	default:
	}

	// Then a new connection if under limit
	select {
	case res := <-p.idle:
		p.stats.recordAcquireFromIdle()
		return res, nil
	case p.slots <- struct{}{}:
		return p.create(ctx)
	default:
	}

	// Pool is full, wait for a release or a destroy
	waitStart := time.Now()
	select {
	case res := <-p.idle:
		p.stats.recordAcquireWait(time.Since(waitStart))
		p.stats.recordAcquireFromIdle()
		return res, nil
	case p.slots <- struct{}{}:
		p.stats.recordAcquireWait(time.Since(waitStart))
		return p.create(ctx)
	case <-p.done:
		p.stats.recordAcquireError()
		return nil, ErrPoolClosed
	case <-ctx.Done():
		p.stats.recordAcquireError()
		return nil, ctx.Err()
	}
}

// create dials a connection for a slot already reserved.
func (p *channelPool) create(ctx context.Context) (Resource, error) {
	conn, err := p.constructor(ctx)
	if err != nil {
		<-p.slots
		p.stats.recordAcquireError()
		return nil, err
	}

	p.stats.recordCreate()

	now := coarsetime.Now()
	return &channelResource{
		conn:         conn,
		pool:         p,
		creationTime: now,
		lastUsedTime: now,
	}, nil
}

func (p *channelPool) put(res *channelResource) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		res.Destroy()
		return
	}

	select {
	case p.idle <- res:
		p.stats.recordRelease()
	default:
		res.Destroy()
	}
}

func (p *channelPool) AcquireAllIdle() []Resource {
	var idle []Resource

	for {
		select {
		case res := <-p.idle:
			p.stats.recordAcquireFromIdle()
			idle = append(idle, res)
		default:
			return idle
		}
	}
}

// Close closes the idle connections. Connections in use are closed when
// released.
func (p *channelPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	var err error
	for {
		select {
		case res := <-p.idle:
			err = multierr.Append(err, res.conn.Close())
			<-p.slots
			p.stats.recordDestroyIdle()
		default:
			return err
		}
	}
}

// Stats returns a snapshot of pool statistics.
func (p *channelPool) Stats() PoolStats {
	return p.stats.snapshot()
}
