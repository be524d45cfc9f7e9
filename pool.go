package kvclient

import (
	"context"
	"time"
)

// Pool hands out connections to one server.
type Pool interface {
	// Acquire returns an idle connection, dials a new one if the pool is not
	// full, or waits for a release until ctx is done.
	Acquire(ctx context.Context) (Resource, error)

	// AcquireAllIdle takes every idle connection out of the pool, for health
	// checks. Each one must be released or destroyed.
	AcquireAllIdle() []Resource

	// Close closes the idle connections and makes later Acquire calls fail.
	Close() error

	Stats() PoolStats
}

// Resource is a connection checked out of a Pool.
type Resource interface {
	Value() *Connection

	// Release returns the connection to the pool.
	Release()

	// ReleaseUnused returns the connection without refreshing its idle time.
	ReleaseUnused()

	// Destroy closes the connection and frees its slot.
	Destroy()

	CreationTime() time.Time
	IdleDuration() time.Duration
}

// PoolFactory creates a pool of at most maxSize connections built by
// constructor.
type PoolFactory func(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error)

// releaseOrDestroy gives a connection back after use, destroying it when err
// left it unusable.
func releaseOrDestroy(res Resource, err error) {
	if ShouldCloseConnection(err) || res.Value().Err() != nil {
		res.Destroy()
		return
	}
	res.Release()
}
