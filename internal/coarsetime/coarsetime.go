// Package coarsetime provides a clock refreshed every 50ms, for timestamps
// read on every pool operation but only compared against minutes-long limits.
package coarsetime

import (
	"sync"
	"sync/atomic"
	"time"
)

// Resolution is the refresh period of the clock.
const Resolution = 50 * time.Millisecond

var (
	now     atomic.Int64 // unix nanoseconds
	started sync.Once
)

// Now returns the current time, at most Resolution old. The refresh goroutine
// starts on the first call.
func Now() time.Time {
	started.Do(run)
	return time.Unix(0, now.Load())
}

// Since is time.Since at the clock's resolution.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

func run() {
	now.Store(time.Now().UnixNano())

	ticker := time.NewTicker(Resolution)
	go func() {
		for t := range ticker.C {
			now.Store(t.UnixNano())
		}
	}()
}
