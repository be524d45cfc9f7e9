package kvclient

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultPollInterval   = 10 * time.Millisecond
)

// Dialer opens connections, retrying while the server is not listening yet.
//
// A refused connection (ECONNREFUSED) is retried every PollInterval until
// Timeout has elapsed since the first attempt. Any other dial error fails
// immediately.
type Dialer struct {
	// Timeout bounds the whole retry loop. Zero means DefaultConnectTimeout.
	Timeout time.Duration

	// PollInterval is the pause between refused attempts. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration

	// NetDialer performs each attempt. If nil, a zero net.Dialer is used.
	NetDialer *net.Dialer

	Logger *zap.Logger
}

// Connect dials addr over TCP with the default poll interval.
func Connect(addr string, timeout time.Duration) (*Connection, error) {
	d := &Dialer{Timeout: timeout}
	return d.Dial(context.Background(), addr)
}

// Dial connects to addr over TCP.
//
// Fails with a *ConnectTimeoutError (matching ErrConnectTimeout) when every
// attempt was refused until the timeout, or with ctx's error when ctx ends
// first.
func (d *Dialer) Dial(ctx context.Context, addr string) (*Connection, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	interval := d.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	netDialer := d.NetDialer
	if netDialer == nil {
		netDialer = &net.Dialer{}
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	deadline, _ := dialCtx.Deadline()

	// The socket carries the same deadline as dialCtx and can expire before
	// the context timer fires, so the clock decides, not dialCtx.Err().
	expired := func() bool {
		return dialCtx.Err() != nil || !time.Now().Before(deadline)
	}

	timedOut := func(lastErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if parent, ok := ctx.Deadline(); ok && !parent.After(deadline) {
			return context.DeadlineExceeded
		}
		logger.Warn("Connect timed out", zap.String("addr", addr), zap.Duration("timeout", timeout))
		return &ConnectTimeoutError{Addr: addr, Timeout: timeout, Err: lastErr}
	}

	for attempt := 1; ; attempt++ {
		netConn, err := netDialer.DialContext(dialCtx, "tcp", addr)
		if err == nil {
			if attempt > 1 {
				logger.Debug("Connected", zap.String("addr", addr), zap.Int("attempts", attempt))
			}
			return NewConnection(netConn), nil
		}

		if expired() {
			return nil, timedOut(err)
		}
		if !errors.Is(err, syscall.ECONNREFUSED) {
			return nil, &ConnectionError{Op: "dial", Err: err}
		}

		logger.Debug("Connection refused, retrying",
			zap.String("addr", addr),
			zap.Int("attempt", attempt),
			zap.Duration("interval", interval))

		select {
		case <-time.After(interval):
		case <-dialCtx.Done():
			return nil, timedOut(err)
		}
	}
}
