package kvclient

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConnectTimeout is matched by every *ConnectTimeoutError.
	ErrConnectTimeout = errors.New("kvclient: connect timeout")

	// ErrUnexpectedEOF is returned when the peer closes the connection before
	// a complete response frame was received.
	ErrUnexpectedEOF = errors.New("kvclient: unexpected EOF")

	// ErrConnectionBroken is returned by every call on a connection after a
	// fatal error. It wraps the original error.
	ErrConnectionBroken = errors.New("kvclient: connection broken")

	// ErrConnectionClosed is returned after Close or a successful Shutdown.
	ErrConnectionClosed = errors.New("kvclient: connection closed")

	ErrNoServers  = errors.New("kvclient: no servers available")
	ErrPoolClosed = errors.New("kvclient: pool closed")
)

// ConnectTimeoutError reports that no connection could be established before
// the deadline, every attempt having been refused.
type ConnectTimeoutError struct {
	Addr    string
	Timeout time.Duration
	Err     error // last dial error, if any
}

func (e *ConnectTimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kvclient: connect to %s timed out after %s: %v", e.Addr, e.Timeout, e.Err)
	}
	return fmt.Sprintf("kvclient: connect to %s timed out after %s", e.Addr, e.Timeout)
}

func (e *ConnectTimeoutError) Is(target error) bool {
	return target == ErrConnectTimeout
}

func (e *ConnectTimeoutError) Unwrap() error {
	return e.Err
}

// ConnectionError wraps I/O errors from the transport.
//
// Connection handling: the stream position is unknown, CLOSE the connection.
type ConnectionError struct {
	Op  string // read, write, dial
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("kvclient: connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by errors that know whether the
// connection they happened on can still be used.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
//
// Returns true for:
//   - *ConnectionError (I/O failure)
//   - *wire.ParseError, *wire.ProtocolError
//   - ErrUnexpectedEOF, ErrConnectionBroken, ErrConnectionClosed
//
// Returns false for:
//   - *wire.ResponseError (the server refused the command)
//   - *wire.InvalidArgumentTypeError (nothing was sent)
//   - context errors returned before any I/O
//   - nil
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrConnectionBroken) || errors.Is(err, ErrConnectionClosed) || errors.Is(err, ErrUnexpectedEOF) {
		return true
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return false
}
