package kvclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pior/kvclient/internal/recvbuf"
	"github.com/pior/kvclient/wire"
)

// Connection is one client socket speaking the wire protocol.
//
// Requests can be pipelined: SendRequest may be called any number of times
// before the matching ReceiveResponse calls, and responses come back in
// request order.
//
// A Connection is not safe for concurrent use. Pools hand a connection to a
// single caller at a time.
//
// After a fatal error (I/O failure, malformed frame, early EOF) the
// connection is broken: every later call fails with ErrConnectionBroken
// without touching the socket. A *wire.ResponseError is not fatal.
type Connection struct {
	conn net.Conn
	buf  *recvbuf.Buffer
	err  error // sticky, set once the connection can no longer be used
}

// NewConnection wraps an established transport.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		conn: conn,
		buf:  recvbuf.New(4096),
	}
}

// RemoteAddr returns the address of the server.
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Err returns the error that broke the connection, or nil.
func (c *Connection) Err() error {
	return c.err
}

// Buffered returns the number of received bytes not consumed yet.
func (c *Connection) Buffered() int {
	return c.buf.Len()
}

// SendRequest encodes req and writes it fully to the socket.
//
// An argument outside Int, Float and Bytes fails with
// wire.ErrInvalidArgumentType before anything is written, and the connection
// stays usable.
func (c *Connection) SendRequest(req *wire.Request) error {
	if err := c.check(); err != nil {
		return err
	}

	if err := wire.WriteRequest(c.conn, req); err != nil {
		return c.writeError(err)
	}
	return nil
}

// ReceiveResponse returns the next response envelope, reading from the
// socket until a complete frame is buffered.
//
// An Err envelope is returned as-is; call Result to turn it into a
// *wire.ResponseError.
func (c *Connection) ReceiveResponse() (*wire.Response, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	var readErr error
	for {
		resp, n, err := wire.ParseResponse(c.buf.Pending())
		if err != nil {
			return nil, c.fail(err)
		}
		if n > 0 {
			c.buf.Consume(n)
			if resp.IsError() {
				if _, ok := resp.Value.AsBytes(); !ok {
					return nil, c.fail(&wire.ProtocolError{Message: "error response carries " + resp.Value.Kind().String()})
				}
			}
			return resp, nil
		}

		if readErr != nil {
			return nil, c.fail(c.readError(readErr))
		}

		// a read may return data together with an error: parse the data first
		_, readErr = c.buf.Fill(c.conn)
	}
}

// Send performs one request/response round trip and interprets the result.
func (c *Connection) Send(req *wire.Request) (wire.Value, error) {
	if err := c.SendRequest(req); err != nil {
		return wire.Value{}, err
	}

	resp, err := c.ReceiveResponse()
	if err != nil {
		return wire.Value{}, err
	}
	return resp.Result()
}

// Execute sends req and returns its response. The deadline of ctx applies to
// the socket.
func (c *Connection) Execute(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.check(); err != nil {
		return nil, err
	}

	defer c.watch(ctx)()

	if err := c.SendRequest(req); err != nil {
		return nil, c.contextError(ctx, err)
	}

	resp, err := c.ReceiveResponse()
	if err != nil {
		return nil, c.contextError(ctx, err)
	}
	return resp, nil
}

// ExecuteBatch pipelines reqs: every request is written in a single write,
// then the responses are read in order.
//
// Err envelopes are returned in the response slice. An invalid request fails
// the whole batch before anything is written.
func (c *Connection) ExecuteBatch(ctx context.Context, reqs []*wire.Request) ([]*wire.Response, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.check(); err != nil {
		return nil, err
	}

	defer c.watch(ctx)()

	if err := wire.WriteRequests(c.conn, reqs); err != nil {
		return nil, c.contextError(ctx, c.writeError(err))
	}

	responses := make([]*wire.Response, len(reqs))
	for i := range reqs {
		resp, err := c.ReceiveResponse()
		if err != nil {
			return nil, c.contextError(ctx, err)
		}
		responses[i] = resp
	}
	return responses, nil
}

// Shutdown asks the server to stop. The server answers by closing the
// connection: success is a clean EOF with no byte received. Any reply is a
// *wire.ProtocolError.
//
// The connection is closed when Shutdown returns.
func (c *Connection) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.check(); err != nil {
		return err
	}
	defer c.Close()
	defer c.watch(ctx)()

	if err := c.SendRequest(wire.NewRequest(wire.CmdShutdown)); err != nil {
		return c.contextError(ctx, err)
	}

	for c.buf.Len() == 0 {
		_, err := c.buf.Fill(c.conn)
		if c.buf.Len() > 0 {
			break
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return c.contextError(ctx, c.fail(&ConnectionError{Op: "read", Err: err}))
		}
	}

	return c.fail(&wire.ProtocolError{Message: fmt.Sprintf("unexpected reply to SHUTDOWN (%d bytes)", c.buf.Len())})
}

// Close closes the socket. Later calls fail with ErrConnectionClosed.
func (c *Connection) Close() error {
	if c.err == nil {
		c.err = ErrConnectionClosed
	}
	return c.conn.Close()
}

func (c *Connection) check() error {
	switch {
	case c.err == nil:
		return nil
	case errors.Is(c.err, ErrConnectionClosed):
		return ErrConnectionClosed
	default:
		return fmt.Errorf("%w: %w", ErrConnectionBroken, c.err)
	}
}

func (c *Connection) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return err
}

func (c *Connection) writeError(err error) error {
	if errors.Is(err, wire.ErrInvalidArgumentType) || errors.Is(err, wire.ErrValueTooLarge) {
		return err
	}
	return c.fail(&ConnectionError{Op: "write", Err: err})
}

func (c *Connection) readError(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: connection closed with %d bytes of an incomplete frame", ErrUnexpectedEOF, c.buf.Len())
	}
	return &ConnectionError{Op: "read", Err: err}
}

// watch applies the deadline of ctx to the socket and interrupts blocked I/O
// when ctx is canceled. The returned func undoes both.
func (c *Connection) watch(ctx context.Context) func() {
	deadline, _ := ctx.Deadline()
	_ = c.conn.SetDeadline(deadline)

	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
		close(interrupted)
	})

	return func() {
		if !stop() {
			// the interrupt already started, let it land before the reset
			<-interrupted
		}
		_ = c.conn.SetDeadline(time.Time{})
	}
}

// contextError reports ctx's error instead of the socket timeout it caused.
// The connection stays broken either way.
func (c *Connection) contextError(ctx context.Context, err error) error {
	if !ShouldCloseConnection(err) {
		return err
	}

	ctxErr := ctx.Err()
	// the socket deadline can fire before the context timer does
	if deadline, ok := ctx.Deadline(); ok && ctxErr == nil && !time.Now().Before(deadline) {
		ctxErr = context.DeadlineExceeded
	}
	if ctxErr != nil {
		return &ConnectionError{Op: "execute", Err: ctxErr}
	}
	return err
}
