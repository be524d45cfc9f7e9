// Package kvtest runs an in-process server speaking the wire protocol, for
// tests of the client.
package kvtest

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pior/kvclient/internal/recvbuf"
	"github.com/pior/kvclient/wire"
)

// Server accepts connections and executes requests against a Store.
type Server struct {
	ln     net.Listener
	store  *Store
	logger *zap.Logger

	chunkSize  int
	chunkDelay time.Duration

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

type Option func(*Server)

// WithFragmentation makes the server write responses in chunks of size
// bytes, sleeping delay between chunks, so that frames reach the client
// split at arbitrary offsets.
func WithFragmentation(size int, delay time.Duration) Option {
	return func(s *Server) {
		s.chunkSize = size
		s.chunkDelay = delay
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore shares a store between servers.
func WithStore(store *Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// Listen starts a server on addr ("127.0.0.1:0" picks a free port).
func Listen(addr string, opts ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln:     ln,
		store:  NewStore(),
		logger: zap.NewNop(),
		conns:  make(map[net.Conn]struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Start starts a server on a free local port and closes it when the test
// ends.
func Start(tb testing.TB, opts ...Option) *Server {
	tb.Helper()

	s, err := Listen("127.0.0.1:0", opts...)
	if err != nil {
		tb.Fatalf("kvtest: listen: %v", err)
	}
	tb.Cleanup(func() { _ = s.Close() })
	return s
}

// FreeAddr returns a local address nobody listens on, for tests that start a
// server late.
func FreeAddr(tb testing.TB) string {
	tb.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("kvtest: listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) Store() *Store {
	return s.store
}

// Done is closed once the server stopped, after Close or a SHUTDOWN request.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Close stops the listener, closes every connection and waits for the
// handlers to return.
func (s *Server) Close() error {
	err := s.stop()
	s.wg.Wait()
	return err
}

func (s *Server) stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)

	err := s.ln.Close()
	for conn := range s.conns {
		_ = conn.Close()
	}
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("accept failed", zap.Error(err))
			}
			return
		}

		if !s.track(conn) {
			_ = conn.Close()
			return
		}

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	logger := s.logger.With(zap.String("remote", conn.RemoteAddr().String()))
	buf := recvbuf.New(4096)
	var out []byte

	for {
		// whatever is left in buf is an incomplete request
		_, readErr := buf.Fill(conn)

		// pipelined requests are answered together, in order
		for {
			req, n, err := wire.ParseRequest(buf.Pending())
			if err != nil {
				logger.Warn("malformed request, closing connection", zap.Error(err))
				return
			}
			if n == 0 {
				break
			}
			buf.Consume(n)

			if req.Command == wire.CmdShutdown {
				s.flush(conn, out)
				logger.Info("shutdown requested")
				_ = s.stop()
				return
			}

			status, v := s.store.Exec(req)
			if out, err = wire.AppendResponse(out, status, v); err != nil {
				logger.Error("encoding response", zap.Error(err))
				return
			}
		}

		if err := s.flush(conn, out); err != nil {
			logger.Debug("write failed", zap.Error(err))
			return
		}
		out = out[:0]

		if readErr != nil {
			return
		}
	}
}

func (s *Server) flush(conn net.Conn, out []byte) error {
	if s.chunkSize <= 0 {
		if len(out) == 0 {
			return nil
		}
		_, err := conn.Write(out)
		return err
	}

	for len(out) > 0 {
		n := min(s.chunkSize, len(out))
		if _, err := conn.Write(out[:n]); err != nil {
			return err
		}
		out = out[n:]
		if len(out) > 0 {
			time.Sleep(s.chunkDelay)
		}
	}
	return nil
}
