package testutils

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"
)

// ConnectionMock is a mock implementation of net.Conn for testing.
//
// Reads replay the scripted chunks one at a time, so a test controls exactly
// how the response stream is fragmented. Once the chunks are exhausted Read
// returns io.EOF.
type ConnectionMock struct {
	mu       sync.Mutex
	chunks   [][]byte
	writeBuf bytes.Buffer
	writes   int
	closed   bool
	deadline time.Time

	// ReadErr, when set, is returned instead of io.EOF after the last chunk.
	ReadErr error

	// WriteErr, when set, fails every Write.
	WriteErr error

	// OnSetDeadline, when set, runs before each deadline change is stored.
	OnSetDeadline func(t time.Time)
}

// NewConnectionMock creates a new mock connection returning each chunk from
// a separate Read call.
func NewConnectionMock(chunks ...[]byte) *ConnectionMock {
	return &ConnectionMock{chunks: chunks}
}

// NewConnectionMockBytes splits data into chunks of size bytes.
func NewConnectionMockBytes(data []byte, size int) *ConnectionMock {
	var chunks [][]byte
	for len(data) > 0 {
		n := min(size, len(data))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return NewConnectionMock(chunks...)
}

func (m *ConnectionMock) Read(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, net.ErrClosed
	}

	for len(m.chunks) > 0 && len(m.chunks[0]) == 0 {
		m.chunks = m.chunks[1:]
	}
	if len(m.chunks) == 0 {
		if m.ReadErr != nil {
			return 0, m.ReadErr
		}
		return 0, io.EOF
	}

	n = copy(b, m.chunks[0])
	m.chunks[0] = m.chunks[0][n:]
	return n, nil
}

func (m *ConnectionMock) Write(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, net.ErrClosed
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.writes++
	return m.writeBuf.Write(b)
}

func (m *ConnectionMock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 7000}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error {
	if m.OnSetDeadline != nil {
		m.OnSetDeadline(t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadline = t
	return nil
}

func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return m.SetDeadline(t) }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return m.SetDeadline(t) }

// Written returns the raw bytes written to the mock connection.
func (m *ConnectionMock) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.writeBuf.Bytes())
}

// Writes returns the number of Write calls.
func (m *ConnectionMock) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *ConnectionMock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Deadline returns the last deadline set.
func (m *ConnectionMock) Deadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deadline
}
