// Package recvbuf holds the bytes read from a connection until the decoder
// has consumed them.
package recvbuf

import "io"

// LowWater is the minimum free space guaranteed before each read.
const LowWater = 1024

// Buffer is a single growable byte slice with two cursors: data[start:end]
// is received but not yet consumed, data[end:] is free space for the next
// read.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	data  []byte
	start int
	end   int
}

// New returns a buffer with an initial capacity of size bytes. A size below
// LowWater is raised to LowWater.
func New(size int) *Buffer {
	return &Buffer{data: make([]byte, max(size, LowWater))}
}

// Pending returns the received bytes not consumed yet. The slice is only
// valid until the next Fill or Consume.
func (b *Buffer) Pending() []byte {
	return b.data[b.start:b.end]
}

// Len returns the number of pending bytes.
func (b *Buffer) Len() int {
	return b.end - b.start
}

// Cap returns the size of the backing slice.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Consume marks the first n pending bytes as used.
func (b *Buffer) Consume(n int) {
	if n < 0 || n > b.Len() {
		panic("recvbuf: consume out of range")
	}
	b.start += n
	if b.start == b.end {
		b.start, b.end = 0, 0
	}
}

// Fill performs exactly one Read from r into the free space, making room
// first when less than LowWater bytes are free. Pending bytes are preserved.
func (b *Buffer) Fill(r io.Reader) (int, error) {
	b.reserve()
	n, err := r.Read(b.data[b.end:])
	if n > 0 {
		b.end += n
	}
	return n, err
}

// Reset drops every pending byte.
func (b *Buffer) Reset() {
	b.start, b.end = 0, 0
}

func (b *Buffer) reserve() {
	if len(b.data)-b.end >= LowWater {
		return
	}

	// move the unconsumed suffix to the front
	if b.start > 0 {
		n := copy(b.data, b.data[b.start:b.end])
		b.start, b.end = 0, n
		if len(b.data)-b.end >= LowWater {
			return
		}
	}

	grown := make([]byte, len(b.data)+max(len(b.data), LowWater))
	copy(grown, b.data[:b.end])
	b.data = grown
}
