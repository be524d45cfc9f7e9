package wire

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidArgumentType is matched by every *InvalidArgumentTypeError.
	ErrInvalidArgumentType = errors.New("wire: invalid argument type")

	// ErrValueTooLarge is returned when a Bytes payload or an Array does not
	// fit the 32-bit length field.
	ErrValueTooLarge = errors.New("wire: value too large to encode")
)

// InvalidArgumentTypeError reports a request argument outside the encodable
// set (Int, Float, Bytes). It is raised before any byte is written.
type InvalidArgumentTypeError struct {
	Index int    // position of the argument in the request
	Type  string // wire kind or Go type of the offending argument
}

func (e *InvalidArgumentTypeError) Error() string {
	return "wire: invalid argument type " + e.Type + " at position " + strconv.Itoa(e.Index)
}

func (e *InvalidArgumentTypeError) Is(target error) bool {
	return target == ErrInvalidArgumentType
}

// ShouldCloseConnection returns false: the request is rejected before any
// byte is written.
func (e *InvalidArgumentTypeError) ShouldCloseConnection() bool {
	return false
}

// ParseError reports a structurally invalid stream: unknown tag or status
// byte, or a declared length that cannot be honoured.
//
// The grammar carries no outer frame length, so a stream cannot be
// resynchronized after a ParseError. The connection must be closed.
type ParseError struct {
	Offset  int // offset of the offending byte in the parsed slice
	Message string
}

func (e *ParseError) Error() string {
	return "wire: parse error at offset " + strconv.Itoa(e.Offset) + ": " + e.Message
}

// ShouldCloseConnection returns true: the rest of the stream is unreadable.
func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// ProtocolError reports a frame that parsed correctly but does not have the
// expected shape, e.g. an Err envelope whose payload is not Bytes, or an Int
// where a Bool was due.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "wire: protocol error: " + e.Message
}

// ShouldCloseConnection returns true: client and server disagree on the
// protocol.
func (e *ProtocolError) ShouldCloseConnection() bool {
	return true
}

// ResponseError is an error reported by the server in an Err envelope. The
// stream is intact and the connection stays usable.
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string {
	return "server error: " + e.Message
}

// ShouldCloseConnection returns false: the frame was read in full.
func (e *ResponseError) ShouldCloseConnection() bool {
	return false
}

func errUnknownTag(offset int, tag byte) *ParseError {
	return &ParseError{Offset: offset, Message: fmt.Sprintf("unknown tag 0x%02x", tag)}
}
