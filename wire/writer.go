package wire

import (
	"encoding/binary"
	"io"
	"math"
	"slices"
	"sync"
)

// Buffer pool for building requests
var bufferPool = sync.Pool{
	New: func() any {
		// Most requests are a short key plus a small value
		b := make([]byte, 0, 256)
		return &b
	},
}

// pooled buffers above this size are dropped instead of being kept alive
const maxPooledBuffer = 64 << 10

// AppendValue appends the encoding of v to dst.
//
// Format: <tag> [<payload>]
//
//	Nil:    0x00
//	Bool:   0x01 (true) | 0x02 (false)
//	Int:    0x03 <int64 LE>
//	Float:  0x04 <float64 LE>
//	Bytes:  0x05 <uint32 LE length> <bytes>
//	Array:  0x06 <uint32 LE count> <value>*
//
// Returns ErrValueTooLarge if a Bytes payload or an Array is longer than
// math.MaxUint32.
func AppendValue(dst []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindNil:
		return append(dst, byte(TagNil)), nil

	case KindBool:
		if v.num == 1 {
			return append(dst, byte(TagTrue)), nil
		}
		return append(dst, byte(TagFalse)), nil

	case KindInt:
		dst = append(dst, byte(TagInt))
		return binary.LittleEndian.AppendUint64(dst, v.num), nil

	case KindFloat:
		dst = append(dst, byte(TagFloat))
		return binary.LittleEndian.AppendUint64(dst, v.num), nil

	case KindBytes:
		if uint64(len(v.bytes)) > math.MaxUint32 {
			return dst, ErrValueTooLarge
		}
		dst = append(dst, byte(TagBytes))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.bytes)))
		return append(dst, v.bytes...), nil

	case KindArray:
		if uint64(len(v.array)) > math.MaxUint32 {
			return dst, ErrValueTooLarge
		}
		dst = append(dst, byte(TagArray))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.array)))
		var err error
		for _, e := range v.array {
			if dst, err = AppendValue(dst, e); err != nil {
				return dst, err
			}
		}
		return dst, nil

	default:
		return dst, &InvalidArgumentTypeError{Type: v.kind.String()}
	}
}

// encodedSize returns the number of bytes AppendValue writes for v.
func encodedSize(v Value) int {
	switch v.kind {
	case KindInt, KindFloat:
		return tagSize + intSize
	case KindBytes:
		return tagSize + lengthSize + len(v.bytes)
	case KindArray:
		n := tagSize + lengthSize
		for _, e := range v.array {
			n += encodedSize(e)
		}
		return n
	default:
		return tagSize
	}
}

// AppendRequest appends the encoding of req to dst.
//
// Format: <command code> <arg>*
//
// There is no frame length: the end of the frame is where the last argument
// ends. Arguments are checked before anything is appended, so on error dst is
// returned unchanged.
func AppendRequest(dst []byte, req *Request) ([]byte, error) {
	if err := checkArgs(req.Args); err != nil {
		return dst, err
	}

	start := len(dst)
	dst = slices.Grow(dst, req.size())
	dst = append(dst, byte(req.Command))

	var err error
	for _, a := range req.Args {
		if dst, err = AppendValue(dst, a); err != nil {
			return dst[:start], err
		}
	}
	return dst, nil
}

// AppendResponse appends a response envelope to dst.
//
// Format: <status> <value>
func AppendResponse(dst []byte, status Status, v Value) ([]byte, error) {
	start := len(dst)
	dst = append(dst, byte(status))
	dst, err := AppendValue(dst, v)
	if err != nil {
		return dst[:start], err
	}
	return dst, nil
}

// WriteRequest encodes req and writes it to w in a single Write call.
//
// Invalid arguments are reported before anything is written.
func WriteRequest(w io.Writer, req *Request) error {
	bp := bufferPool.Get().(*[]byte)
	defer putBuffer(bp)

	buf, err := AppendRequest((*bp)[:0], req)
	if err != nil {
		return err
	}
	*bp = buf

	_, err = w.Write(buf)
	return err
}

// WriteRequests encodes reqs back to back and writes them in a single Write
// call. Nothing is written if any request is invalid.
func WriteRequests(w io.Writer, reqs []*Request) error {
	bp := bufferPool.Get().(*[]byte)
	defer putBuffer(bp)

	buf := (*bp)[:0]
	var err error
	for _, req := range reqs {
		if buf, err = AppendRequest(buf, req); err != nil {
			return err
		}
	}
	*bp = buf

	_, err = w.Write(buf)
	return err
}

func putBuffer(bp *[]byte) {
	if cap(*bp) > maxPooledBuffer {
		return
	}
	*bp = (*bp)[:0]
	bufferPool.Put(bp)
}
