package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ParseValue parses one value from the front of b.
//
// Results:
//   - complete value: v, n > 0 (bytes consumed), nil
//   - b holds only a prefix of a value: Value{}, 0, nil
//   - b is malformed: Value{}, 0, *ParseError
//
// The incomplete result follows the bufio.SplitFunc convention: nothing is
// consumed and the caller retries the identical call once more bytes have
// been appended. A failed attempt has no side effects, so retrying from the
// start of the same slice is always valid.
//
// The returned value never aliases b.
func ParseValue(b []byte) (v Value, n int, err error) {
	p := parser{data: b}
	v, complete, err := p.value()
	if err != nil || !complete {
		return Value{}, 0, err
	}
	return v, p.off, nil
}

// ParseResponse parses one response envelope from the front of b, with the
// same result convention as ParseValue.
//
// Format: <status> <value>
func ParseResponse(b []byte) (resp *Response, n int, err error) {
	if len(b) == 0 {
		return nil, 0, nil
	}

	status := Status(b[0])
	if status != StatusOK && status != StatusErr {
		return nil, 0, &ParseError{Offset: 0, Message: fmt.Sprintf("unknown status 0x%02x", b[0])}
	}

	p := parser{data: b, off: 1}
	v, complete, err := p.value()
	if err != nil || !complete {
		return nil, 0, err
	}
	return &Response{Status: status, Value: v}, p.off, nil
}

// ParseRequest parses one request frame from the front of b, with the same
// result convention as ParseValue. The number of arguments is taken from the
// catalog arity of the command code.
//
// Format: <command code> <arg>*
func ParseRequest(b []byte) (req *Request, n int, err error) {
	if len(b) == 0 {
		return nil, 0, nil
	}

	cmd := CmdType(b[0])
	info, ok := cmd.Info()
	if !ok {
		return nil, 0, &ParseError{Offset: 0, Message: fmt.Sprintf("unknown command code %d", b[0])}
	}

	p := parser{data: b, off: 1}
	args := make([]Value, 0, info.Arity)
	for range info.Arity {
		if p.off < len(b) {
			switch Tag(b[p.off]) {
			case TagInt, TagFloat, TagBytes:
			default:
				return nil, 0, &ParseError{Offset: p.off, Message: fmt.Sprintf("tag 0x%02x not allowed as argument", b[p.off])}
			}
		}

		v, complete, err := p.value()
		if err != nil || !complete {
			return nil, 0, err
		}
		args = append(args, v)
	}
	return &Request{Command: cmd, Args: args}, p.off, nil
}

// Incomplete reports whether a Parse* result means more data is needed.
func Incomplete(n int, err error) bool {
	return n == 0 && err == nil
}

type parser struct {
	data []byte
	off  int
}

func (p *parser) has(n int) bool {
	return len(p.data)-p.off >= n
}

// value parses the value at p.off. complete is false when the data ends
// before the value does; p.off is then meaningless and must be discarded.
func (p *parser) value() (v Value, complete bool, err error) {
	if !p.has(tagSize) {
		return Value{}, false, nil
	}

	tagOff := p.off
	tag := Tag(p.data[p.off])
	p.off += tagSize

	switch tag {
	case TagNil:
		return Value{}, true, nil

	case TagTrue:
		return Bool(true), true, nil

	case TagFalse:
		return Bool(false), true, nil

	case TagInt, TagFloat:
		if !p.has(intSize) {
			return Value{}, false, nil
		}
		kind := KindInt
		if tag == TagFloat {
			kind = KindFloat
		}
		v = Value{kind: kind, num: binary.LittleEndian.Uint64(p.data[p.off:])}
		p.off += intSize
		return v, true, nil

	case TagBytes:
		size, complete, err := p.length()
		if err != nil || !complete {
			return Value{}, complete, err
		}
		if !p.has(size) {
			return Value{}, false, nil
		}
		v = Value{kind: KindBytes, bytes: bytes.Clone(p.data[p.off : p.off+size])}
		p.off += size
		return v, true, nil

	case TagArray:
		count, complete, err := p.length()
		if err != nil || !complete {
			return Value{}, complete, err
		}
		// every element takes at least one byte, so the remaining data bounds
		// the allocation whatever the declared count
		elems := make([]Value, 0, min(count, len(p.data)-p.off))
		for range count {
			e, complete, err := p.value()
			if err != nil || !complete {
				return Value{}, complete, err
			}
			elems = append(elems, e)
		}
		return Value{kind: KindArray, array: elems}, true, nil

	default:
		return Value{}, false, errUnknownTag(tagOff, byte(tag))
	}
}

// length reads a 32-bit length field and checks it against MaxLength.
func (p *parser) length() (n int, complete bool, err error) {
	if !p.has(lengthSize) {
		return 0, false, nil
	}
	raw := binary.LittleEndian.Uint32(p.data[p.off:])
	if raw > MaxLength {
		return 0, false, &ParseError{Offset: p.off, Message: fmt.Sprintf("declared length %d exceeds limit %d", raw, MaxLength)}
	}
	p.off += lengthSize
	return int(raw), true, nil
}
