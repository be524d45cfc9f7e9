package wire

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindBytes
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a protocol value: Nil, Bool, Int, Float, Bytes or Array.
//
// The zero Value is Nil. Values are immutable once built; the constructors
// copy their input and the decoder never aliases the buffer it parses, so a
// Value can be kept after the bytes it was decoded from are reused.
type Value struct {
	kind  Kind
	num   uint64 // bool (0/1), int64 bits or float64 bits
	bytes []byte
	array []Value
}

func Nil() Value { return Value{} }

func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

func Int(i int64) Value { return Value{kind: KindInt, num: uint64(i)} }

func Float(f float64) Value { return Value{kind: KindFloat, num: math.Float64bits(f)} }

// Bytes returns a Bytes value holding a copy of b.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, bytes: bytes.Clone(nonNil(b))}
}

// String returns a Bytes value holding the bytes of s, sent as-is (UTF-8 for
// Go string literals, no validation or transcoding).
func String(s string) Value {
	return Value{kind: KindBytes, bytes: []byte(s)}
}

// Array returns an Array value holding elems in order.
func Array(elems ...Value) Value {
	arr := make([]Value, len(elems))
	copy(arr, elems)
	return Value{kind: KindArray, array: arr}
}

// Strings is a shortcut for an Array of Bytes values.
func Strings(ss ...string) Value {
	arr := make([]Value, len(ss))
	for i, s := range ss {
		arr[i] = String(s)
	}
	return Value{kind: KindArray, array: arr}
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) AsBool() (b bool, ok bool) {
	return v.num == 1, v.kind == KindBool
}

func (v Value) AsInt() (i int64, ok bool) {
	return int64(v.num), v.kind == KindInt
}

func (v Value) AsFloat() (f float64, ok bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return math.Float64frombits(v.num), true
}

// AsBytes returns the payload of a Bytes value. The slice must not be
// modified.
func (v Value) AsBytes() (b []byte, ok bool) {
	return v.bytes, v.kind == KindBytes
}

// AsArray returns the elements of an Array value. The slice must not be
// modified.
func (v Value) AsArray() (elems []Value, ok bool) {
	return v.array, v.kind == KindArray
}

// Text returns the payload of a Bytes value as a string.
func (v Value) Text() (s string, ok bool) {
	if v.kind != KindBytes {
		return "", false
	}
	return string(v.bytes), true
}

// Len returns the payload length of a Bytes value or the element count of an
// Array value, and 0 for any other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindBytes:
		return len(v.bytes)
	case KindArray:
		return len(v.array)
	default:
		return 0
	}
}

// Equal reports whether a and b have the same kind and content. Floats are
// compared bit for bit, so NaN equals itself and 0.0 differs from -0.0.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool, KindInt, KindFloat:
		return a.num == b.num
	case KindBytes:
		return bytes.Equal(a.bytes, b.bytes)
	case KindArray:
		if len(a.array) != len(b.array) {
			return false
		}
		for i := range a.array {
			if !Equal(a.array[i], b.array[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v for debugging: nil, true, 42, 4.5, "abc", [1 "a"].
func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	switch v.kind {
	case KindNil:
		sb.WriteString("nil")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.num == 1))
	case KindInt:
		sb.WriteString(strconv.FormatInt(int64(v.num), 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(math.Float64frombits(v.num), 'g', -1, 64))
	case KindBytes:
		sb.WriteString(strconv.Quote(string(v.bytes)))
	case KindArray:
		sb.WriteByte('[')
		for i, e := range v.array {
			if i > 0 {
				sb.WriteByte(' ')
			}
			e.format(sb)
		}
		sb.WriteByte(']')
	default:
		fmt.Fprintf(sb, "<%s>", v.kind)
	}
}

// Pair is one key/value entry of a flattened array such as an HGETALL reply.
type Pair struct {
	Key   []byte
	Value Value
}

// ScoredMember is one entry of a ZQUERY reply.
type ScoredMember struct {
	Member []byte
	Score  float64
}

// Pairs splits a flattened [k1, v1, k2, v2, ...] array into pairs, keeping
// the server order. Keys must be Bytes values.
func Pairs(v Value) ([]Pair, error) {
	elems, ok := v.AsArray()
	if !ok {
		return nil, &ProtocolError{Message: "expected array, got " + v.kind.String()}
	}
	if len(elems)%2 != 0 {
		return nil, &ProtocolError{Message: "flattened array has odd length " + strconv.Itoa(len(elems))}
	}

	pairs := make([]Pair, 0, len(elems)/2)
	for i := 0; i < len(elems); i += 2 {
		key, ok := elems[i].AsBytes()
		if !ok {
			return nil, &ProtocolError{Message: "pair key is " + elems[i].kind.String() + ", expected bytes"}
		}
		pairs = append(pairs, Pair{Key: key, Value: elems[i+1]})
	}
	return pairs, nil
}

// ScoredMembers splits a flattened [member, score, ...] array.
func ScoredMembers(v Value) ([]ScoredMember, error) {
	pairs, err := Pairs(v)
	if err != nil {
		return nil, err
	}

	out := make([]ScoredMember, len(pairs))
	for i, p := range pairs {
		score, ok := p.Value.AsFloat()
		if !ok {
			return nil, &ProtocolError{Message: "score is " + p.Value.kind.String() + ", expected float"}
		}
		out[i] = ScoredMember{Member: p.Key, Score: score}
	}
	return out, nil
}
