package wire

import (
	"fmt"
	"math"
)

// Request is one command code and its positional arguments.
//
// Arguments must be Int, Float or Bytes values. Requests carry no length
// and no argument count: the server reads as many arguments as the catalog
// arity of the command says, so a request with the wrong number of arguments
// desynchronizes the stream. Use Validate when the arguments come from user
// input.
type Request struct {
	Command CmdType
	Args    []Value
}

// NewRequest creates a request.
//
// Usage:
//
//	req := NewRequest(CmdSet, String("counter"), Int(42))
//	req = NewRequest(CmdZAdd, String("scores"), Float(4.5), String("alice"))
//	req = NewRequest(CmdKeys)
func NewRequest(cmd CmdType, args ...Value) *Request {
	return &Request{
		Command: cmd,
		Args:    args,
	}
}

// Validate checks the command code against the catalog, the argument count
// against its arity and each argument kind against the encodable set.
func (r *Request) Validate() error {
	info, ok := r.Command.Info()
	if !ok {
		return fmt.Errorf("wire: unknown command code %d", uint8(r.Command))
	}
	if len(r.Args) != info.Arity {
		return fmt.Errorf("wire: %s takes %d arguments, got %d", info.Name, info.Arity, len(r.Args))
	}
	return checkArgs(r.Args)
}

func checkArgs(args []Value) error {
	for i, a := range args {
		if !isArgKind(a.kind) {
			return &InvalidArgumentTypeError{Index: i, Type: a.kind.String()}
		}
	}
	return nil
}

func isArgKind(k Kind) bool {
	return k == KindInt || k == KindFloat || k == KindBytes
}

// ArgsOf converts Go values to request arguments.
//
// Accepted: Value (Int, Float or Bytes kind), string, []byte, all signed
// integer types, unsigned integer types up to math.MaxInt64, float32 and
// float64. Anything else fails with an *InvalidArgumentTypeError.
func ArgsOf(values ...any) ([]Value, error) {
	args := make([]Value, len(values))
	for i, raw := range values {
		v, ok := argOf(raw)
		if !ok {
			return nil, &InvalidArgumentTypeError{Index: i, Type: typeName(raw)}
		}
		args[i] = v
	}
	return args, nil
}

func argOf(raw any) (Value, bool) {
	switch x := raw.(type) {
	case Value:
		return x, isArgKind(x.kind)
	case string:
		return String(x), true
	case []byte:
		return Bytes(x), true
	case int:
		return Int(int64(x)), true
	case int8:
		return Int(int64(x)), true
	case int16:
		return Int(int64(x)), true
	case int32:
		return Int(int64(x)), true
	case int64:
		return Int(x), true
	case uint:
		return uintArg(uint64(x))
	case uint8:
		return Int(int64(x)), true
	case uint16:
		return Int(int64(x)), true
	case uint32:
		return Int(int64(x)), true
	case uint64:
		return uintArg(x)
	case float32:
		return Float(float64(x)), true
	case float64:
		return Float(x), true
	default:
		return Value{}, false
	}
}

func uintArg(u uint64) (Value, bool) {
	if u > math.MaxInt64 {
		return Value{}, false
	}
	return Int(int64(u)), true
}

func typeName(raw any) string {
	switch x := raw.(type) {
	case nil:
		return "nil"
	case Value:
		return x.kind.String()
	case uint, uint64:
		return fmt.Sprintf("%T(out of int64 range)", raw)
	default:
		return fmt.Sprintf("%T", raw)
	}
}

// String renders the request for logs: SET "abc" 42.
func (r *Request) String() string {
	s := r.Command.String()
	for _, a := range r.Args {
		s += " " + a.String()
	}
	return s
}

// size returns the encoded length of the request.
func (r *Request) size() int {
	n := 1
	for _, a := range r.Args {
		n += encodedSize(a)
	}
	return n
}
