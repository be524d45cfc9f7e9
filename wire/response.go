package wire

// Response is one decoded response envelope.
type Response struct {
	Status Status
	Value  Value
}

// Result interprets the envelope.
//
// An Ok envelope yields its value. An Err envelope carrying Bytes yields a
// *ResponseError: the server refused the command but the stream is intact.
// An Err envelope carrying anything else is a *ProtocolError.
func (r *Response) Result() (Value, error) {
	switch r.Status {
	case StatusOK:
		return r.Value, nil
	case StatusErr:
		msg, ok := r.Value.Text()
		if !ok {
			return Value{}, &ProtocolError{Message: "error response carries " + r.Value.kind.String() + ", expected bytes"}
		}
		return Value{}, &ResponseError{Message: msg}
	default:
		return Value{}, &ProtocolError{Message: "unknown status " + r.Status.String()}
	}
}

// IsError reports whether the server answered with an Err envelope.
func (r *Response) IsError() bool {
	return r.Status == StatusErr
}
