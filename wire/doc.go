// Package wire implements the binary encoding of the key-value protocol.
//
// Every value is a one-byte tag followed by a fixed or length-prefixed
// payload:
//
//	Nil    0x00
//	True   0x01
//	False  0x02
//	Int    0x03 <int64 LE>
//	Float  0x04 <float64 LE>
//	Bytes  0x05 <uint32 LE length> <bytes>
//	Array  0x06 <uint32 LE count> <value>*
//
// A request is a command code byte followed by the arguments of the command.
// A response is a status byte (0 ok, 1 error) followed by one value.
//
// Frames carry no outer length, so the decoder works incrementally: the
// Parse functions either return a complete frame with the number of bytes it
// used, or report that more data is needed without consuming anything.
//
//	resp, n, err := wire.ParseResponse(buf)
//	switch {
//	case err != nil:
//		// corrupted stream, drop the connection
//	case wire.Incomplete(n, err):
//		// read more and retry
//	default:
//		buf = buf[n:]
//	}
package wire
