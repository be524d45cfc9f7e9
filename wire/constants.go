package wire

// Tag is the one-byte type marker that precedes every encoded value.
type Tag byte

// Value tags. The numbering is part of the wire contract and must not change.
const (
	TagNil   Tag = 0
	TagTrue  Tag = 1
	TagFalse Tag = 2
	TagInt   Tag = 3
	TagFloat Tag = 4
	TagBytes Tag = 5
	TagArray Tag = 6
)

// Status is the first byte of every response envelope.
type Status byte

const (
	// StatusOK is followed by the result value.
	StatusOK Status = 0

	// StatusErr is followed by a Bytes value holding a human-readable message.
	StatusErr Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusErr:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// Field widths
const (
	tagSize    = 1
	intSize    = 8
	floatSize  = 8
	lengthSize = 4
)

// MaxLength bounds declared Bytes lengths and Array counts. A larger
// declaration is treated as a corrupted stream rather than a request to
// buffer gigabytes.
const MaxLength = 64 << 20
