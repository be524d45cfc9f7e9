package kvclient

import (
	"time"

	"github.com/pior/kvclient/wire"
)

// TTL reply sentinels.
const (
	ttlMissing    = -2
	ttlPersistent = -1
)

// TTLInfo is the decoded reply of a TTL command.
type TTLInfo struct {
	Exists     bool          // false if the key does not exist
	Persistent bool          // true if the key exists without expiration
	Remaining  time.Duration // time left when the key expires
}

func ttlInfoFromMillis(ms int64) TTLInfo {
	switch {
	case ms == ttlMissing:
		return TTLInfo{}
	case ms == ttlPersistent:
		return TTLInfo{Exists: true, Persistent: true}
	default:
		return TTLInfo{Exists: true, Remaining: time.Duration(ms) * time.Millisecond}
	}
}

// Entry is a key and the value to store at it.
type Entry struct {
	Key   string
	Value wire.Value
}

// Result is the outcome of one request of a pipeline: either a value or the
// *wire.ResponseError the server answered with.
type Result struct {
	Value wire.Value
	Err   error
}
