package kvclient

import (
	"context"
	"time"

	"github.com/pior/kvclient/wire"
)

// Executor executes a single request.
type Executor interface {
	Execute(ctx context.Context, req *wire.Request) (*wire.Response, error)
}

// BatchExecutor pipelines several requests, returning the responses in
// request order.
type BatchExecutor interface {
	Executor
	ExecuteBatch(ctx context.Context, reqs []*wire.Request) ([]*wire.Response, error)
}

var (
	_ BatchExecutor = (*Connection)(nil)
	_ BatchExecutor = (*Client)(nil)
	_ BatchExecutor = (*ServerPool)(nil)
)

// Commands provides one typed method per command of the catalog.
//
// Server errors (wrong type, bad argument) come back as *wire.ResponseError.
// A reply of the wrong shape is a *wire.ProtocolError.
type Commands struct {
	executor Executor
}

// NewCommands creates a new Commands instance on top of any executor: a
// single *Connection, a *ServerPool or a *Client.
func NewCommands(executor Executor) *Commands {
	return &Commands{
		executor: executor,
	}
}

func (c *Commands) exec(ctx context.Context, cmd wire.CmdType, args ...wire.Value) (wire.Value, error) {
	resp, err := c.executor.Execute(ctx, wire.NewRequest(cmd, args...))
	if err != nil {
		return wire.Value{}, err
	}
	return resp.Result()
}

func (c *Commands) execBool(ctx context.Context, cmd wire.CmdType, args ...wire.Value) (bool, error) {
	v, err := c.exec(ctx, cmd, args...)
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, unexpectedKind(cmd, v, wire.KindBool)
	}
	return b, nil
}

func (c *Commands) execInt(ctx context.Context, cmd wire.CmdType, args ...wire.Value) (int64, error) {
	v, err := c.exec(ctx, cmd, args...)
	if err != nil {
		return 0, err
	}
	i, ok := v.AsInt()
	if !ok {
		return 0, unexpectedKind(cmd, v, wire.KindInt)
	}
	return i, nil
}

func (c *Commands) execArray(ctx context.Context, cmd wire.CmdType, args ...wire.Value) ([]wire.Value, error) {
	v, err := c.exec(ctx, cmd, args...)
	if err != nil {
		return nil, err
	}
	elems, ok := v.AsArray()
	if !ok {
		return nil, unexpectedKind(cmd, v, wire.KindArray)
	}
	return elems, nil
}

func (c *Commands) execStrings(ctx context.Context, cmd wire.CmdType, args ...wire.Value) ([]string, error) {
	elems, err := c.execArray(ctx, cmd, args...)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		s, ok := e.Text()
		if !ok {
			return nil, unexpectedKind(cmd, e, wire.KindBytes)
		}
		out[i] = s
	}
	return out, nil
}

func unexpectedKind(cmd wire.CmdType, v wire.Value, want ...wire.Kind) error {
	msg := cmd.String() + ": unexpected " + v.Kind().String() + " reply, expected "
	for i, k := range want {
		if i > 0 {
			msg += " or "
		}
		msg += k.String()
	}
	return &wire.ProtocolError{Message: msg}
}

// Get returns the value stored at key, or a Nil value if there is none.
func (c *Commands) Get(ctx context.Context, key string) (wire.Value, error) {
	return c.exec(ctx, wire.CmdGet, wire.String(key))
}

// Set stores value at key. The value must be an Int, Float or Bytes.
func (c *Commands) Set(ctx context.Context, key string, value wire.Value) error {
	_, err := c.exec(ctx, wire.CmdSet, wire.String(key), value)
	return err
}

// Del removes key and reports whether it existed.
func (c *Commands) Del(ctx context.Context, key string) (bool, error) {
	return c.execBool(ctx, wire.CmdDel, wire.String(key))
}

// Keys lists every key. On a Client, all servers are queried.
func (c *Commands) Keys(ctx context.Context) ([]string, error) {
	return c.execStrings(ctx, wire.CmdKeys)
}

// Expire sets the time to live of key, with millisecond precision. A ttl
// <= 0 deletes the key. Returns false if the key does not exist.
func (c *Commands) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.execBool(ctx, wire.CmdExpire, wire.String(key), wire.Int(ttl.Milliseconds()))
}

func (c *Commands) TTL(ctx context.Context, key string) (TTLInfo, error) {
	ms, err := c.execInt(ctx, wire.CmdTTL, wire.String(key))
	if err != nil {
		return TTLInfo{}, err
	}
	return ttlInfoFromMillis(ms), nil
}

// Persist removes the expiration of key and reports whether there was one.
func (c *Commands) Persist(ctx context.Context, key string) (bool, error) {
	return c.execBool(ctx, wire.CmdPersist, wire.String(key))
}

// HGet returns the value of field in the hash at key, or Nil.
func (c *Commands) HGet(ctx context.Context, key, field string) (wire.Value, error) {
	return c.exec(ctx, wire.CmdHGet, wire.String(key), wire.String(field))
}

// HSet sets field in the hash at key and reports whether the field is new.
// Servers that answer Nil instead of a Bool report false.
func (c *Commands) HSet(ctx context.Context, key, field string, value wire.Value) (bool, error) {
	v, err := c.exec(ctx, wire.CmdHSet, wire.String(key), wire.String(field), value)
	if err != nil || v.IsNil() {
		return false, err
	}
	added, ok := v.AsBool()
	if !ok {
		return false, unexpectedKind(wire.CmdHSet, v, wire.KindBool, wire.KindNil)
	}
	return added, nil
}

func (c *Commands) HDel(ctx context.Context, key, field string) (bool, error) {
	return c.execBool(ctx, wire.CmdHDel, wire.String(key), wire.String(field))
}

func (c *Commands) HLen(ctx context.Context, key string) (int64, error) {
	return c.execInt(ctx, wire.CmdHLen, wire.String(key))
}

func (c *Commands) HKeys(ctx context.Context, key string) ([]string, error) {
	return c.execStrings(ctx, wire.CmdHKeys, wire.String(key))
}

// HGetAll returns the fields of the hash at key in server order. A missing
// key is an empty hash.
func (c *Commands) HGetAll(ctx context.Context, key string) ([]wire.Pair, error) {
	v, err := c.exec(ctx, wire.CmdHGetAll, wire.String(key))
	if err != nil {
		return nil, err
	}
	return wire.Pairs(v)
}

// SAdd adds member to the set at key and reports whether it was new.
func (c *Commands) SAdd(ctx context.Context, key string, member wire.Value) (bool, error) {
	return c.execBool(ctx, wire.CmdSAdd, wire.String(key), member)
}

func (c *Commands) SIsMember(ctx context.Context, key string, member wire.Value) (bool, error) {
	return c.execBool(ctx, wire.CmdSIsMember, wire.String(key), member)
}

func (c *Commands) SRem(ctx context.Context, key string, member wire.Value) (bool, error) {
	return c.execBool(ctx, wire.CmdSRem, wire.String(key), member)
}

func (c *Commands) SCard(ctx context.Context, key string) (int64, error) {
	return c.execInt(ctx, wire.CmdSCard, wire.String(key))
}

// SRandMember returns a random member of the set at key, or Nil if the set
// is empty.
func (c *Commands) SRandMember(ctx context.Context, key string) (wire.Value, error) {
	return c.exec(ctx, wire.CmdSRandMember, wire.String(key))
}

// SPop removes and returns a random member of the set at key, or Nil.
func (c *Commands) SPop(ctx context.Context, key string) (wire.Value, error) {
	return c.exec(ctx, wire.CmdSPop, wire.String(key))
}

func (c *Commands) SMembers(ctx context.Context, key string) ([]wire.Value, error) {
	return c.execArray(ctx, wire.CmdSMembers, wire.String(key))
}

// ZAdd inserts member with score in the sorted set at key, or updates its
// score. Reports whether the member is new.
func (c *Commands) ZAdd(ctx context.Context, key string, score float64, member string) (bool, error) {
	return c.execBool(ctx, wire.CmdZAdd, wire.String(key), wire.Float(score), wire.String(member))
}

// ZScore returns the score of member. found is false if the member or the
// key does not exist.
func (c *Commands) ZScore(ctx context.Context, key, member string) (score float64, found bool, err error) {
	v, err := c.exec(ctx, wire.CmdZScore, wire.String(key), wire.String(member))
	if err != nil || v.IsNil() {
		return 0, false, err
	}
	score, ok := v.AsFloat()
	if !ok {
		return 0, false, unexpectedKind(wire.CmdZScore, v, wire.KindFloat, wire.KindNil)
	}
	return score, true, nil
}

// ZRank returns the 0-based position of member in (score, member) order.
func (c *Commands) ZRank(ctx context.Context, key, member string) (rank int64, found bool, err error) {
	v, err := c.exec(ctx, wire.CmdZRank, wire.String(key), wire.String(member))
	if err != nil || v.IsNil() {
		return 0, false, err
	}
	rank, ok := v.AsInt()
	if !ok {
		return 0, false, unexpectedKind(wire.CmdZRank, v, wire.KindInt, wire.KindNil)
	}
	return rank, true, nil
}

func (c *Commands) ZRem(ctx context.Context, key, member string) (bool, error) {
	return c.execBool(ctx, wire.CmdZRem, wire.String(key), wire.String(member))
}

func (c *Commands) ZCard(ctx context.Context, key string) (int64, error) {
	return c.execInt(ctx, wire.CmdZCard, wire.String(key))
}

// ZQuery pages through the sorted set at key in (score, member) order: it
// starts at the first entry >= (minScore, minMember), skips offset entries
// and returns at most limit entries.
func (c *Commands) ZQuery(ctx context.Context, key string, minScore float64, minMember string, offset, limit int64) ([]wire.ScoredMember, error) {
	v, err := c.exec(ctx, wire.CmdZQuery,
		wire.String(key),
		wire.Float(minScore),
		wire.String(minMember),
		wire.Int(offset),
		wire.Int(limit),
	)
	if err != nil {
		return nil, err
	}
	return wire.ScoredMembers(v)
}
