package wire

import (
	"fmt"
	"strings"
)

// CmdType is the one-byte command code that starts every request frame.
type CmdType uint8

// Command codes, grouped by domain. Codes within a domain are contiguous and
// each domain starts on a multiple of 16.
const (
	// CmdGet returns the value stored at key, or Nil.
	//
	// Args: key. Result: value | Nil
	CmdGet CmdType = 0

	// CmdSet stores an Int, Float or Bytes value at key.
	//
	// Args: key, value. Result: Nil
	CmdSet CmdType = 1

	// CmdDel removes key.
	//
	// Args: key. Result: Bool (true if the key existed)
	CmdDel CmdType = 2

	// CmdKeys lists every key of the server.
	//
	// Args: none. Result: Array of Bytes
	CmdKeys CmdType = 3

	// CmdExpire sets a TTL in milliseconds. A TTL <= 0 deletes the key.
	//
	// Args: key, ms (Int). Result: Bool (false if the key is missing)
	CmdExpire CmdType = 4

	// CmdTTL reports the remaining TTL in milliseconds.
	//
	// Args: key. Result: Int (-2 missing key, -1 no TTL)
	CmdTTL CmdType = 5

	// CmdPersist clears the TTL of key.
	//
	// Args: key. Result: Bool (true if a TTL was removed)
	CmdPersist CmdType = 6

	CmdHGet    CmdType = 16 // Args: key, field. Result: value | Nil
	CmdHSet    CmdType = 17 // Args: key, field, value. Result: Bool (added)
	CmdHDel    CmdType = 18 // Args: key, field. Result: Bool (removed)
	CmdHLen    CmdType = 19 // Args: key. Result: Int
	CmdHKeys   CmdType = 20 // Args: key. Result: Array
	CmdHGetAll CmdType = 21 // Args: key. Result: Array [field, value, ...]

	CmdSAdd        CmdType = 32 // Args: key, member. Result: Bool (added)
	CmdSIsMember   CmdType = 33 // Args: key, member. Result: Bool
	CmdSRem        CmdType = 34 // Args: key, member. Result: Bool (removed)
	CmdSCard       CmdType = 35 // Args: key. Result: Int
	CmdSRandMember CmdType = 36 // Args: key. Result: value | Nil
	CmdSPop        CmdType = 37 // Args: key. Result: value | Nil
	CmdSMembers    CmdType = 38 // Args: key. Result: Array

	// CmdZAdd inserts member with score, or updates the score of an existing
	// member.
	//
	// Args: key, score (Float), member. Result: Bool (added)
	CmdZAdd CmdType = 48

	CmdZScore CmdType = 49 // Args: key, member. Result: Float | Nil
	CmdZRank  CmdType = 50 // Args: key, member. Result: Int | Nil (0-based)
	CmdZRem   CmdType = 51 // Args: key, member. Result: Bool (removed)
	CmdZCard  CmdType = 52 // Args: key. Result: Int

	// CmdZQuery pages through a sorted set ordered by (score, member),
	// starting at the first entry >= (minScore, minMember), skipping offset
	// entries and returning at most limit.
	//
	// Args: key, minScore (Float), minMember, offset (Int), limit (Int).
	// Result: Array [member, score, member, score, ...]
	CmdZQuery CmdType = 53

	// CmdShutdown stops the server. No response frame is ever sent: the
	// server closes the connection instead.
	//
	// Args: none.
	CmdShutdown CmdType = 255
)

// Domain groups commands by the data structure they operate on.
type Domain string

const (
	DomainScalar    Domain = "scalar"
	DomainLifecycle Domain = "lifecycle"
	DomainHash      Domain = "hash"
	DomainSet       Domain = "set"
	DomainSortedSet Domain = "sorted-set"
	DomainControl   Domain = "control"
)

// CommandInfo describes a catalog entry.
type CommandInfo struct {
	Code   CmdType
	Name   string
	Arity  int
	Domain Domain
}

var catalog = []CommandInfo{
	{CmdGet, "GET", 1, DomainScalar},
	{CmdSet, "SET", 2, DomainScalar},
	{CmdDel, "DEL", 1, DomainScalar},
	{CmdKeys, "KEYS", 0, DomainScalar},

	{CmdExpire, "EXPIRE", 2, DomainLifecycle},
	{CmdTTL, "TTL", 1, DomainLifecycle},
	{CmdPersist, "PERSIST", 1, DomainLifecycle},

	{CmdHGet, "HGET", 2, DomainHash},
	{CmdHSet, "HSET", 3, DomainHash},
	{CmdHDel, "HDEL", 2, DomainHash},
	{CmdHLen, "HLEN", 1, DomainHash},
	{CmdHKeys, "HKEYS", 1, DomainHash},
	{CmdHGetAll, "HGETALL", 1, DomainHash},

	{CmdSAdd, "SADD", 2, DomainSet},
	{CmdSIsMember, "SISMEMBER", 2, DomainSet},
	{CmdSRem, "SREM", 2, DomainSet},
	{CmdSCard, "SCARD", 1, DomainSet},
	{CmdSRandMember, "SRANDMEMBER", 1, DomainSet},
	{CmdSPop, "SPOP", 1, DomainSet},
	{CmdSMembers, "SMEMBERS", 1, DomainSet},

	{CmdZAdd, "ZADD", 3, DomainSortedSet},
	{CmdZScore, "ZSCORE", 2, DomainSortedSet},
	{CmdZRank, "ZRANK", 2, DomainSortedSet},
	{CmdZRem, "ZREM", 2, DomainSortedSet},
	{CmdZCard, "ZCARD", 1, DomainSortedSet},
	{CmdZQuery, "ZQUERY", 5, DomainSortedSet},

	{CmdShutdown, "SHUTDOWN", 0, DomainControl},
}

var (
	byCode [256]*CommandInfo
	byName = make(map[string]*CommandInfo, len(catalog))
)

func init() {
	for i := range catalog {
		info := &catalog[i]
		byCode[info.Code] = info
		byName[info.Name] = info
	}
}

// Commands returns a copy of the catalog in code order.
func Commands() []CommandInfo {
	out := make([]CommandInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Info returns the catalog entry for c. ok is false for unassigned codes.
func (c CmdType) Info() (info CommandInfo, ok bool) {
	if p := byCode[c]; p != nil {
		return *p, true
	}
	return CommandInfo{}, false
}

// Known reports whether c is part of the catalog.
func (c CmdType) Known() bool {
	return byCode[c] != nil
}

func (c CmdType) String() string {
	if p := byCode[c]; p != nil {
		return p.Name
	}
	return fmt.Sprintf("CMD(%d)", uint8(c))
}

// LookupCommand finds a command by name, ignoring case.
func LookupCommand(name string) (CommandInfo, bool) {
	if p := byName[strings.ToUpper(name)]; p != nil {
		return *p, true
	}
	return CommandInfo{}, false
}
