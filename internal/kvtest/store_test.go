package kvtest

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pior/kvclient/wire"
)

func exec(t *testing.T, s *Store, cmd wire.CmdType, args ...any) (wire.Status, wire.Value) {
	t.Helper()
	values, err := wire.ArgsOf(args...)
	require.NoError(t, err)
	return s.Exec(wire.NewRequest(cmd, values...))
}

func requireOK(t *testing.T, s *Store, want wire.Value, cmd wire.CmdType, args ...any) {
	t.Helper()
	status, v := exec(t, s, cmd, args...)
	require.Equal(t, wire.StatusOK, status, "reply: %s", v)
	require.True(t, wire.Equal(want, v), "want %s, got %s", want, v)
}

func requireErr(t *testing.T, s *Store, msg string, cmd wire.CmdType, args ...any) {
	t.Helper()
	status, v := exec(t, s, cmd, args...)
	require.Equal(t, wire.StatusErr, status)
	text, _ := v.Text()
	require.Equal(t, msg, text)
}

func TestStoreScalars(t *testing.T) {
	s := NewStore()

	requireOK(t, s, wire.Nil(), wire.CmdGet, "a")
	requireOK(t, s, wire.Nil(), wire.CmdSet, "a", 42)
	requireOK(t, s, wire.Int(42), wire.CmdGet, "a")
	requireOK(t, s, wire.Strings("a"), wire.CmdKeys)
	requireOK(t, s, wire.Bool(true), wire.CmdDel, "a")
	requireOK(t, s, wire.Bool(false), wire.CmdDel, "a")
	requireOK(t, s, wire.Array(), wire.CmdKeys)
}

func TestStoreExpiration(t *testing.T) {
	s := NewStore()
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	requireOK(t, s, wire.Int(-2), wire.CmdTTL, "k")
	requireOK(t, s, wire.Bool(false), wire.CmdExpire, "k", 100)

	requireOK(t, s, wire.Nil(), wire.CmdSet, "k", "v")
	requireOK(t, s, wire.Int(-1), wire.CmdTTL, "k")
	requireOK(t, s, wire.Bool(true), wire.CmdExpire, "k", 100)
	requireOK(t, s, wire.Int(100), wire.CmdTTL, "k")

	requireOK(t, s, wire.Bool(true), wire.CmdPersist, "k")
	requireOK(t, s, wire.Int(-1), wire.CmdTTL, "k")

	requireOK(t, s, wire.Bool(true), wire.CmdExpire, "k", 100)
	now = now.Add(100 * time.Millisecond)
	requireOK(t, s, wire.Nil(), wire.CmdGet, "k")
	requireOK(t, s, wire.Int(-2), wire.CmdTTL, "k")

	// a non-positive ttl deletes
	requireOK(t, s, wire.Nil(), wire.CmdSet, "k", "v")
	requireOK(t, s, wire.Bool(true), wire.CmdExpire, "k", 0)
	requireOK(t, s, wire.Nil(), wire.CmdGet, "k")
}

func TestStoreHash(t *testing.T) {
	s := NewStore()

	requireOK(t, s, wire.Array(), wire.CmdHGetAll, "h")
	requireOK(t, s, wire.Bool(true), wire.CmdHSet, "h", "f1", "v1")
	requireOK(t, s, wire.Bool(true), wire.CmdHSet, "h", "f2", 2)
	requireOK(t, s, wire.Bool(false), wire.CmdHSet, "h", "f1", "v1bis")
	requireOK(t, s, wire.String("v1bis"), wire.CmdHGet, "h", "f1")
	requireOK(t, s, wire.Int(2), wire.CmdHLen, "h")
	requireOK(t, s, wire.Strings("f1", "f2"), wire.CmdHKeys, "h")
	requireOK(t, s, wire.Array(wire.String("f1"), wire.String("v1bis"), wire.String("f2"), wire.Int(2)), wire.CmdHGetAll, "h")
	requireOK(t, s, wire.Bool(true), wire.CmdHDel, "h", "f1")
	requireOK(t, s, wire.Bool(false), wire.CmdHDel, "h", "f1")

	requireErr(t, s, "not scalar", wire.CmdGet, "h")
	requireOK(t, s, wire.Nil(), wire.CmdSet, "str", "x")
	requireErr(t, s, "object not a hash map", wire.CmdHLen, "str")
}

func TestStoreSet(t *testing.T) {
	s := NewStore()

	requireOK(t, s, wire.Nil(), wire.CmdSPop, "s")
	requireOK(t, s, wire.Bool(true), wire.CmdSAdd, "s", "a")
	requireOK(t, s, wire.Bool(false), wire.CmdSAdd, "s", "a")
	requireOK(t, s, wire.Bool(true), wire.CmdSIsMember, "s", "a")
	requireOK(t, s, wire.Int(1), wire.CmdSCard, "s")
	requireOK(t, s, wire.String("a"), wire.CmdSRandMember, "s")
	requireOK(t, s, wire.Strings("a"), wire.CmdSMembers, "s")
	requireOK(t, s, wire.String("a"), wire.CmdSPop, "s")
	requireOK(t, s, wire.Int(0), wire.CmdSCard, "s")

	requireErr(t, s, "object not a sorted set", wire.CmdZCard, "s")
}

func TestStoreSortedSet(t *testing.T) {
	s := NewStore()

	for i := range 10 {
		requireOK(t, s, wire.Bool(true), wire.CmdZAdd, "z", float64(i), strconv.Itoa(i))
	}
	requireOK(t, s, wire.Bool(false), wire.CmdZAdd, "z", 3.0, "3")
	requireOK(t, s, wire.Int(10), wire.CmdZCard, "z")
	requireOK(t, s, wire.Float(4), wire.CmdZScore, "z", "4")
	requireOK(t, s, wire.Int(4), wire.CmdZRank, "z", "4")
	requireOK(t, s, wire.Nil(), wire.CmdZRank, "z", "missing")

	requireOK(t, s,
		wire.Array(wire.String("5"), wire.Float(5), wire.String("6"), wire.Float(6), wire.String("7"), wire.Float(7)),
		wire.CmdZQuery, "z", 0.0, "", 5, 3)

	// the bound is inclusive of (score, member)
	requireOK(t, s,
		wire.Array(wire.String("8"), wire.Float(8), wire.String("9"), wire.Float(9)),
		wire.CmdZQuery, "z", 8.0, "8", 0, 10)

	requireOK(t, s, wire.Array(), wire.CmdZQuery, "z", 100.0, "", 0, 10)
	requireOK(t, s, wire.Array(), wire.CmdZQuery, "missing", 0.0, "", 0, 10)
	requireErr(t, s, "invalid limit", wire.CmdZQuery, "z", 0.0, "", 0, -1)

	// moving a member keeps the order
	requireOK(t, s, wire.Bool(false), wire.CmdZAdd, "z", 100.0, "0")
	requireOK(t, s, wire.Int(9), wire.CmdZRank, "z", "0")
	requireOK(t, s, wire.Bool(true), wire.CmdZRem, "z", "0")
	requireOK(t, s, wire.Int(9), wire.CmdZCard, "z")
}

func TestStoreSortedSetQueryBounds(t *testing.T) {
	s := NewStore()
	for i := range 5 {
		requireOK(t, s, wire.Bool(true), wire.CmdZAdd, "z", float64(i), strconv.Itoa(i))
	}

	requireOK(t, s,
		wire.Array(wire.String("1"), wire.Float(1), wire.String("2"), wire.Float(2),
			wire.String("3"), wire.Float(3), wire.String("4"), wire.Float(4)),
		wire.CmdZQuery, "z", 0.0, "", 1, int64(math.MaxInt64))

	// a negative offset walks back from the bound
	requireOK(t, s,
		wire.Array(wire.String("2"), wire.Float(2), wire.String("3"), wire.Float(3)),
		wire.CmdZQuery, "z", 3.0, "3", -1, 2)
	requireOK(t, s, wire.Array(), wire.CmdZQuery, "z", 3.0, "3", -4, 2)
	requireOK(t, s, wire.Array(), wire.CmdZQuery, "z", 0.0, "", int64(math.MaxInt64), 1)
	requireOK(t, s, wire.Array(), wire.CmdZQuery, "z", 0.0, "", int64(math.MinInt64), int64(math.MaxInt64))
	requireOK(t, s, wire.Array(), wire.CmdZQuery, "z", 0.0, "", 0, 0)

	// members sharing a score are ordered by name
	requireOK(t, s, wire.Bool(true), wire.CmdZAdd, "z", 2.0, "b")
	requireOK(t, s, wire.Bool(true), wire.CmdZAdd, "z", 2.0, "a")
	requireOK(t, s,
		wire.Array(wire.String("2"), wire.Float(2), wire.String("a"), wire.Float(2), wire.String("b"), wire.Float(2)),
		wire.CmdZQuery, "z", 2.0, "", 0, 3)
	requireOK(t, s, wire.Int(3), wire.CmdZRank, "z", "a")
}

func TestStoreInsertionOrder(t *testing.T) {
	s := NewStore()

	for _, f := range []string{"c", "a", "b"} {
		requireOK(t, s, wire.Bool(true), wire.CmdHSet, "h", f, f)
		requireOK(t, s, wire.Bool(true), wire.CmdSAdd, "s", f)
	}
	requireOK(t, s, wire.Bool(true), wire.CmdHDel, "h", "a")
	requireOK(t, s, wire.Bool(true), wire.CmdHSet, "h", "a", "again")
	requireOK(t, s, wire.Strings("c", "b", "a"), wire.CmdHKeys, "h")
	requireOK(t, s, wire.Strings("c", "a", "b"), wire.CmdSMembers, "s")

	popped := map[string]bool{}
	for range 3 {
		status, v := exec(t, s, wire.CmdSPop, "s")
		require.Equal(t, wire.StatusOK, status)
		member, ok := v.Text()
		require.True(t, ok)
		popped[member] = true
	}
	require.Len(t, popped, 3)
	requireOK(t, s, wire.Int(0), wire.CmdSCard, "s")
	requireOK(t, s, wire.Nil(), wire.CmdSPop, "s")
}
