package kvtest

import (
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/google/btree"

	"github.com/pior/kvclient/wire"
)

type objectKind int

const (
	kindScalar objectKind = iota
	kindHash
	kindSet
	kindSortedSet
)

type object struct {
	kind      objectKind
	scalar    wire.Value
	hash      *orderedmap.OrderedMap[string, wire.Value]
	set       *orderedmap.OrderedMap[string, struct{}]
	zset      *sortedSet
	expiresAt time.Time // zero means no expiration
}

// Store is an in-memory rendition of the server storage, enough to exercise
// every command of the catalog. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	objects map[string]*object
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		objects: make(map[string]*object),
		now:     time.Now,
	}
}

// Exec runs one request and returns the response envelope.
func (s *Store) Exec(req *wire.Request) (wire.Status, wire.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, errMsg := s.exec(req)
	if errMsg != "" {
		return wire.StatusErr, wire.String(errMsg)
	}
	return wire.StatusOK, v
}

const (
	errNotScalar    = "not scalar"
	errNotHash      = "object not a hash map"
	errNotSet       = "object not a set"
	errNotSortedSet = "object not a sorted set"
)

func (s *Store) exec(req *wire.Request) (wire.Value, string) {
	args := req.Args
	key := func(i int) string { return text(args[i]) }

	switch req.Command {
	case wire.CmdGet:
		obj := s.get(key(0))
		if obj == nil {
			return wire.Nil(), ""
		}
		if obj.kind != kindScalar {
			return wire.Value{}, errNotScalar
		}
		return obj.scalar, ""

	case wire.CmdSet:
		s.objects[key(0)] = &object{kind: kindScalar, scalar: args[1]}
		return wire.Nil(), ""

	case wire.CmdDel:
		return wire.Bool(s.del(key(0))), ""

	case wire.CmdKeys:
		keys := make([]string, 0, len(s.objects))
		for k := range s.objects {
			if s.get(k) != nil {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		return wire.Strings(keys...), ""

	case wire.CmdExpire:
		ms, ok := args[1].AsInt()
		if !ok {
			return wire.Value{}, "invalid ttl"
		}
		if ms <= 0 {
			return wire.Bool(s.del(key(0))), ""
		}
		obj := s.get(key(0))
		if obj == nil {
			return wire.Bool(false), ""
		}
		obj.expiresAt = s.now().Add(time.Duration(ms) * time.Millisecond)
		return wire.Bool(true), ""

	case wire.CmdTTL:
		obj := s.get(key(0))
		switch {
		case obj == nil:
			return wire.Int(-2), ""
		case obj.expiresAt.IsZero():
			return wire.Int(-1), ""
		default:
			return wire.Int(max(obj.expiresAt.Sub(s.now()).Milliseconds(), 0)), ""
		}

	case wire.CmdPersist:
		obj := s.get(key(0))
		if obj == nil {
			return wire.Bool(false), ""
		}
		obj.expiresAt = time.Time{}
		return wire.Bool(true), ""

	case wire.CmdHGet, wire.CmdHSet, wire.CmdHDel, wire.CmdHLen, wire.CmdHKeys, wire.CmdHGetAll:
		return s.execHash(req.Command, key(0), args[1:])

	case wire.CmdSAdd, wire.CmdSIsMember, wire.CmdSRem, wire.CmdSCard, wire.CmdSRandMember, wire.CmdSPop, wire.CmdSMembers:
		return s.execSet(req.Command, key(0), args[1:])

	case wire.CmdZAdd, wire.CmdZScore, wire.CmdZRank, wire.CmdZRem, wire.CmdZCard, wire.CmdZQuery:
		return s.execSortedSet(req.Command, key(0), args[1:])

	default:
		return wire.Value{}, "invalid command"
	}
}

func (s *Store) execHash(cmd wire.CmdType, key string, args []wire.Value) (wire.Value, string) {
	obj := s.get(key)
	if obj != nil && obj.kind != kindHash {
		return wire.Value{}, errNotHash
	}

	switch cmd {
	case wire.CmdHSet:
		if obj == nil {
			obj = &object{kind: kindHash, hash: orderedmap.NewOrderedMap[string, wire.Value]()}
			s.objects[key] = obj
		}
		return wire.Bool(obj.hash.Set(text(args[0]), args[1])), ""
	case wire.CmdHGet:
		if obj == nil {
			return wire.Nil(), ""
		}
		v, ok := obj.hash.Get(text(args[0]))
		if !ok {
			return wire.Nil(), ""
		}
		return v, ""
	case wire.CmdHDel:
		if obj == nil {
			return wire.Bool(false), ""
		}
		return wire.Bool(obj.hash.Delete(text(args[0]))), ""
	case wire.CmdHLen:
		if obj == nil {
			return wire.Int(0), ""
		}
		return wire.Int(int64(obj.hash.Len())), ""
	case wire.CmdHKeys:
		if obj == nil {
			return wire.Array(), ""
		}
		return wire.Strings(slices.Collect(obj.hash.Keys())...), ""
	default: // HGETALL
		if obj == nil {
			return wire.Array(), ""
		}
		elems := make([]wire.Value, 0, 2*obj.hash.Len())
		for k, v := range obj.hash.AllFromFront() {
			elems = append(elems, wire.String(k), v)
		}
		return wire.Array(elems...), ""
	}
}

func (s *Store) execSet(cmd wire.CmdType, key string, args []wire.Value) (wire.Value, string) {
	obj := s.get(key)
	if obj != nil && obj.kind != kindSet {
		return wire.Value{}, errNotSet
	}

	switch cmd {
	case wire.CmdSAdd:
		if obj == nil {
			obj = &object{kind: kindSet, set: orderedmap.NewOrderedMap[string, struct{}]()}
			s.objects[key] = obj
		}
		return wire.Bool(obj.set.Set(text(args[0]), struct{}{})), ""
	case wire.CmdSIsMember:
		if obj == nil {
			return wire.Bool(false), ""
		}
		_, ok := obj.set.Get(text(args[0]))
		return wire.Bool(ok), ""
	case wire.CmdSRem:
		if obj == nil {
			return wire.Bool(false), ""
		}
		return wire.Bool(obj.set.Delete(text(args[0]))), ""
	case wire.CmdSCard:
		if obj == nil {
			return wire.Int(0), ""
		}
		return wire.Int(int64(obj.set.Len())), ""
	case wire.CmdSRandMember, wire.CmdSPop:
		if obj == nil || obj.set.Len() == 0 {
			return wire.Nil(), ""
		}
		member := randomKey(obj.set)
		if cmd == wire.CmdSPop {
			obj.set.Delete(member)
		}
		return wire.String(member), ""
	default: // SMEMBERS
		if obj == nil {
			return wire.Array(), ""
		}
		return wire.Strings(slices.Collect(obj.set.Keys())...), ""
	}
}

func (s *Store) execSortedSet(cmd wire.CmdType, key string, args []wire.Value) (wire.Value, string) {
	var score float64
	if cmd == wire.CmdZAdd || cmd == wire.CmdZQuery {
		var ok bool
		if score, ok = number(args[0]); !ok {
			return wire.Value{}, "invalid score"
		}
		args = args[1:]
	}

	var offset, limit int64
	if cmd == wire.CmdZQuery {
		var ok bool
		if offset, ok = args[1].AsInt(); !ok {
			return wire.Value{}, "invalid offset"
		}
		if limit, ok = args[2].AsInt(); !ok || limit < 0 {
			return wire.Value{}, "invalid limit"
		}
	}

	obj := s.get(key)
	if obj != nil && obj.kind != kindSortedSet {
		return wire.Value{}, errNotSortedSet
	}

	switch cmd {
	case wire.CmdZAdd:
		if obj == nil {
			obj = &object{kind: kindSortedSet, zset: newSortedSet()}
			s.objects[key] = obj
		}
		return wire.Bool(obj.zset.add(text(args[0]), score)), ""
	case wire.CmdZScore:
		if obj == nil {
			return wire.Nil(), ""
		}
		sc, ok := obj.zset.scores[text(args[0])]
		if !ok {
			return wire.Nil(), ""
		}
		return wire.Float(sc), ""
	case wire.CmdZRank:
		if obj == nil {
			return wire.Nil(), ""
		}
		rank := obj.zset.rank(text(args[0]))
		if rank < 0 {
			return wire.Nil(), ""
		}
		return wire.Int(int64(rank)), ""
	case wire.CmdZRem:
		if obj == nil {
			return wire.Bool(false), ""
		}
		return wire.Bool(obj.zset.remove(text(args[0]))), ""
	case wire.CmdZCard:
		if obj == nil {
			return wire.Int(0), ""
		}
		return wire.Int(int64(obj.zset.len())), ""
	default: // ZQUERY
		if obj == nil {
			return wire.Array(), ""
		}
		entries := obj.zset.query(score, text(args[0]), offset, limit)
		elems := make([]wire.Value, 0, 2*len(entries))
		for _, e := range entries {
			elems = append(elems, wire.String(e.member), wire.Float(e.score))
		}
		return wire.Array(elems...), ""
	}
}

// get returns the live object at key, dropping it if it has expired.
func (s *Store) get(key string) *object {
	obj, ok := s.objects[key]
	if !ok {
		return nil
	}
	if !obj.expiresAt.IsZero() && !s.now().Before(obj.expiresAt) {
		delete(s.objects, key)
		return nil
	}
	return obj
}

func (s *Store) del(key string) bool {
	if s.get(key) == nil {
		return false
	}
	delete(s.objects, key)
	return true
}

// text is the storage key of an argument: the payload of a Bytes value, the
// decimal form of a number.
func text(v wire.Value) string {
	if s, ok := v.Text(); ok {
		return s
	}
	return v.String()
}

func randomKey[V any](m *orderedmap.OrderedMap[string, V]) string {
	n := rand.IntN(m.Len())
	for k := range m.Keys() {
		if n == 0 {
			return k
		}
		n--
	}
	return ""
}

func number(v wire.Value) (float64, bool) {
	if f, ok := v.AsFloat(); ok {
		return f, true
	}
	if i, ok := v.AsInt(); ok {
		return float64(i), true
	}
	return 0, false
}

type zentry struct {
	member string
	score  float64
}

func (e zentry) less(score float64, member string) bool {
	if e.score != score {
		return e.score < score
	}
	return strings.Compare(e.member, member) < 0
}

func lessZEntry(a, b zentry) bool { return a.less(b.score, b.member) }

// sortedSet keeps entries ordered by (score, member), with a member index
// for score lookups.
type sortedSet struct {
	tree   *btree.BTreeG[zentry]
	scores map[string]float64
}

func newSortedSet() *sortedSet {
	return &sortedSet{
		tree:   btree.NewG(32, lessZEntry),
		scores: make(map[string]float64),
	}
}

func (z *sortedSet) len() int { return z.tree.Len() }

func (z *sortedSet) add(member string, score float64) bool {
	added := !z.remove(member)
	z.tree.ReplaceOrInsert(zentry{member: member, score: score})
	z.scores[member] = score
	return added
}

func (z *sortedSet) remove(member string) bool {
	score, ok := z.scores[member]
	if !ok {
		return false
	}
	z.tree.Delete(zentry{member: member, score: score})
	delete(z.scores, member)
	return true
}

func (z *sortedSet) rank(member string) int {
	score, ok := z.scores[member]
	if !ok {
		return -1
	}
	rank := 0
	z.tree.AscendLessThan(zentry{member: member, score: score}, func(zentry) bool {
		rank++
		return true
	})
	return rank
}

// query returns up to limit entries, starting offset positions away from the
// first entry >= (score, member). A negative offset walks backwards.
func (z *sortedSet) query(score float64, member string, offset, limit int64) []zentry {
	pivot := zentry{member: member, score: score}
	if offset < 0 {
		found := false
		z.tree.DescendLessThan(pivot, func(e zentry) bool {
			offset++
			if offset == 0 {
				pivot, found = e, true
				return false
			}
			return true
		})
		if !found {
			return nil
		}
	}

	var entries []zentry
	z.tree.AscendGreaterOrEqual(pivot, func(e zentry) bool {
		if offset > 0 {
			offset--
			return true
		}
		if int64(len(entries)) >= limit {
			return false
		}
		entries = append(entries, e)
		return true
	})
	return entries
}
