package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAccessors(t *testing.T) {
	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	i, ok := Int(-3).AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(-3), i)

	f, ok := Float(2.5).AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)

	s, ok := String("x").Text()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = Int(1).AsBool()
	assert.False(t, ok)
	_, ok = Bool(true).AsInt()
	assert.False(t, ok)
	_, ok = Int(1).AsFloat()
	assert.False(t, ok)
	_, ok = Int(1).AsBytes()
	assert.False(t, ok)
	_, ok = String("a").AsArray()
	assert.False(t, ok)

	assert.True(t, Nil().IsNil())
	assert.True(t, Value{}.IsNil())
	assert.Equal(t, 3, String("abc").Len())
	assert.Equal(t, 2, Array(Nil(), Nil()).Len())
	assert.Zero(t, Int(5).Len())
}

func TestBytesCopiesInput(t *testing.T) {
	src := []byte("abc")
	v := Bytes(src)
	src[0] = 'z'

	got, _ := v.AsBytes()
	assert.Equal(t, "abc", string(got))

	empty, ok := Bytes(nil).AsBytes()
	assert.True(t, ok)
	assert.NotNil(t, empty)
}

func TestArrayCopiesInput(t *testing.T) {
	elems := []Value{Int(1), Int(2)}
	v := Array(elems...)
	elems[0] = Int(9)

	got, _ := v.AsArray()
	assert.True(t, Equal(Int(1), got[0]))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Nil(), Nil()))
	assert.True(t, Equal(Float(math.NaN()), Float(math.NaN())))
	assert.False(t, Equal(Float(0), Float(math.Copysign(0, -1))))
	assert.False(t, Equal(Int(1), Float(1)))
	assert.False(t, Equal(Bool(false), Nil()))
	assert.False(t, Equal(Array(Int(1)), Array(Int(1), Int(2))))
	assert.False(t, Equal(Array(Int(1)), Array(Int(2))))
	assert.True(t, Equal(Strings("a", "b"), Array(String("a"), String("b"))))
	assert.True(t, Equal(Bytes(nil), String("")))
}

func TestValueString(t *testing.T) {
	tests := []struct {
		value    Value
		expected string
	}{
		{Nil(), "nil"},
		{Bool(true), "true"},
		{Int(42), "42"},
		{Float(4.5), "4.5"},
		{String("abc"), `"abc"`},
		{Array(Int(1), String("a")), `[1 "a"]`},
		{Array(), "[]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.value.String())
	}
}

func TestPairs(t *testing.T) {
	pairs, err := Pairs(Array())
	require.NoError(t, err)
	assert.Empty(t, pairs)

	_, err = Pairs(Array(String("a")))
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)

	_, err = Pairs(Array(Int(1), Int(2)))
	require.ErrorAs(t, err, &protoErr)

	_, err = Pairs(Nil())
	require.ErrorAs(t, err, &protoErr)
}

func TestScoredMembers(t *testing.T) {
	members, err := ScoredMembers(Array(String("5"), Float(5), String("6"), Float(6)))
	require.NoError(t, err)
	assert.Equal(t, []ScoredMember{
		{Member: []byte("5"), Score: 5},
		{Member: []byte("6"), Score: 6},
	}, members)

	_, err = ScoredMembers(Array(String("5"), Int(5)))
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestArgsOf(t *testing.T) {
	args, err := ArgsOf("k", []byte("v"), 1, int8(-2), uint32(3), uint64(4), 1.5, float32(0.5), Int(7))
	require.NoError(t, err)
	expected := []Value{String("k"), String("v"), Int(1), Int(-2), Int(3), Int(4), Float(1.5), Float(0.5), Int(7)}
	require.Len(t, args, len(expected))
	for i := range expected {
		assert.True(t, Equal(expected[i], args[i]), "arg %d: %s", i, args[i])
	}

	tests := []struct {
		name  string
		value any
		index int
	}{
		{"nil", nil, 0},
		{"bool", true, 0},
		{"nil value", Nil(), 0},
		{"array value", Array(), 0},
		{"uint64 overflow", uint64(math.MaxUint64), 0},
		{"map", map[string]int{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ArgsOf(tt.value)
			require.ErrorIs(t, err, ErrInvalidArgumentType)
		})
	}

	_, err = ArgsOf("k", struct{}{})
	var argErr *InvalidArgumentTypeError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, 1, argErr.Index)
	assert.Equal(t, "struct {}", argErr.Type)
}
