package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendValue(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected []byte
	}{
		{"nil", Nil(), []byte{0x00}},
		{"true", Bool(true), []byte{0x01}},
		{"false", Bool(false), []byte{0x02}},
		{"int", Int(42), []byte{0x03, 42, 0, 0, 0, 0, 0, 0, 0}},
		{"negative int", Int(-1), []byte{0x03, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{"float", Float(1.0), []byte{0x04, 0, 0, 0, 0, 0, 0, 0xf0, 0x3f}},
		{"bytes", String("abc"), []byte{0x05, 3, 0, 0, 0, 'a', 'b', 'c'}},
		{"empty bytes", Bytes(nil), []byte{0x05, 0, 0, 0, 0}},
		{"empty array", Array(), []byte{0x06, 0, 0, 0, 0}},
		{
			name:  "nested array",
			value: Array(Int(1), Array(Nil())),
			expected: []byte{
				0x06, 2, 0, 0, 0,
				0x03, 1, 0, 0, 0, 0, 0, 0, 0,
				0x06, 1, 0, 0, 0,
				0x00,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AppendValue(nil, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, len(tt.expected), encodedSize(tt.value))
		})
	}
}

func TestAppendRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      *Request
		expected []byte
	}{
		{
			name:     "keys has no arguments",
			req:      NewRequest(CmdKeys),
			expected: []byte{3},
		},
		{
			name: "set string int",
			req:  NewRequest(CmdSet, String("abc"), Int(42)),
			expected: []byte{
				1,
				0x05, 3, 0, 0, 0, 'a', 'b', 'c',
				0x03, 42, 0, 0, 0, 0, 0, 0, 0,
			},
		},
		{
			name:     "shutdown",
			req:      NewRequest(CmdShutdown),
			expected: []byte{0xff},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AppendRequest(nil, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAppendRequest_InvalidArgument(t *testing.T) {
	for _, arg := range []Value{Nil(), Bool(true), Array(Int(1))} {
		t.Run(arg.Kind().String(), func(t *testing.T) {
			prefix := []byte("prefix")
			got, err := AppendRequest(prefix, NewRequest(CmdSet, String("k"), arg))
			require.ErrorIs(t, err, ErrInvalidArgumentType)

			var argErr *InvalidArgumentTypeError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, 1, argErr.Index)
			assert.Equal(t, arg.Kind().String(), argErr.Type)

			assert.Equal(t, []byte("prefix"), got, "nothing appended")
		})
	}
}

func TestWriteRequest(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, NewRequest(CmdGet, String("k"))))
	assert.Equal(t, []byte{0, 0x05, 1, 0, 0, 0, 'k'}, buf.Bytes())
}

func TestWriteRequest_InvalidArgumentWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRequest(&buf, NewRequest(CmdSet, String("k"), Nil()))
	require.ErrorIs(t, err, ErrInvalidArgumentType)
	assert.Zero(t, buf.Len())
}

type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

func TestWriteRequests_SingleWrite(t *testing.T) {
	w := &countingWriter{}
	reqs := []*Request{
		NewRequest(CmdSet, String("a"), Int(1)),
		NewRequest(CmdGet, String("a")),
		NewRequest(CmdDel, String("a")),
	}
	require.NoError(t, WriteRequests(w, reqs))
	assert.Equal(t, 1, w.writes)

	// the stream parses back into the same requests
	data := w.Bytes()
	for _, want := range reqs {
		got, n, err := ParseRequest(data)
		require.NoError(t, err)
		require.Positive(t, n)
		assert.Equal(t, want.Command, got.Command)
		require.Len(t, got.Args, len(want.Args))
		for i := range want.Args {
			assert.True(t, Equal(want.Args[i], got.Args[i]))
		}
		data = data[n:]
	}
	assert.Empty(t, data)
}

func TestWriteRequests_InvalidWritesNothing(t *testing.T) {
	w := &countingWriter{}
	err := WriteRequests(w, []*Request{
		NewRequest(CmdGet, String("a")),
		NewRequest(CmdSet, String("a"), Bool(true)),
	})
	require.Error(t, err)
	assert.Zero(t, w.writes)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteRequest_WriterError(t *testing.T) {
	err := WriteRequest(failingWriter{}, NewRequest(CmdKeys))
	require.EqualError(t, err, "broken pipe")
}

func TestAppendResponse(t *testing.T) {
	got, err := AppendResponse(nil, StatusOK, Nil())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00}, got)

	got, err = AppendResponse(nil, StatusErr, String("no"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x05, 2, 0, 0, 0, 'n', 'o'}, got)
}

func TestFloatSpecialValues(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), math.Copysign(0, -1), math.SmallestNonzeroFloat64} {
		b, err := AppendValue(nil, Float(f))
		require.NoError(t, err)

		v, n, err := ParseValue(b)
		require.NoError(t, err)
		assert.Equal(t, len(b), n)
		assert.True(t, Equal(Float(f), v), "float %v", f)
	}
}
