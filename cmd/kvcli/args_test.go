package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/kvclient/wire"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *wire.Request
	}{
		{"GET", []string{"k"}, wire.NewRequest(wire.CmdGet, wire.String("k"))},
		{"set", []string{"k", "42"}, wire.NewRequest(wire.CmdSet, wire.String("k"), wire.String("42"))},
		{"SET", []string{"k", "i:42"}, wire.NewRequest(wire.CmdSet, wire.String("k"), wire.Int(42))},
		{"SET", []string{"k", "f:-0.5"}, wire.NewRequest(wire.CmdSet, wire.String("k"), wire.Float(-0.5))},
		{"SET", []string{"s:i:1", "v"}, wire.NewRequest(wire.CmdSet, wire.String("i:1"), wire.String("v"))},
		{"EXPIRE", []string{"k", "1500"}, wire.NewRequest(wire.CmdExpire, wire.String("k"), wire.Int(1500))},
		{"ZADD", []string{"z", "3", "m"}, wire.NewRequest(wire.CmdZAdd, wire.String("z"), wire.Float(3), wire.String("m"))},
		{"ZQUERY", []string{"z", "1.5", "", "2", "10"}, wire.NewRequest(wire.CmdZQuery,
			wire.String("z"), wire.Float(1.5), wire.String(""), wire.Int(2), wire.Int(10))},
		{"KEYS", nil, wire.NewRequest(wire.CmdKeys, []wire.Value{}...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseRequest(tt.name, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected.Command, req.Command)
			require.Len(t, req.Args, len(tt.expected.Args))
			for i := range req.Args {
				assert.True(t, wire.Equal(tt.expected.Args[i], req.Args[i]), "arg %d: %s", i, req.Args[i])
			}
		})
	}
}

func TestParseRequest_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  string
	}{
		{"FOO", nil, `unknown command "FOO"`},
		{"SHUTDOWN", nil, "use the shutdown subcommand to stop a server"},
		{"HSET", []string{"k", "f"}, "HSET takes 3 arguments, got 2"},
		{"EXPIRE", []string{"k", "soon"}, `EXPIRE argument 2: invalid integer "soon"`},
		{"ZADD", []string{"z", "high", "m"}, `ZADD argument 2: invalid float "high"`},
		{"GET", []string{"i:x"}, `GET argument 1: invalid integer "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRequest(tt.name, tt.args)
			require.EqualError(t, err, tt.err)
		})
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		line     string
		expected []string
	}{
		{"", nil},
		{"  GET   k ", []string{"GET", "k"}},
		{"SET k \"a b\"", []string{"SET", "k", "a b"}},
		{"SET \"\" \"tab\\there\"", []string{"SET", "", "tab\there"}},
	}

	for _, tt := range tests {
		fields, err := splitFields(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.expected, fields, tt.line)
	}

	_, err := splitFields(`SET k "open`)
	require.Error(t, err)
}

func TestParseLine(t *testing.T) {
	req, err := parseLine("  ")
	require.NoError(t, err)
	assert.Nil(t, req)

	req, err = parseLine(`HSET user:1 "full name" "Ada Lovelace"`)
	require.NoError(t, err)
	assert.Equal(t, `HSET "user:1" "full name" "Ada Lovelace"`, req.String())
}
