package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	seen := map[CmdType]bool{}
	for _, info := range Commands() {
		assert.False(t, seen[info.Code], "duplicate code %d", info.Code)
		seen[info.Code] = true

		got, ok := info.Code.Info()
		require.True(t, ok)
		assert.Equal(t, info, got)
		assert.Equal(t, info.Name, info.Code.String())

		byName, ok := LookupCommand(info.Name)
		require.True(t, ok)
		assert.Equal(t, info.Code, byName.Code)
	}
	assert.Len(t, seen, 27)
}

func TestCatalogArity(t *testing.T) {
	tests := map[CmdType]int{
		CmdGet: 1, CmdSet: 2, CmdDel: 1, CmdKeys: 0,
		CmdExpire: 2, CmdTTL: 1, CmdPersist: 1,
		CmdHGet: 2, CmdHSet: 3, CmdHDel: 2, CmdHLen: 1, CmdHKeys: 1, CmdHGetAll: 1,
		CmdSAdd: 2, CmdSIsMember: 2, CmdSRem: 2, CmdSCard: 1, CmdSRandMember: 1, CmdSPop: 1, CmdSMembers: 1,
		CmdZAdd: 3, CmdZScore: 2, CmdZRank: 2, CmdZRem: 2, CmdZCard: 1, CmdZQuery: 5,
		CmdShutdown: 0,
	}
	for cmd, arity := range tests {
		info, ok := cmd.Info()
		require.True(t, ok, cmd.String())
		assert.Equal(t, arity, info.Arity, cmd.String())
	}
}

func TestLookupCommand(t *testing.T) {
	info, ok := LookupCommand("zquery")
	require.True(t, ok)
	assert.Equal(t, CmdZQuery, info.Code)
	assert.Equal(t, DomainSortedSet, info.Domain)

	_, ok = LookupCommand("FLUSHALL")
	assert.False(t, ok)
}

func TestUnknownCommand(t *testing.T) {
	c := CmdType(200)
	assert.False(t, c.Known())
	assert.Equal(t, "CMD(200)", c.String())
	_, ok := c.Info()
	assert.False(t, ok)
}

func TestRequestValidate(t *testing.T) {
	require.NoError(t, NewRequest(CmdSet, String("k"), Int(1)).Validate())
	require.NoError(t, NewRequest(CmdKeys).Validate())

	assert.Error(t, NewRequest(CmdSet, String("k")).Validate())
	assert.Error(t, NewRequest(CmdType(99)).Validate())
	assert.ErrorIs(t, NewRequest(CmdGet, Bool(true)).Validate(), ErrInvalidArgumentType)
}

func TestRequestString(t *testing.T) {
	assert.Equal(t, `SET "abc" 42`, NewRequest(CmdSet, String("abc"), Int(42)).String())
	assert.Equal(t, "KEYS", NewRequest(CmdKeys).String())
}
