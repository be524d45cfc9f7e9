package kvclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pior/kvclient/internal/kvtest"
	"github.com/pior/kvclient/wire"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func dialTest(t *testing.T, srv *kvtest.Server) *Connection {
	t.Helper()
	conn, err := Connect(srv.Addr(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newTestClient(t *testing.T, config Config, servers ...*kvtest.Server) *Client {
	t.Helper()

	addrs := make([]string, len(servers))
	for i, srv := range servers {
		addrs[i] = srv.Addr()
	}

	client, err := NewClient(NewStaticServers(addrs...), config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// responseBytes encodes a sequence of response envelopes.
func responseBytes(t *testing.T, values ...wire.Value) []byte {
	t.Helper()
	var out []byte
	for _, v := range values {
		var err error
		out, err = wire.AppendResponse(out, wire.StatusOK, v)
		require.NoError(t, err)
	}
	return out
}

func requireValue(t *testing.T, want, got wire.Value) {
	t.Helper()
	require.True(t, wire.Equal(want, got), "want %s, got %s", want, got)
}
