package kvclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/kvclient/internal/testutils"
)

func TestPoolStats_ChannelPool(t *testing.T) {
	pool, err := NewChannelPool(func(ctx context.Context) (*Connection, error) {
		return NewConnection(testutils.NewConnectionMock()), nil
	}, 2)
	require.NoError(t, err)
	defer pool.Close()

	ctx := testContext(t)
	assert.Equal(t, PoolStats{}, pool.Stats())

	res1, err := pool.Acquire(ctx)
	require.NoError(t, err)
	res2, err := pool.Acquire(ctx)
	require.NoError(t, err)

	stats := pool.Stats()
	assert.EqualValues(t, 2, stats.AcquireCount)
	assert.EqualValues(t, 2, stats.CreatedConns)
	assert.EqualValues(t, 2, stats.TotalConns)
	assert.EqualValues(t, 2, stats.ActiveConns)
	assert.EqualValues(t, 0, stats.IdleConns)

	time.AfterFunc(10*time.Millisecond, res1.Release)
	res3, err := pool.Acquire(ctx)
	require.NoError(t, err)

	stats = pool.Stats()
	assert.EqualValues(t, 1, stats.AcquireWaitCount)
	assert.Positive(t, stats.AcquireWaitTimeNs)
	assert.EqualValues(t, 2, stats.ActiveConns)

	res2.Destroy()
	res3.Release()

	stats = pool.Stats()
	assert.EqualValues(t, 1, stats.DestroyedConns)
	assert.EqualValues(t, 1, stats.TotalConns)
	assert.EqualValues(t, 1, stats.IdleConns)
	assert.EqualValues(t, 0, stats.ActiveConns)

	require.NoError(t, pool.Close())
	stats = pool.Stats()
	assert.EqualValues(t, 0, stats.TotalConns)
	assert.EqualValues(t, 0, stats.IdleConns)
	assert.EqualValues(t, 2, stats.DestroyedConns)

	_, err = pool.Acquire(ctx)
	require.ErrorIs(t, err, ErrPoolClosed)
	assert.EqualValues(t, 1, pool.Stats().AcquireErrors)
}

func TestPoolStats_ReleaseAfterClose(t *testing.T) {
	mock := testutils.NewConnectionMock()
	pool, err := NewChannelPool(func(ctx context.Context) (*Connection, error) {
		return NewConnection(mock), nil
	}, 1)
	require.NoError(t, err)

	res, err := pool.Acquire(testContext(t))
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	res.Release()

	assert.True(t, mock.Closed())
	assert.EqualValues(t, 0, pool.Stats().TotalConns)
}

func TestClientStatsCollector(t *testing.T) {
	var c clientStatsCollector

	c.recordRequest()
	c.recordRequest()
	c.recordBatch(5)
	c.recordResponseErrors(0)
	c.recordResponseErrors(2)
	c.recordError()

	assert.Equal(t, ClientStats{
		Requests:          2,
		Batches:           1,
		PipelinedRequests: 5,
		ResponseErrors:    2,
		Errors:            1,
	}, c.snapshot())
}
