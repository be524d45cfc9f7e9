package workload

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/pior/kvclient"
	"github.com/pior/kvclient/wire"
)

// MixedWorkload performs a realistic mix of scalar operations
type MixedWorkload struct{}

func (w *MixedWorkload) Name() string {
	return "mixed"
}

func (w *MixedWorkload) Description() string {
	return "Scalar operations: 60% get, 30% set, 5% del, 5% expire"
}

func (w *MixedWorkload) Execute(ctx context.Context, client *kvclient.Client, workerID int) (wire.CmdType, error) {
	// skewed distribution to simulate hot keys
	var key string
	if rand.Float64() < 0.3 {
		key = fmt.Sprintf("hot-key-%d", rand.IntN(10))
	} else {
		key = fmt.Sprintf("key-worker%d-%d", workerID, rand.IntN(1000))
	}

	op := rand.Float64()
	switch {
	case op < 0.60:
		_, err := client.Get(ctx, key)
		return wire.CmdGet, err

	case op < 0.90:
		value := wire.String(fmt.Sprintf("value-%d-%d", workerID, time.Now().UnixNano()))
		return wire.CmdSet, client.Set(ctx, key, value)

	case op < 0.95:
		_, err := client.Del(ctx, key)
		return wire.CmdDel, err

	default:
		ttl := time.Duration(30+rand.IntN(60)) * time.Second
		_, err := client.Expire(ctx, key, ttl)
		return wire.CmdExpire, err
	}
}

// HashWorkload reads and writes fields of a few hashes
type HashWorkload struct{}

func (w *HashWorkload) Name() string {
	return "hash"
}

func (w *HashWorkload) Description() string {
	return "Hash operations: 70% hget, 25% hset, 5% hgetall"
}

func (w *HashWorkload) Execute(ctx context.Context, client *kvclient.Client, workerID int) (wire.CmdType, error) {
	key := fmt.Sprintf("hash-%d", rand.IntN(20))
	field := fmt.Sprintf("field-%d", rand.IntN(50))

	op := rand.Float64()
	switch {
	case op < 0.70:
		_, err := client.HGet(ctx, key, field)
		return wire.CmdHGet, err

	case op < 0.95:
		_, err := client.HSet(ctx, key, field, wire.Int(int64(workerID)))
		return wire.CmdHSet, err

	default:
		_, err := client.HGetAll(ctx, key)
		return wire.CmdHGetAll, err
	}
}

// LeaderboardWorkload maintains sorted sets and pages through them
type LeaderboardWorkload struct{}

func (w *LeaderboardWorkload) Name() string {
	return "leaderboard"
}

func (w *LeaderboardWorkload) Description() string {
	return "Sorted set operations: 50% zadd, 30% zquery, 20% zrank"
}

func (w *LeaderboardWorkload) Execute(ctx context.Context, client *kvclient.Client, workerID int) (wire.CmdType, error) {
	key := fmt.Sprintf("board-%d", rand.IntN(5))
	member := fmt.Sprintf("player-%d", rand.IntN(500))

	op := rand.Float64()
	switch {
	case op < 0.50:
		_, err := client.ZAdd(ctx, key, rand.Float64()*1000, member)
		return wire.CmdZAdd, err

	case op < 0.80:
		_, err := client.ZQuery(ctx, key, rand.Float64()*1000, "", 0, 10)
		return wire.CmdZQuery, err

	default:
		_, _, err := client.ZRank(ctx, key, member)
		return wire.CmdZRank, err
	}
}

// BatchWorkload pipelines multi-key reads and writes across servers
type BatchWorkload struct{}

func (w *BatchWorkload) Name() string {
	return "batch"
}

func (w *BatchWorkload) Description() string {
	return "Pipelined batches of 20 keys: 80% multi-get, 20% multi-set"
}

func (w *BatchWorkload) Execute(ctx context.Context, client *kvclient.Client, workerID int) (wire.CmdType, error) {
	const size = 20

	keys := make([]string, size)
	for i := range keys {
		keys[i] = fmt.Sprintf("batch-key-%d", rand.IntN(2000))
	}

	if rand.Float64() < 0.80 {
		_, err := client.Batch().MultiGet(ctx, keys)
		return wire.CmdGet, err
	}

	entries := make([]kvclient.Entry, size)
	for i, key := range keys {
		entries[i] = kvclient.Entry{Key: key, Value: wire.Int(int64(workerID))}
	}
	return wire.CmdSet, client.Batch().MultiSet(ctx, entries)
}
