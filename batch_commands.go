package kvclient

import (
	"context"
	"fmt"

	"github.com/pior/kvclient/wire"
)

// BatchCommands provides batch operations using a BatchExecutor.
// Each batch is pipelined: on a single connection all requests are written
// at once and the responses read back in order.
type BatchCommands struct {
	executor BatchExecutor
}

// NewBatchCommands creates a new BatchCommands instance.
// The executor must implement BatchExecutor (e.g., Connection, ServerPool or
// Client).
func NewBatchCommands(executor BatchExecutor) *BatchCommands {
	return &BatchCommands{
		executor: executor,
	}
}

// MultiGet retrieves multiple values in a single batch operation.
// Returns values in the same order as the keys, with Nil for missing keys.
func (b *BatchCommands) MultiGet(ctx context.Context, keys []string) ([]wire.Value, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	reqs := make([]*wire.Request, len(keys))
	for i, key := range keys {
		reqs[i] = wire.NewRequest(wire.CmdGet, wire.String(key))
	}

	responses, err := b.executor.ExecuteBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}

	values := make([]wire.Value, len(keys))
	for i, resp := range responses {
		v, err := resp.Result()
		if err != nil {
			return nil, fmt.Errorf("get %q: %w", keys[i], err)
		}
		values[i] = v
	}
	return values, nil
}

// MultiSet stores multiple entries in a single batch operation.
// Returns error on first failure.
func (b *BatchCommands) MultiSet(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	reqs := make([]*wire.Request, len(entries))
	for i, e := range entries {
		reqs[i] = wire.NewRequest(wire.CmdSet, wire.String(e.Key), e.Value)
	}

	responses, err := b.executor.ExecuteBatch(ctx, reqs)
	if err != nil {
		return err
	}

	for i, resp := range responses {
		if _, err := resp.Result(); err != nil {
			return fmt.Errorf("set %q: %w", entries[i].Key, err)
		}
	}
	return nil
}

// MultiDel deletes multiple keys in a single batch operation and returns how
// many existed.
func (b *BatchCommands) MultiDel(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	reqs := make([]*wire.Request, len(keys))
	for i, key := range keys {
		reqs[i] = wire.NewRequest(wire.CmdDel, wire.String(key))
	}

	responses, err := b.executor.ExecuteBatch(ctx, reqs)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for i, resp := range responses {
		v, err := resp.Result()
		if err != nil {
			return deleted, fmt.Errorf("del %q: %w", keys[i], err)
		}
		existed, ok := v.AsBool()
		if !ok {
			return deleted, unexpectedKind(wire.CmdDel, v, wire.KindBool)
		}
		if existed {
			deleted++
		}
	}
	return deleted, nil
}

// Pipeline queues arbitrary requests to send them as one batch.
//
//	p := kvclient.NewBatchCommands(client).Pipeline()
//	p.Add(wire.CmdSet, wire.String("a"), wire.Int(1))
//	p.Add(wire.CmdGet, wire.String("a"))
//	results, err := p.Exec(ctx)
func (b *BatchCommands) Pipeline() *Pipeline {
	return &Pipeline{executor: b.executor}
}

type Pipeline struct {
	executor BatchExecutor
	reqs     []*wire.Request
}

// Add queues a request.
func (p *Pipeline) Add(cmd wire.CmdType, args ...wire.Value) *Pipeline {
	p.reqs = append(p.reqs, wire.NewRequest(cmd, args...))
	return p
}

// AddRequest queues a prebuilt request.
func (p *Pipeline) AddRequest(req *wire.Request) *Pipeline {
	p.reqs = append(p.reqs, req)
	return p
}

func (p *Pipeline) Len() int {
	return len(p.reqs)
}

// Exec validates every queued request against the catalog, sends them in one
// batch and clears the queue.
//
// The returned error covers the batch as a whole (invalid request, I/O,
// corrupted stream). Server errors for individual requests are reported in
// Result.Err.
func (p *Pipeline) Exec(ctx context.Context) ([]Result, error) {
	reqs := p.reqs
	p.reqs = nil

	if len(reqs) == 0 {
		return nil, nil
	}

	for i, req := range reqs {
		if req.Command == wire.CmdShutdown {
			return nil, fmt.Errorf("request %d: %s cannot be pipelined", i, req.Command)
		}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
	}

	responses, err := p.executor.ExecuteBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(responses))
	for i, resp := range responses {
		results[i].Value, results[i].Err = resp.Result()
	}
	return results, nil
}
