// Package workload generates load against a set of servers.
package workload

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pior/kvclient"
	"github.com/pior/kvclient/wire"
)

// Workload represents a pattern of operations to execute against the client
type Workload interface {
	// Name returns the workload identifier
	Name() string

	// Description returns a human-readable description
	Description() string

	// Execute runs a single operation and reports which command it sent.
	// This is called concurrently by multiple workers.
	Execute(ctx context.Context, client *kvclient.Client, workerID int) (wire.CmdType, error)
}

// Recorder receives the outcome of every operation.
type Recorder interface {
	RecordOperation(command string, d time.Duration, err error)
}

// Runner executes a workload with specified concurrency
type Runner struct {
	client      *kvclient.Client
	workload    Workload
	concurrency int
	recorder    Recorder

	// Metrics
	opsSuccess atomic.Int64
	opsFailed  atomic.Int64
}

// NewRunner creates a workload runner. recorder may be nil.
func NewRunner(client *kvclient.Client, workload Workload, concurrency int, recorder Recorder) *Runner {
	return &Runner{
		client:      client,
		workload:    workload,
		concurrency: max(concurrency, 1),
		recorder:    recorder,
	}
}

// Run starts the workers and returns once ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := range r.concurrency {
		g.Go(func() error {
			r.worker(ctx, i)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) worker(ctx context.Context, workerID int) {
	for !finished(ctx) {
		start := time.Now()
		cmd, err := r.workload.Execute(ctx, r.client, workerID)
		if finished(ctx) {
			// interrupted by the end of the run, not a failure
			return
		}

		if err != nil {
			r.opsFailed.Add(1)
		} else {
			r.opsSuccess.Add(1)
		}
		if r.recorder != nil {
			r.recorder.RecordOperation(cmd.String(), time.Since(start), err)
		}
	}
}

// finished reports whether the run is over. Socket deadlines derived from ctx
// can fire before ctx itself reports done.
func finished(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	deadline, ok := ctx.Deadline()
	return ok && !time.Now().Before(deadline)
}

// Stats returns current operation statistics
func (r *Runner) Stats() Stats {
	success := r.opsSuccess.Load()
	failed := r.opsFailed.Load()
	total := success + failed

	var errorRate float64
	if total > 0 {
		errorRate = float64(failed) / float64(total)
	}

	return Stats{
		TotalOps:   total,
		SuccessOps: success,
		FailedOps:  failed,
		ErrorRate:  errorRate,
	}
}

// Stats holds workload execution statistics
type Stats struct {
	TotalOps   int64   `json:"total_ops" yaml:"total_ops"`
	SuccessOps int64   `json:"success_ops" yaml:"success_ops"`
	FailedOps  int64   `json:"failed_ops" yaml:"failed_ops"`
	ErrorRate  float64 `json:"error_rate" yaml:"error_rate"`
}

func (s Stats) String() string {
	return fmt.Sprintf("Total: %d, Success: %d, Failed: %d, Error Rate: %.2f%%",
		s.TotalOps, s.SuccessOps, s.FailedOps, s.ErrorRate*100)
}

// Registry of available workloads
var registry = make(map[string]Workload)

// Register adds a workload to the registry
func Register(w Workload) {
	registry[w.Name()] = w
}

// Get retrieves a workload by name
func Get(name string) (Workload, error) {
	w, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("workload not found: %s (available: %v)", name, Names())
	}
	return w, nil
}

// Names returns the registered workload names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func init() {
	Register(&MixedWorkload{})
	Register(&HashWorkload{})
	Register(&LeaderboardWorkload{})
	Register(&BatchWorkload{})
}
