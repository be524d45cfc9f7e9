package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pior/kvclient"
	"github.com/pior/kvclient/internal/promexporter"
	"github.com/pior/kvclient/internal/workload"
)

type benchReport struct {
	Workload     string  `json:"workload" yaml:"workload"`
	Concurrency  int     `json:"concurrency" yaml:"concurrency"`
	Duration     string  `json:"duration" yaml:"duration"`
	TotalOps     int64   `json:"total_ops" yaml:"total_ops"`
	FailedOps    int64   `json:"failed_ops" yaml:"failed_ops"`
	ErrorRate    float64 `json:"error_rate" yaml:"error_rate"`
	OpsPerSecond float64 `json:"ops_per_second" yaml:"ops_per_second"`
	Requests     uint64  `json:"requests" yaml:"requests"`
	Batches      uint64  `json:"batches" yaml:"batches"`
	Pipelined    uint64  `json:"pipelined_requests" yaml:"pipelined_requests"`
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		workloadName string
		concurrency  int
		duration     time.Duration
		metricsAddr  string
		poolType     string
		breaker      bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Generate load against the servers",
		Long: fmt.Sprintf(`Generate load against the servers and report the throughput.

Workloads: %s.
With --metrics-addr, Prometheus metrics are served on /metrics while the
benchmark runs.`, strings.Join(workload.Names(), ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := workload.Get(workloadName)
			if err != nil {
				return err
			}

			config := a.clientConfig()
			config.MaxSize = max(config.MaxSize, int32(concurrency))
			switch poolType {
			case "channel":
				config.Pool = kvclient.NewChannelPool
			case "puddle":
				config.Pool = kvclient.NewPuddlePool
			default:
				return fmt.Errorf("unknown pool %q (expected channel or puddle)", poolType)
			}
			if breaker {
				config.NewCircuitBreaker = kvclient.NewCircuitBreakerConfig(3, time.Minute, 5*time.Second, a.logger)
			}

			client, err := kvclient.NewClient(kvclient.NewStaticServers(a.config.Servers...), config)
			if err != nil {
				return err
			}
			defer client.Close()

			exporter := promexporter.NewExporter(client)
			if metricsAddr != "" {
				srv := exporter.NewServer(metricsAddr)
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Error("Metrics server failed", zap.Error(err))
					}
				}()
				defer srv.Shutdown(context.Background())
				a.logger.Info("Serving metrics", zap.String("addr", metricsAddr))
			}

			a.logger.Info("Starting workload",
				zap.String("workload", w.Name()),
				zap.Int("concurrency", concurrency),
				zap.Duration("duration", duration))

			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			runner := workload.NewRunner(client, w, concurrency, exporter.WorkloadMetrics())
			start := time.Now()
			if err := runner.Run(ctx); err != nil {
				return err
			}
			elapsed := time.Since(start)

			stats := runner.Stats()
			clientStats := client.Stats()
			a.print(cmd, benchReport{
				Workload:     w.Name(),
				Concurrency:  concurrency,
				Duration:     elapsed.Round(time.Millisecond).String(),
				TotalOps:     stats.TotalOps,
				FailedOps:    stats.FailedOps,
				ErrorRate:    stats.ErrorRate,
				OpsPerSecond: float64(stats.TotalOps) / elapsed.Seconds(),
				Requests:     clientStats.Requests,
				Batches:      clientStats.Batches,
				Pipelined:    clientStats.PipelinedRequests,
			})
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&workloadName, "workload", "w", "mixed", "workload to run")
	flags.IntVarP(&concurrency, "concurrency", "c", 10, "number of concurrent workers")
	flags.DurationVarP(&duration, "duration", "d", 10*time.Second, "how long to run")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.StringVar(&poolType, "pool", "channel", "connection pool: channel or puddle")
	flags.BoolVar(&breaker, "circuit-breaker", true, "wrap each server in a circuit breaker")
	return cmd
}
