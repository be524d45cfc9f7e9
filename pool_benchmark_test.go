package kvclient

import (
	"context"
	"testing"

	"github.com/pior/kvclient/internal/testutils"
)

func mockConnection(context.Context) (*Connection, error) {
	return NewConnection(testutils.NewConnectionMock()), nil
}

// BenchmarkPool_Acquire_Creation benchmarks acquiring a connection when pool is empty (creation path)
func BenchmarkPool_Acquire_Creation(b *testing.B) {
	for name, factory := range poolFactories {
		b.Run(name, func(b *testing.B) {
			ctx := context.Background()

			for b.Loop() {
				pool, err := factory(mockConnection, 1)
				if err != nil {
					b.Fatal(err)
				}

				res, err := pool.Acquire(ctx)
				if err != nil {
					b.Fatal(err)
				}

				res.Destroy()
				_ = pool.Close()
			}
		})
	}
}

// BenchmarkPool_AcquireRelease benchmarks the idle reuse path.
func BenchmarkPool_AcquireRelease(b *testing.B) {
	for name, factory := range poolFactories {
		b.Run(name, func(b *testing.B) {
			ctx := context.Background()
			pool, err := factory(mockConnection, 4)
			if err != nil {
				b.Fatal(err)
			}
			defer pool.Close()

			for b.Loop() {
				res, err := pool.Acquire(ctx)
				if err != nil {
					b.Fatal(err)
				}
				res.Release()
			}
		})
	}
}

func BenchmarkPool_AcquireRelease_Parallel(b *testing.B) {
	for name, factory := range poolFactories {
		b.Run(name, func(b *testing.B) {
			ctx := context.Background()
			pool, err := factory(mockConnection, 8)
			if err != nil {
				b.Fatal(err)
			}
			defer pool.Close()

			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					res, err := pool.Acquire(ctx)
					if err != nil {
						b.Error(err)
						return
					}
					res.Release()
				}
			})
		})
	}
}
