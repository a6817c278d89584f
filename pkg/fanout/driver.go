// Package fanout issues one independent call per item of a caller-supplied
// list and collects per-item results in input order. Completion order is
// unconstrained; result order is not. Rate limiting is not this package's
// job: each call acquires its own gate ticket inside the call function.
package fanout

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for fan-out operations.
var (
	fanoutItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ise_fanout_items_total",
		Help: "Total items dispatched through the bulk fan-out driver",
	})

	fanoutBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ise_fanout_batch_size",
		Help:    "Item count per fan-out batch",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
	})
)

// Run dispatches n calls concurrently and returns their results indexed
// by input position. Every item produces exactly one result; a failing
// item never aborts the batch. A single-item batch takes the same path,
// so rate-limiting behavior is uniform regardless of batch size.
func Run[T any](ctx context.Context, n int, call func(ctx context.Context, index int) T) []T {
	start := time.Now()
	results := make([]T, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			results[index] = call(ctx, index)
		}(i)
	}
	wg.Wait()

	fanoutItemsTotal.Add(float64(n))
	fanoutBatchSize.Observe(float64(n))

	log.Debug().
		Str("component", "fanout").
		Int("items", n).
		Dur("duration", time.Since(start)).
		Msg("Fan-out complete")

	return results
}
