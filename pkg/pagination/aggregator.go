package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for pagination.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ise_pages_fetched_total",
		Help: "Total pages fetched during collection aggregation",
	})

	pageFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ise_page_failures_total",
		Help: "Total follow-up pages that failed during collection aggregation",
	})
)

// PageFetcher fetches one page of a collection. Implementations route the
// call through the admission gate; the aggregator never bypasses it.
// total is the server-reported total item count, read from page 1 only.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (items []map[string]any, total int, err error)
}

// Config holds aggregator configuration.
type Config struct {
	// PageSize is the fixed, server-defined page size. ERS serves at
	// most 100 items per page.
	PageSize int
}

// DefaultConfig returns the ERS page size.
func DefaultConfig() Config {
	return Config{PageSize: 100}
}

// PageError marks one failed follow-up page: the item range [First,
// Last] the page would have covered in the merged collection, and the
// error it failed with.
type PageError struct {
	First int
	Last  int
	Err   error
}

// Error implements the error interface.
func (e PageError) Error() string {
	return fmt.Sprintf("items %d-%d missing: %v", e.First, e.Last, e.Err)
}

// Unwrap exposes the underlying fetch error to errors.Is/As.
func (e PageError) Unwrap() error {
	return e.Err
}

// Result is one aggregated collection fetch. Items are ordered by page
// index, then within-page order. Pages that failed after a successful
// first page are recorded in PageErrors instead of being silently
// dropped, so callers can detect partial results and which item ranges
// are missing.
type Result struct {
	Items      []map[string]any
	Total      int
	TotalPages int
	PageErrors map[int]PageError
}

// Complete reports whether every planned page was fetched successfully.
func (r *Result) Complete() bool {
	return len(r.PageErrors) == 0
}

// Aggregator drives a paginated collection fetch: first page for the
// total count, then all remaining pages concurrently.
type Aggregator struct {
	cfg    Config
	logger zerolog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(cfg Config, logger zerolog.Logger) *Aggregator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &Aggregator{cfg: cfg, logger: logger}
}

// FetchAll fetches every page of a collection and merges the items in
// page order. A failed first page aborts the whole operation: without it
// the total count is unknown and no further pages can be planned. The
// page-1 total is authoritative for planning; paging metadata embedded
// in later pages is ignored, so a count changing under a concurrent
// external mutation is not reconciled.
func (a *Aggregator) FetchAll(ctx context.Context, fetcher PageFetcher) (*Result, error) {
	start := time.Now()

	firstItems, total, err := fetcher.FetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}
	pagesFetchedTotal.Inc()

	totalPages := (total + a.cfg.PageSize - 1) / a.cfg.PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	result := &Result{
		Items:      firstItems,
		Total:      total,
		TotalPages: totalPages,
		PageErrors: make(map[int]PageError),
	}

	if totalPages <= 1 {
		a.logger.Debug().
			Int("total", total).
			Dur("duration", time.Since(start)).
			Msg("Collection fetch complete (single page)")
		return result, nil
	}

	a.logger.Info().
		Int("total", total).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	// Pages 2..N concurrently; each fetch is independently gate-admitted
	// inside the fetcher, which is where the ceiling actually throttles
	// throughput.
	type pageOutcome struct {
		items []map[string]any
		err   error
	}
	outcomes := make([]pageOutcome, totalPages+1)

	var wg sync.WaitGroup
	for page := 2; page <= totalPages; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			items, _, err := fetcher.FetchPage(ctx, page)
			outcomes[page] = pageOutcome{items: items, err: err}
		}(page)
	}
	wg.Wait()

	// Merge in strict page-index order.
	for page := 2; page <= totalPages; page++ {
		o := outcomes[page]
		if o.err != nil {
			pageFailuresTotal.Inc()
			result.PageErrors[page] = PageError{
				First: (page - 1) * a.cfg.PageSize,
				Last:  min(total, page*a.cfg.PageSize) - 1,
				Err:   o.err,
			}
			a.logger.Warn().
				Err(o.err).
				Int("page", page).
				Msg("Page fetch failed")
			continue
		}
		pagesFetchedTotal.Inc()
		result.Items = append(result.Items, o.items...)
	}

	a.logger.Info().
		Int("pages", totalPages).
		Int("failed_pages", len(result.PageErrors)).
		Int("items", len(result.Items)).
		Dur("duration", time.Since(start)).
		Msg("Collection fetch complete")

	return result, nil
}
