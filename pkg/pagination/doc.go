// Package pagination aggregates paginated ERS collection fetches.
//
// ERS reports the total item count in the first page's SearchResult
// envelope and serves at most 100 items per page. This package fetches
// page 1, computes the remaining page count by ceiling division, fetches
// pages 2..N concurrently, and merges the items in page-then-within-page
// order.
//
// Example usage:
//
//	agg := pagination.NewAggregator(pagination.DefaultConfig(), logger)
//	result, err := agg.FetchAll(ctx, fetcher)
//
// The aggregator:
//   - Aborts the whole fetch if the first page fails (no total count,
//     no plan)
//   - Plans every follow-up page from the page-1 total only
//   - Records failed follow-up pages in Result.PageErrors instead of
//     silently dropping their item range
//   - Leaves rate limiting to the fetcher, which holds a gate ticket
//     per page call
package pagination
