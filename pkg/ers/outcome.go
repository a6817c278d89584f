package ers

import (
	"fmt"

	"github.com/nuuday/NDCiscoISE/pkg/pagination"
)

// Resource is the untyped record shape ERS payloads decode into. It is
// an alias so collections interoperate with the pagination package
// without conversion.
type Resource = map[string]any

// OutcomeStatus classifies the result of one physical call.
type OutcomeStatus string

const (
	// StatusSuccess covers the 2xx family.
	StatusSuccess OutcomeStatus = "success"

	// StatusNotFound is a 404: a valid terminal state for get and
	// delete, distinct from error.
	StatusNotFound OutcomeStatus = "not_found"

	// StatusValidation covers 4xx other than 404.
	StatusValidation OutcomeStatus = "validation_error"

	// StatusServer covers the 5xx family.
	StatusServer OutcomeStatus = "server_error"

	// StatusTransport covers connection-level failures (timeout, DNS,
	// TLS) where no HTTP status exists.
	StatusTransport OutcomeStatus = "transport_error"
)

// CallOutcome is the classified result of exactly one physical call.
// The executor never raises past its boundary: every failure mode is a
// value here so callers can aggregate uniformly.
type CallOutcome struct {
	Status OutcomeStatus

	// HTTPStatus is the response status code; zero for transport errors.
	HTTPStatus int

	// Payload is the decoded response body on success. Empty for 204.
	Payload Resource

	// BulkID carries the bulk request id extracted from a 202 Location
	// header.
	BulkID string

	// Err carries the classified error for non-success outcomes.
	Err error
}

// OK reports whether the call succeeded.
func (o CallOutcome) OK() bool {
	return o.Status == StatusSuccess
}

// AggregatedResult is the ordered per-item outcome sequence of one bulk
// operation. Index i is the outcome for input item i; failures are
// recorded in place, never dropped, so the length always equals the
// number of items requested.
type AggregatedResult struct {
	Outcomes []CallOutcome
}

// AllSuccess reports whether every item outcome succeeded. This is the
// boolean success signal for pure mutation operations.
func (r AggregatedResult) AllSuccess() bool {
	for _, o := range r.Outcomes {
		if !o.OK() {
			return false
		}
	}
	return true
}

// Failed returns the input indexes of non-success outcomes.
func (r AggregatedResult) Failed() []int {
	var failed []int
	for i, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, i)
		}
	}
	return failed
}

// Err condenses the result into a single error: nil when every item
// succeeded, otherwise ErrBulkIncomplete carrying the failure count.
// Per-item detail stays in Outcomes.
func (r AggregatedResult) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d items failed", ErrBulkIncomplete, len(failed), len(r.Outcomes))
}

// Collection is one merged collection fetch: resources in page-then-
// within-page order plus any per-page failures.
type Collection struct {
	Resources []Resource

	// Total is the server-reported item count from page 1.
	Total int

	// PageErrors maps failed page indexes to their failure markers,
	// including the item range each page would have covered. Non-empty
	// means the collection is partial.
	PageErrors map[int]pagination.PageError
}

// Complete reports whether every page was fetched successfully.
func (c *Collection) Complete() bool {
	return len(c.PageErrors) == 0
}
