package ers

import "net/url"

// QueryOption narrows a collection fetch. Options compose left to
// right; a later option for the same parameter replaces the earlier
// value. The resulting parameters are carried verbatim on every page
// request of the fetch.
type QueryOption func(*collectionQuery)

// WithFilter sets an ERS filter expression, e.g. "name.CONTAINS.voice".
func WithFilter(expr string) QueryOption {
	return func(q *collectionQuery) {
		q.values.Set("filter", expr)
	}
}

// WithFilterType sets how multiple filter expressions combine on the
// server, "AND" or "OR".
func WithFilterType(t string) QueryOption {
	return func(q *collectionQuery) {
		q.values.Set("filterType", t)
	}
}

// WithQuery sets an arbitrary query parameter for endpoint-specific
// switches the named options do not cover.
func WithQuery(key, value string) QueryOption {
	return func(q *collectionQuery) {
		q.values.Set(key, value)
	}
}

// collectionQuery is the accumulated query state of one GetAll call.
type collectionQuery struct {
	values url.Values
}

func buildQuery(opts []QueryOption) *collectionQuery {
	q := &collectionQuery{values: url.Values{}}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// hasFilter reports whether any filter parameter is set.
func (q *collectionQuery) hasFilter() bool {
	return q.values.Has("filter") || q.values.Has("filterType")
}

// dropFilter removes the filter parameters, for categories whose
// endpoints ignore them.
func (q *collectionQuery) dropFilter() {
	q.values.Del("filter")
	q.values.Del("filterType")
}

// encode returns the canonical URL-encoded form, parameters sorted by
// key. Empty when no options were given, which also serves as the
// cache-key component for unfiltered fetches.
func (q *collectionQuery) encode() string {
	return q.values.Encode()
}
