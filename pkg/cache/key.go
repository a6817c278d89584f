package cache

import "strings"

// Key identifies one cached collection fetch: a category plus the
// filter it was fetched with.
type Key struct {
	// Category is the ERS category name, e.g. "networkdevice".
	Category string

	// Filter is the ERS filter expression, empty for unfiltered fetches.
	Filter string
}

// String generates a deterministic Redis key.
// Format: ers:<category>:<filter>, with "all" for an empty filter.
//
// Example:
//
//	ers:networkdevice:all
//	ers:endpoint:name.CONTAINS.voice
func (k Key) String() string {
	filter := strings.TrimPrefix(k.Filter, "filter=")
	if filter == "" {
		filter = "all"
	}
	return "ers:" + k.Category + ":" + filter
}

// categoryPattern returns the Redis key pattern matching every cached
// fetch of one category, regardless of filter.
func categoryPattern(categoryName string) string {
	return "ers:" + categoryName + ":*"
}
