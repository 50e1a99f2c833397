// Package util provides small generic helpers with no dungeon semantics of
// their own.
package util

import "sort"

// SortBy returns a copy of sl sorted using the given less function to
// compare elements. The original slice is not modified.
func SortBy[T any](sl []T, less func(l, r T) bool) []T {
	sorted := make([]T, len(sl))
	copy(sorted, sl)

	sort.Slice(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	return sorted
}
