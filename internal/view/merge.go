package view

import "bookfinder/internal/platform/openlibrary"

// MergeUnique appends next to existing, keeping the first occurrence of each
// key in first-seen order.
func MergeUnique(existing, next []openlibrary.BookSummary) []openlibrary.BookSummary {
	seen := make(map[string]struct{}, len(existing)+len(next))
	merged := make([]openlibrary.BookSummary, 0, len(existing)+len(next))
	for _, list := range [][]openlibrary.BookSummary{existing, next} {
		for _, b := range list {
			if _, dup := seen[b.Key]; dup {
				continue
			}
			seen[b.Key] = struct{}{}
			merged = append(merged, b)
		}
	}
	return merged
}
