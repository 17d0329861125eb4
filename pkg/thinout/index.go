package thinout

// Reindex returns a copy of buckets with BeginIdx and EndIdx set to the range
// of items whose date falls into each bucket.
//
// It makes a single forward pass over items with one cursor, so items must be
// sorted by date and buckets must be chronological and non-overlapping. The
// input buckets are not modified.
func Reindex(items []Item, buckets []Bucket) []Bucket {
	out := make([]Bucket, len(buckets))
	idx := 0
	for i, b := range buckets {
		for idx < len(items) && items[idx].Date.Before(b.Begin) {
			idx++
		}
		b.BeginIdx = idx
		for idx < len(items) && items[idx].Date.Before(b.End) {
			idx++
		}
		b.EndIdx = idx
		out[i] = b
	}
	return out
}
