package timeline

import (
	"strconv"
	"time"

	"mercator-hq/thinout/pkg/thinout"
)

// Overview holds the two aligned rows describing a thinning state.
type Overview struct {
	// Items has one glyph per day: GlyphKept for a retained item,
	// GlyphRemoved for a day whose items were all removed, followed by
	// GlyphAnchor in the anchor column.
	Items string

	// Buckets marks every bucket begin and the anchor with GlyphBoundary and
	// centres the capacity label inside each bucket when it fits.
	Buckets string

	// From is the day of the first column.
	From time.Time
}

// String joins both rows with a newline.
func (o Overview) String() string {
	return o.Items + "\n" + o.Buckets
}

// Render builds the overview of kept and removed items against buckets.
// The rows start at the earlier of the oldest item and the oldest bucket and
// end with the anchor column.
func Render(kept, removed []thinout.Item, buckets []thinout.Bucket, anchor time.Time) Overview {
	anchor = thinout.Day(anchor)
	items := itemMap(kept, removed)
	bounds := bucketMap(buckets, anchor)

	from := anchor
	if first, _, ok := items.Bounds(); ok && first.Before(from) {
		from = first
	}
	if len(buckets) > 0 && buckets[0].Begin.Before(from) {
		from = buckets[0].Begin
	}
	end := anchor
	if _, last, ok := items.Bounds(); ok && !last.Before(end) {
		end = last.AddDate(0, 0, 1)
	}

	return Overview{
		Items:   items.Render(from, end, GlyphEmpty) + string(GlyphAnchor),
		Buckets: bounds.Render(from, end.AddDate(0, 0, 1), GlyphEmpty),
		From:    from,
	}
}

// ItemsTimeline renders items from the oldest to the newest day with
// GlyphKept on every day holding an item.
func ItemsTimeline(items []thinout.Item) string {
	m := itemMap(items, nil)
	first, last, ok := m.Bounds()
	if !ok {
		return ""
	}
	return m.Render(first, last.AddDate(0, 0, 1), GlyphEmpty)
}

// BucketsTimeline renders the bucket row from the oldest bucket begin to the
// anchor, inclusive.
func BucketsTimeline(buckets []thinout.Bucket) string {
	if len(buckets) == 0 {
		return ""
	}
	anchor := buckets[len(buckets)-1].End
	return bucketMap(buckets, anchor).Render(buckets[0].Begin, anchor.AddDate(0, 0, 1), GlyphEmpty)
}

func itemMap(kept, removed []thinout.Item) *Map {
	m := NewMap()
	for _, it := range removed {
		m.SetIfEmpty(it.Date, GlyphRemoved)
	}
	for _, it := range kept {
		m.Set(it.Date, GlyphKept)
	}
	return m
}

func bucketMap(buckets []thinout.Bucket, anchor time.Time) *Map {
	m := NewMap()
	for _, b := range buckets {
		span := b.Span()
		label := strconv.Itoa(b.Capacity)
		if span >= len(label)+1 {
			pad := (span - len(label) - 1) / 2
			for k, r := range label {
				m.Set(b.Begin.AddDate(0, 0, 1+pad+k), r)
			}
		}
		m.Set(b.Begin, GlyphBoundary)
	}
	m.Set(anchor, GlyphBoundary)
	return m
}
