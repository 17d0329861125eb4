package timeline

import (
	"strings"
	"time"

	"github.com/emirpasic/gods/maps/treemap"

	"mercator-hq/thinout/pkg/thinout"
)

// Glyphs used by the overview rows.
const (
	GlyphKept     = 'x'
	GlyphRemoved  = '-'
	GlyphEmpty    = ' '
	GlyphAnchor   = '_'
	GlyphBoundary = '['
)

// Map is a sparse, ordered mapping from calendar day to glyph.
type Map struct {
	days *treemap.Map
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{days: treemap.NewWithIntComparator()}
}

// dayNumber converts a date into a day count since the Unix epoch.
func dayNumber(t time.Time) int {
	return thinout.DaysBetween(time.Unix(0, 0).UTC(), t)
}

// Set stores glyph for the day of t, replacing any previous glyph.
func (m *Map) Set(t time.Time, glyph rune) {
	m.days.Put(dayNumber(t), glyph)
}

// SetIfEmpty stores glyph for the day of t unless the day already has one.
func (m *Map) SetIfEmpty(t time.Time, glyph rune) {
	if _, ok := m.days.Get(dayNumber(t)); !ok {
		m.days.Put(dayNumber(t), glyph)
	}
}

// Get returns the glyph stored for the day of t.
func (m *Map) Get(t time.Time) (rune, bool) {
	v, ok := m.days.Get(dayNumber(t))
	if !ok {
		return 0, false
	}
	return v.(rune), true
}

// Len returns the number of days with a glyph.
func (m *Map) Len() int {
	return m.days.Size()
}

// Bounds returns the first and last day holding a glyph.
func (m *Map) Bounds() (first, last time.Time, ok bool) {
	if m.days.Empty() {
		return time.Time{}, time.Time{}, false
	}
	minKey, _ := m.days.Min()
	maxKey, _ := m.days.Max()
	return fromDayNumber(minKey.(int)), fromDayNumber(maxKey.(int)), true
}

// Render returns one glyph per day in [from, to), using fill for days that
// have no glyph.
func (m *Map) Render(from, to time.Time, fill rune) string {
	start, end := dayNumber(from), dayNumber(to)
	if end <= start {
		return ""
	}

	var sb strings.Builder
	sb.Grow(end - start)
	next := start
	it := m.days.Iterator()
	for it.Next() {
		d := it.Key().(int)
		if d < start {
			continue
		}
		if d >= end {
			break
		}
		for ; next < d; next++ {
			sb.WriteRune(fill)
		}
		sb.WriteRune(it.Value().(rune))
		next = d + 1
	}
	for ; next < end; next++ {
		sb.WriteRune(fill)
	}
	return sb.String()
}

func fromDayNumber(n int) time.Time {
	return time.Unix(0, 0).UTC().AddDate(0, 0, n)
}
