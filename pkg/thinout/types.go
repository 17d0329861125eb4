package thinout

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weigher reports how valuable the item at index is within items.
// Higher values make an item more expensive to remove under ScoringProduct.
// A weigher may look at neighbouring items; it must not modify the slice.
type Weigher func(items []Item, index int) float64

// Item is a dated unit under retention.
type Item struct {
	// ID identifies the item to the caller (e.g. a file path).
	// The engine never interprets it.
	ID string

	// Date is the calendar day of the item. The engine drops the
	// time-of-day component, see Day.
	Date time.Time

	// Weight is an optional weigher. Nil means a constant weight of 1.0.
	Weight Weigher
}

// NewItem creates an item with the given ID and date and the default weight.
func NewItem(id string, date time.Time) Item {
	return Item{ID: id, Date: Day(date)}
}

// weight evaluates the item weigher for items[index].
func weight(items []Item, index int) float64 {
	w := items[index].Weight
	if w == nil {
		return 1.0
	}
	return w(items, index)
}

// Day returns midnight UTC of the civil date of t in t's own location.
// Two times on the same calendar day in the same location map to the
// same Day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b.
// Both arguments are normalized with Day first.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}

// Entry is a single policy entry: within the Span days ending at the
// current bucket boundary, keep at most Capacity items.
type Entry struct {
	Span     int `yaml:"span" json:"span"`
	Capacity int `yaml:"capacity" json:"capacity"`
}

// String renders the entry as "span:capacity".
func (e Entry) String() string {
	return fmt.Sprintf("%d:%d", e.Span, e.Capacity)
}

// Policy is an ordered list of entries, nearest-to-anchor first: the first
// entry describes the most recent, highest resolution bucket.
type Policy []Entry

// String renders the policy as a comma separated list of "span:capacity".
func (p Policy) String() string {
	parts := make([]string, len(p))
	for i, e := range p {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}

// Validate checks every entry of the policy.
func (p Policy) Validate() error {
	if len(p) == 0 {
		return ErrEmptyPolicy
	}
	for i, e := range p {
		if e.Span < 0 || e.Capacity < 0 {
			return NewPolicyError(i, e, ErrNegativeEntry)
		}
		if e.Span < e.Capacity {
			return NewPolicyError(i, e, ErrCapacityExceedsSpan)
		}
	}
	return nil
}

// Days returns the total number of days covered by the policy.
func (p Policy) Days() int {
	total := 0
	for _, e := range p {
		total += e.Span
	}
	return total
}

// ParsePolicy parses a policy of the form "4:4,15:5,40:4".
// Whitespace around entries is ignored. The result is validated.
func ParsePolicy(s string) (Policy, error) {
	var p Policy
	for i, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		spanStr, capStr, ok := strings.Cut(field, ":")
		if !ok {
			return nil, fmt.Errorf("policy entry %d %q: expected span:capacity", i, field)
		}
		span, err := strconv.Atoi(strings.TrimSpace(spanStr))
		if err != nil {
			return nil, fmt.Errorf("policy entry %d %q: invalid span: %w", i, field, err)
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(capStr))
		if err != nil {
			return nil, fmt.Errorf("policy entry %d %q: invalid capacity: %w", i, field, err)
		}
		p = append(p, Entry{Span: span, Capacity: capacity})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Bucket is a half-open date interval [Begin, End) allowed to hold at most
// Capacity items, together with the index range [BeginIdx, EndIdx) of the
// items currently falling into it.
type Bucket struct {
	Begin    time.Time
	End      time.Time
	Capacity int

	BeginIdx int
	EndIdx   int
}

// Len returns the number of items currently in the bucket.
func (b Bucket) Len() int {
	return b.EndIdx - b.BeginIdx
}

// Span returns the number of days covered by the bucket.
func (b Bucket) Span() int {
	return DaysBetween(b.Begin, b.End)
}

// TooMany reports whether the bucket holds more items than its capacity.
func (b Bucket) TooMany() bool {
	return b.Len() > b.Capacity
}

// Contains reports whether date falls into [Begin, End).
func (b Bucket) Contains(date time.Time) bool {
	d := Day(date)
	return !d.Before(b.Begin) && d.Before(b.End)
}
