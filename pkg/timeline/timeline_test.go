package timeline

import (
	"testing"
	"time"

	"mercator-hq/thinout/pkg/thinout"
)

var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return epoch.AddDate(0, 0, n)
}

func items(days ...int) []thinout.Item {
	out := make([]thinout.Item, len(days))
	for i, d := range days {
		out[i] = thinout.NewItem("", day(d))
	}
	return out
}

func TestMap_Render(t *testing.T) {
	m := NewMap()
	m.Set(day(2), 'a')
	m.Set(day(5), 'b')
	m.Set(day(9), 'c')
	m.Set(day(5), 'B')

	tests := []struct {
		name     string
		from, to int
		want     string
	}{
		{"full range", 0, 10, "  a  B   c"},
		{"clipped", 3, 9, "  B   "},
		{"empty range", 4, 4, ""},
		{"no glyphs in range", 6, 8, ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fill := ' '
			if tt.name == "no glyphs in range" {
				fill = '.'
			}
			if got := m.Render(day(tt.from), day(tt.to), fill); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}

	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
	if g, ok := m.Get(day(5)); !ok || g != 'B' {
		t.Errorf("Get(day 5) = %q, %v", g, ok)
	}
	first, last, ok := m.Bounds()
	if !ok || !first.Equal(day(2)) || !last.Equal(day(9)) {
		t.Errorf("Bounds() = %v, %v, %v", first, last, ok)
	}
}

func TestRender_WorkedExample(t *testing.T) {
	policy := thinout.Policy{{Span: 4, Capacity: 2}, {Span: 8, Capacity: 3}}
	eng, err := thinout.New(policy, items(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10), thinout.WithAnchor(day(11)))
	if err != nil {
		t.Fatal(err)
	}
	removed, err := eng.Drain()
	if err != nil {
		t.Fatal(err)
	}

	ov := Render(eng.Items(), removed, eng.Buckets(), eng.Anchor())

	if want := " x-x-x--x--x_"; ov.Items != want {
		t.Errorf("Items row = %q, want %q", ov.Items, want)
	}
	if want := "[   3   [ 2 ["; ov.Buckets != want {
		t.Errorf("Buckets row = %q, want %q", ov.Buckets, want)
	}
	if !ov.From.Equal(day(-1)) {
		t.Errorf("From = %v, want %v", ov.From, day(-1))
	}
}

func TestRender_KeptWinsOverRemovedOnSameDay(t *testing.T) {
	buckets, _ := thinout.Policy{{Span: 3, Capacity: 3}}.Compile(day(3))
	ov := Render(items(1), items(1, 2), buckets, day(3))

	if want := " x-_"; ov.Items != want {
		t.Errorf("Items row = %q, want %q", ov.Items, want)
	}
}

func TestRender_ItemsAfterAnchor(t *testing.T) {
	buckets, _ := thinout.Policy{{Span: 2, Capacity: 1}}.Compile(day(2))
	ov := Render(items(0, 4), nil, buckets, day(2))

	if want := "x   x_"; ov.Items != want {
		t.Errorf("Items row = %q, want %q", ov.Items, want)
	}
	if want := "[1[   "; ov.Buckets != want {
		t.Errorf("Buckets row = %q, want %q", ov.Buckets, want)
	}
}

func TestItemsTimeline(t *testing.T) {
	if got := ItemsTimeline(nil); got != "" {
		t.Errorf("ItemsTimeline(nil) = %q", got)
	}
	if got, want := ItemsTimeline(items(3, 4, 7)), "xx  x"; got != want {
		t.Errorf("ItemsTimeline() = %q, want %q", got, want)
	}
}

func TestBucketsTimeline(t *testing.T) {
	buckets, _ := thinout.Policy{{Span: 4, Capacity: 4}, {Span: 15, Capacity: 12}, {Span: 1, Capacity: 1}}.Compile(day(20))

	// Spans of 1, 15 and 4 days; the one-day bucket has no room for a label.
	want := "[[      12      [ 4 ["
	if got := BucketsTimeline(buckets); got != want {
		t.Errorf("BucketsTimeline() = %q, want %q", got, want)
	}
}
