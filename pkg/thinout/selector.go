package thinout

import (
	"fmt"
	"math"
)

// Scoring selects how the hole size and the weight of a candidate are
// combined. The two conventions are not interchangeable once weights differ.
type Scoring string

const (
	// ScoringProduct scores a candidate as hole * weight and removes the
	// candidate with the lowest score. A higher weight keeps an item longer.
	ScoringProduct Scoring = "product"

	// ScoringRatio scores a candidate as weight / hole and removes the
	// candidate with the highest score. Under this convention the weight is
	// a removal bias: a higher weight makes an item go sooner. A zero hole
	// scores +Inf.
	ScoringRatio Scoring = "ratio"
)

// DefaultScoring is the scoring convention used when none is configured.
const DefaultScoring = ScoringProduct

// ParseScoring parses a scoring name. The empty string yields DefaultScoring.
func ParseScoring(s string) (Scoring, error) {
	switch Scoring(s) {
	case "":
		return DefaultScoring, nil
	case ScoringProduct, ScoringRatio:
		return Scoring(s), nil
	default:
		return "", fmt.Errorf("unknown scoring %q (want %q or %q)", s, ScoringProduct, ScoringRatio)
	}
}

// Selector picks the item to remove from an over-capacity bucket.
type Selector struct {
	Scoring Scoring
}

// NewSelector creates a selector with the given scoring convention.
func NewSelector(scoring Scoring) Selector {
	if scoring == "" {
		scoring = DefaultScoring
	}
	return Selector{Scoring: scoring}
}

// Select returns the index into items of the item to remove from bucket b.
//
// The rules apply in order:
//  1. an empty range fails with ErrEmptyInterval;
//  2. a single item is returned unconditionally;
//  3. if the bucket reaches the end of items, the newest item is excluded,
//     and a single remaining candidate is returned;
//  4. if the bucket starts at index 0, the oldest item is excluded;
//  5. every remaining candidate i is scored from the hole left by removing
//     it, date[i+1] - date[i-1] in days, and its weight;
//  6. ties go to the lowest index.
func (s Selector) Select(items []Item, b Bucket) (int, error) {
	begin, end := b.BeginIdx, b.EndIdx
	if begin >= end {
		return 0, ErrEmptyInterval
	}
	if begin+1 == end {
		return begin, nil
	}
	if end == len(items) {
		end--
	}
	if begin+1 == end {
		return begin, nil
	}
	if begin == 0 {
		begin++
	}

	rm := -1
	var rmScore float64
	for i := begin; i < end; i++ {
		hole := float64(DaysBetween(items[i-1].Date, items[i+1].Date))
		w := weight(items, i)
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return 0, &WeightError{ItemID: items[i].ID, Weight: w}
		}

		score := s.score(hole, w)
		if rm < 0 || s.better(score, rmScore) {
			rm = i
			rmScore = score
		}
	}
	return rm, nil
}

func (s Selector) score(hole, w float64) float64 {
	if s.Scoring == ScoringRatio {
		if hole == 0 {
			return math.Inf(1)
		}
		return w / hole
	}
	return hole * w
}

// better reports whether score beats best. Equal scores never win, which
// keeps the first candidate on ties.
func (s Selector) better(score, best float64) bool {
	if s.Scoring == ScoringRatio {
		return score > best
	}
	return score < best
}
