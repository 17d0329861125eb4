package thinout

import (
	"slices"
	"time"
)

// Compile converts the policy into chronologically ordered buckets ending
// at anchor. Entries are laid out backward from the anchor, so the first
// entry becomes the newest bucket; the result is returned oldest first.
// The anchor is normalized with Day. Index ranges are left at zero.
//
// Compile fails with a *PolicyError before building any bucket if an entry
// has Capacity > Span.
func (p Policy) Compile(anchor time.Time) ([]Bucket, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	buckets := make([]Bucket, 0, len(p))
	end := Day(anchor)
	for _, e := range p {
		begin := end.AddDate(0, 0, -e.Span)
		buckets = append(buckets, Bucket{
			Begin:    begin,
			End:      end,
			Capacity: e.Capacity,
		})
		end = begin
	}
	slices.Reverse(buckets)
	return buckets, nil
}
