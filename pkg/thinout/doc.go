// Package thinout implements time-bucketed retention thinning.
//
// A Policy is a list of (span, capacity) entries laid out backward from an
// anchor date. Each entry becomes a Bucket that may hold at most Capacity
// items within its Span days, so a policy such as
//
//	4:4,15:5,40:4
//
// keeps every item of the last four days, five of the fifteen days before
// that, and four of the forty days before those.
//
// The Engine repeatedly picks the oldest over-capacity bucket and removes
// the item whose removal leaves the smallest gap in the timeline, scaled by
// the item weight. The globally oldest and newest items are protected as
// long as their bucket has other candidates.
//
// # Basic Usage
//
//	policy, err := thinout.ParsePolicy("4:4,15:5,40:4")
//	if err != nil {
//	    return err
//	}
//	eng, err := thinout.New(policy, items)
//	if err != nil {
//	    return err
//	}
//	for eng.Next() {
//	    log.Printf("remove %s", eng.Removed().ID)
//	}
//	if err := eng.Err(); err != nil {
//	    return err
//	}
//
// # Scoring
//
// The hole left by removing candidate i is date[i+1] - date[i-1] in days.
// ScoringProduct (default) removes the candidate with the lowest
// hole * weight. ScoringRatio removes the candidate with the highest
// weight / hole.
//
// The package never touches the items it reports; deleting the underlying
// files or snapshots is up to the caller.
package thinout
