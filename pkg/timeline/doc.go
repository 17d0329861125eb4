// Package timeline renders thinning state as day-by-day glyph rows for
// visual inspection.
//
// Each row is backed by a sparse Map from day to glyph. Days without a
// glyph are filled with a default symbol when the row is rendered, so a
// policy covering a year costs only as many entries as there are items and
// bucket boundaries.
//
//	ov := timeline.Render(eng.Items(), removed, eng.Buckets(), eng.Anchor())
//	fmt.Println(ov)
//
// Output for days 0..10 thinned with 4:2,8:3 and anchored at day 11:
//
//	 x-x-x--x--x_
//	[   3   [ 2 [
//
// Rendering has no effect on selection; it exists for debugging policies.
package timeline
