// Package course defines the static tutorial catalog: an ordered sequence of
// pages, each holding an ordered sequence of steps.
//
// The catalog is loaded once from YAML, validated against an embedded CUE
// schema, and is immutable afterwards. All other packages read it without
// synchronization.
//
// Ordering contract: Page.Index is a total order over pages. SlugAt and PageAt
// map a page position to its page and back; this mapping is bijective and
// stable for a loaded catalog. Progress snapshots rely on this ordering.
package course
