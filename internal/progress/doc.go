// Package progress tracks per-learner position through the catalog.
//
// Store is the SQLite persistence boundary: one row per learner plus one
// row per (learner, page) recording the last completed step name. Tracker
// is the state machine over a learner's record: per-page state is a pointer
// into the page's ordered step list, the initial state for an untouched
// page is index 0, and transitions only ever target an in-range index
// (out-of-range advancement is a no-op, never an error).
//
// Concurrent submissions for one learner are not coordinated here: the
// last SetStep wins. This is an accepted operational constraint, not a
// race to fix.
package progress
