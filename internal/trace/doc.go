// Package trace persists optional debug-trace objects produced by an
// execution, for step-by-step replay in the debugger UI.
//
// Registration of one submission's functions and calls is atomic: all
// rows land in a single transaction or none do. Executor-supplied
// function identifiers never reach storage - each function is re-keyed
// under a freshly generated opaque hash, and calls are rewritten through
// the old-to-new mapping.
package trace
