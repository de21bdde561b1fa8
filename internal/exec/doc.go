// Package exec is the boundary to the external isolated code executor.
//
// The executor is consumed as an opaque service: it receives a submission
// and returns structured output, a pass flag, and optional trace data. Its
// internals (sandboxing, timeouts, resource limits) are its own concern.
//
// Contract with the submission pipeline: Runner.Run never fails as a Go
// error. Every fault - transport, non-200 status, malformed response,
// deadline expiry - is encoded into Result.Error, so the pipeline has
// exactly one failure channel to interpret and nothing to catch.
package exec
