// Package submit implements the code-submission pipeline: a raw code
// string plus its page/step coordinates become a graded, renderable
// result, advancing the learner's progress on success.
//
// The pipeline is strictly ordered within one submission: audit-entry
// create, then delegation to the executor, then audit-entry update, then
// progress advancement, then response assembly. Reordering would corrupt
// state (advancing before the pass verdict, say), so the sequence is not
// configurable.
//
// The executor call is the single point of failure exposure for learner
// code: exec.Runner encodes every executor fault into Result.Error, and a
// set Error short-circuits the pipeline with an error-only response and
// no progress mutation.
package submit
