package exec

import "context"

// Request is one code execution to grade.
type Request struct {
	Input     string `json:"input"`
	Source    string `json:"source"`
	PageSlug  string `json:"page_slug"`
	StepName  string `json:"step_name"`
	LearnerID string `json:"learner_id"`
}

// Fragment is one colored piece of program output.
type Fragment struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// FunctionObject describes one traced function as produced by the
// executor. ID is the executor's own identifier and is replaced with an
// opaque hash when the trace is registered.
type FunctionObject struct {
	ID   int            `json:"id"`
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

// CallObject describes one traced call. FunctionID references a
// FunctionObject.ID from the same payload; StartTime is an ISO-8601
// timestamp string.
type CallObject struct {
	FunctionID int            `json:"function_id"`
	StartTime  string         `json:"start_time"`
	Data       map[string]any `json:"data,omitempty"`
}

// TracePayload is the optional step-by-step debugging data attached to an
// execution result.
type TracePayload struct {
	Functions []FunctionObject `json:"functions"`
	Calls     []CallObject     `json:"calls"`
}

// Result is the executor's verdict on one submission.
type Result struct {
	OutputParts   []Fragment    `json:"output_parts"`
	Output        string        `json:"output"`
	Error         string        `json:"error"`
	Passed        bool          `json:"passed"`
	AwaitingInput bool          `json:"awaiting_input"`
	Message       string        `json:"message"`
	Trace         *TracePayload `json:"trace,omitempty"`
}

// Runner executes one submission. Implementations must encode every
// internal fault into Result.Error rather than returning it; see the
// package comment.
type Runner interface {
	Run(ctx context.Context, req Request) Result
}
