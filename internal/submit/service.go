package submit

import (
	"context"
	"log/slog"

	"github.com/roach88/codetrail/internal/course"
	"github.com/roach88/codetrail/internal/exec"
	"github.com/roach88/codetrail/internal/progress"
	"github.com/roach88/codetrail/internal/trace"
)

// promptFragment signals the presentation layer that the program has
// fully finished and a fresh interactive prompt is ready.
var promptFragment = exec.Fragment{Text: ">>> ", Color: "white"}

// TraceRegistrar registers one submission's trace payload atomically and
// returns a lookup reference. Implemented by *trace.Store.
type TraceRegistrar interface {
	RegisterSession(ctx context.Context, payload *exec.TracePayload, strategy trace.RefStrategy) (string, error)
}

// Response is a graded, renderable submission result.
//
// When Error is set it is the only meaningful field: the submission
// failed inside the executor, progress was not touched, and the
// presentation layer shows the error in the learner's console.
type Response struct {
	Result   []exec.Fragment   `json:"result"`
	Message  string            `json:"message"`
	State    progress.Snapshot `json:"state"`
	TraceRef string            `json:"trace_ref,omitempty"`
	Passed   bool              `json:"passed"`
	Error    string            `json:"error,omitempty"`
}

// Service is the code-submission pipeline.
type Service struct {
	catalog     *course.Catalog
	tracker     *progress.Tracker
	runner      exec.Runner
	traces      TraceRegistrar
	entries     EntryRecorder // nil disables audit persistence entirely
	refStrategy trace.RefStrategy
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEntryRecorder enables audit-entry persistence. Without it, no
// entry is created and the post-execution output update is skipped too.
func WithEntryRecorder(entries EntryRecorder) ServiceOption {
	return func(s *Service) {
		s.entries = entries
	}
}

// WithRefStrategy overrides the trace-reference selection strategy.
func WithRefStrategy(strategy trace.RefStrategy) ServiceOption {
	return func(s *Service) {
		s.refStrategy = strategy
	}
}

// NewService creates the pipeline.
func NewService(
	catalog *course.Catalog,
	tracker *progress.Tracker,
	runner exec.Runner,
	traces TraceRegistrar,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		catalog:     catalog,
		tracker:     tracker,
		runner:      runner,
		traces:      traces,
		refStrategy: trace.LastCall{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit grades one submission and advances progress on success.
//
// Returned errors are caller or internal faults for the operation
// boundary to convert; an executor-reported failure of the learner's
// code is NOT an error here - it comes back as an error-only Response.
//
// The record is mutated in place on advancement so the returned state
// snapshot and the caller's view agree.
func (s *Service) Submit(
	ctx context.Context,
	code, source string,
	pageIndex, stepIndex int,
	learner progress.Learner,
	rec *progress.Record,
) (Response, error) {
	page, step, err := s.catalog.ResolveStep(pageIndex, stepIndex)
	if err != nil {
		return Response{}, err
	}

	req := exec.Request{
		Input:     code,
		Source:    source,
		PageSlug:  page.Slug,
		StepName:  step.Name,
		LearnerID: learner.ID,
	}

	var entryID int64
	if s.entries != nil {
		entryID, err = s.entries.Create(ctx, Entry{
			Input:     code,
			Source:    source,
			PageSlug:  page.Slug,
			StepName:  step.Name,
			LearnerID: learner.ID,
		})
		if err != nil {
			return Response{}, err
		}
	}

	result := s.runner.Run(ctx, req)

	if s.entries != nil {
		if err := s.entries.SetOutput(ctx, entryID, result.Output); err != nil {
			return Response{}, err
		}
	}

	if result.Error != "" {
		slog.Info("submission errored in executor",
			"learner", learner.ID,
			"page", page.Slug,
			"step", step.Name,
		)
		return Response{Error: result.Error}, nil
	}

	if result.Passed {
		if _, err := s.tracker.AdvanceStep(ctx, learner.ID, rec, pageIndex, stepIndex+1); err != nil {
			return Response{}, err
		}
	}

	outputParts := result.OutputParts
	if outputParts == nil {
		outputParts = []exec.Fragment{}
	}
	if !result.AwaitingInput {
		outputParts = append(outputParts, promptFragment)
	}

	var traceRef string
	if result.Trace != nil {
		traceRef, err = s.traces.RegisterSession(ctx, result.Trace, s.refStrategy)
		if err != nil {
			return Response{}, err
		}
	}

	slog.Info("submission graded",
		"learner", learner.ID,
		"page", page.Slug,
		"step", step.Name,
		"passed", result.Passed,
	)

	return Response{
		Result:   outputParts,
		Message:  RenderMessage(result.Message),
		State:    s.tracker.CurrentState(*rec),
		TraceRef: traceRef,
		Passed:   result.Passed,
	}, nil
}
