package api

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/roach88/codetrail/internal/course"
	"github.com/roach88/codetrail/internal/feedback"
	"github.com/roach88/codetrail/internal/progress"
	"github.com/roach88/codetrail/internal/puzzle"
	"github.com/roach88/codetrail/internal/submit"
)

// LearnerStore is the subset of the progress store the surface reads
// and writes directly. Implemented by *progress.Store.
type LearnerStore interface {
	Learner(ctx context.Context, id string) (progress.Learner, error)
	Progress(ctx context.Context, id string) (progress.Record, error)
	SetDeveloperMode(ctx context.Context, id string, value bool) error
}

// handler runs one operation for a resolved learner.
type handler func(ctx context.Context, learnerID string, args map[string]any) (map[string]any, error)

// API dispatches operations to the core components.
type API struct {
	catalog  *course.Catalog
	store    LearnerStore
	tracker  *progress.Tracker
	service  *submit.Service
	puzzles  *puzzle.Generator
	filer    feedback.Filer
	reporter Reporter
	handlers map[Op]handler
}

// New wires the operation surface. The handler table is fixed at
// construction; there is no runtime operation registration.
func New(
	catalog *course.Catalog,
	store LearnerStore,
	tracker *progress.Tracker,
	service *submit.Service,
	puzzles *puzzle.Generator,
	filer feedback.Filer,
	reporter Reporter,
) *API {
	a := &API{
		catalog:  catalog,
		store:    store,
		tracker:  tracker,
		service:  service,
		puzzles:  puzzles,
		filer:    filer,
		reporter: reporter,
	}
	a.handlers = map[Op]handler{
		OpRunCode:          a.runCode,
		OpLoadData:         a.loadData,
		OpSetDeveloperMode: a.setDeveloperMode,
		OpCurrentState:     a.currentState,
		OpMoveStep:         a.moveStep,
		OpSetPage:          a.setPage,
		OpGetSolution:      a.getSolution,
		OpSubmitFeedback:   a.submitFeedback,
	}
	return a
}

// Dispatch runs one operation and always returns a structured value.
// Failures never escape: caller errors come back as
// {"error":{"kind":"caller",...}}, internal faults (including panics)
// are reported once and come back as an error object with a diagnostic
// trace.
func (a *API) Dispatch(ctx context.Context, learnerID, opName string, args map[string]any) map[string]any {
	op, ok := ParseOp(opName)
	if !ok {
		return errorValue(NewCallerError("unknown operation %q", opName), nil)
	}

	result, err := a.run(ctx, op, learnerID, args)
	if err != nil {
		if !IsCallerError(err) {
			a.reporter.Report(ctx, op, err)
		}
		return errorValue(err, debug.Stack())
	}
	return result
}

// run executes the handler with panic containment.
func (a *API) run(ctx context.Context, op Op, learnerID string, args map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", op, r)
		}
	}()
	if args == nil {
		args = map[string]any{}
	}
	return a.handlers[op](ctx, learnerID, args)
}

// learnerAndRecord resolves the learner and their progress record.
// A missing learner is a caller error for every operation except
// load_data, which handles it explicitly.
func (a *API) learnerAndRecord(ctx context.Context, learnerID string) (progress.Learner, progress.Record, error) {
	learner, err := a.store.Learner(ctx, learnerID)
	if errors.Is(err, progress.ErrNotFound) {
		return progress.Learner{}, progress.Record{}, NewCallerError("unknown learner %q", learnerID)
	}
	if err != nil {
		return progress.Learner{}, progress.Record{}, err
	}
	rec, err := a.store.Progress(ctx, learnerID)
	if err != nil {
		return progress.Learner{}, progress.Record{}, err
	}
	return learner, rec, nil
}

func (a *API) runCode(ctx context.Context, learnerID string, args map[string]any) (map[string]any, error) {
	code, err := stringArg(args, "code")
	if err != nil {
		return nil, err
	}
	source, err := stringArg(args, "source")
	if err != nil {
		return nil, err
	}
	pageIndex, err := intArg(args, "page_index")
	if err != nil {
		return nil, err
	}
	stepIndex, err := intArg(args, "step_index")
	if err != nil {
		return nil, err
	}

	learner, rec, err := a.learnerAndRecord(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	resp, err := a.service.Submit(ctx, code, source, pageIndex, stepIndex, learner, &rec)
	if err != nil {
		if isIndexError(err) {
			return nil, NewCallerError("%v", err)
		}
		return nil, err
	}

	// Execution errors are the operation's error field, nothing more:
	// the learner's code failed, the pipeline did not.
	if resp.Error != "" {
		return map[string]any{"error": resp.Error}, nil
	}

	return map[string]any{
		"result":    resp.Result,
		"message":   resp.Message,
		"state":     resp.State,
		"trace_ref": resp.TraceRef,
		"passed":    resp.Passed,
	}, nil
}

func (a *API) loadData(ctx context.Context, learnerID string, _ map[string]any) (map[string]any, error) {
	learner, err := a.store.Learner(ctx, learnerID)
	if errors.Is(err, progress.ErrNotFound) {
		// Anonymous visitor: nothing to load.
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	rec, err := a.store.Progress(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	pages := make([]map[string]any, 0, a.catalog.Len())
	for _, page := range a.catalog.Pages() {
		pages = append(pages, map[string]any{
			"slug":  page.Slug,
			"title": page.Title,
			"index": page.Index,
			"steps": page.Steps(),
		})
	}

	pageIndex := 0
	if page, ok := a.catalog.Page(learner.PageSlug); ok {
		pageIndex = page.Index
	}

	return map[string]any{
		"pages": pages,
		"state": a.tracker.CurrentState(rec),
		"user": map[string]any{
			"email":         learner.Email,
			"developerMode": learner.DeveloperMode,
		},
		"page_index": pageIndex,
	}, nil
}

func (a *API) setDeveloperMode(ctx context.Context, learnerID string, args map[string]any) (map[string]any, error) {
	value, err := boolArg(args, "value")
	if err != nil {
		return nil, err
	}
	if err := a.store.SetDeveloperMode(ctx, learnerID, value); err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			return nil, NewCallerError("unknown learner %q", learnerID)
		}
		return nil, err
	}
	return map[string]any{"result": nil}, nil
}

func (a *API) currentState(ctx context.Context, learnerID string, _ map[string]any) (map[string]any, error) {
	_, rec, err := a.learnerAndRecord(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	snap := a.tracker.CurrentState(rec)
	return map[string]any{"pages_progress": snap.PagesProgress}, nil
}

func (a *API) moveStep(ctx context.Context, learnerID string, args map[string]any) (map[string]any, error) {
	pageIndex, err := intArg(args, "page_index")
	if err != nil {
		return nil, err
	}
	stepIndex, err := intArg(args, "step_index")
	if err != nil {
		return nil, err
	}

	_, rec, err := a.learnerAndRecord(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	snap, err := a.tracker.AdvanceStep(ctx, learnerID, &rec, pageIndex, stepIndex)
	if err != nil {
		if isIndexError(err) {
			return nil, NewCallerError("%v", err)
		}
		return nil, err
	}
	return map[string]any{"pages_progress": snap.PagesProgress}, nil
}

func (a *API) setPage(ctx context.Context, learnerID string, args map[string]any) (map[string]any, error) {
	index, err := intArg(args, "index")
	if err != nil {
		return nil, err
	}

	_, rec, err := a.learnerAndRecord(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	if err := a.tracker.SetCurrentPage(ctx, learnerID, &rec, index); err != nil {
		if isIndexError(err) {
			return nil, NewCallerError("%v", err)
		}
		return nil, err
	}
	return map[string]any{"result": nil}, nil
}

func (a *API) getSolution(_ context.Context, _ string, args map[string]any) (map[string]any, error) {
	pageIndex, err := intArg(args, "page_index")
	if err != nil {
		return nil, err
	}
	stepIndex, err := intArg(args, "step_index")
	if err != nil {
		return nil, err
	}

	_, step, err := a.catalog.ResolveStep(pageIndex, stepIndex)
	if err != nil {
		return nil, NewCallerError("%v", err)
	}

	spec := a.puzzles.Generate(step.PuzzleProgram())
	return map[string]any{
		"tokens":        spec.Tokens,
		"maskedIndices": spec.MaskedIndices,
		"mask":          spec.Mask,
	}, nil
}

func (a *API) submitFeedback(ctx context.Context, learnerID string, args map[string]any) (map[string]any, error) {
	title, err := stringArg(args, "title")
	if err != nil {
		return nil, err
	}
	description, err := stringArg(args, "description")
	if err != nil {
		return nil, err
	}
	state, err := anyArg(args, "state")
	if err != nil {
		return nil, err
	}

	learner, _, err := a.learnerAndRecord(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	body, err := feedback.BuildBody(learner.Email, description, state)
	if err != nil {
		return nil, err
	}
	if err := a.filer.File(ctx, feedback.Issue{
		Title:  title,
		Body:   body,
		Labels: []string{"user", "bug"},
	}); err != nil {
		return nil, err
	}
	return map[string]any{"result": nil}, nil
}

// isIndexError distinguishes out-of-bounds catalog coordinates (caller
// errors) from genuine internal faults on paths where both can occur.
func isIndexError(err error) bool {
	var ie *course.IndexError
	return errors.As(err, &ie)
}
