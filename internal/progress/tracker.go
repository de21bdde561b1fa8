package progress

import (
	"context"
	"log/slog"

	"github.com/roach88/codetrail/internal/course"
)

// Recorder is the subset of Store the Tracker writes through.
// Implemented by *Store (production) and spies in tests.
type Recorder interface {
	SetStep(ctx context.Context, learnerID, pageSlug, stepName string) error
	SetCurrentPage(ctx context.Context, learnerID, pageSlug string) error
}

// Snapshot is the per-page progress view in catalog order: for every page,
// the zero-based index of the learner's last completed step (0 when the
// page is untouched). The presentation layer renders one progress bar per
// entry, so the ordering contract matters.
type Snapshot struct {
	PagesProgress []int `json:"pages_progress"`
}

// Tracker is the progress state machine over one catalog.
//
// Per-page state is an index into the page's ordered step list. The only
// exposed transition is AdvanceStep, which targets an absolute index;
// targets outside [0, stepCount) leave the record untouched rather than
// failing, so callers can advance past the final step of a page without
// special-casing.
type Tracker struct {
	catalog  *course.Catalog
	recorder Recorder
}

// NewTracker creates a Tracker over the given catalog, persisting through
// the given recorder.
func NewTracker(catalog *course.Catalog, recorder Recorder) *Tracker {
	return &Tracker{catalog: catalog, recorder: recorder}
}

// CurrentState computes the progress snapshot for a record.
// Pure function: no side effects, no persistence.
//
// A page absent from the record, or recording a step name the page no
// longer has, reads as index 0.
func (t *Tracker) CurrentState(rec Record) Snapshot {
	indices := make([]int, 0, t.catalog.Len())
	for _, page := range t.catalog.Pages() {
		idx := 0
		if name, ok := rec.PagesProgress[page.Slug]; ok {
			if i := page.StepIndex(name); i >= 0 {
				idx = i
			}
		}
		indices = append(indices, idx)
	}
	return Snapshot{PagesProgress: indices}
}

// AdvanceStep moves the learner's recorded position on a page to the step
// at targetIndex and persists the change. Targets outside the page's step
// range are a no-op (the previous step name is retained, no out-of-range
// state is ever stored). The post-operation snapshot is always returned.
//
// The record is mutated in place so that the returned snapshot and the
// caller's view agree without a re-read.
func (t *Tracker) AdvanceStep(ctx context.Context, learnerID string, rec *Record, pageIndex, targetIndex int) (Snapshot, error) {
	page, err := t.catalog.PageAt(pageIndex)
	if err != nil {
		return Snapshot{}, err
	}

	if targetIndex >= 0 && targetIndex < page.StepCount() {
		stepName := page.StepNames[targetIndex]
		if err := t.recorder.SetStep(ctx, learnerID, page.Slug, stepName); err != nil {
			return Snapshot{}, err
		}
		if rec.PagesProgress == nil {
			rec.PagesProgress = make(map[string]string)
		}
		rec.PagesProgress[page.Slug] = stepName

		slog.Debug("progress advanced",
			"learner", learnerID,
			"page", page.Slug,
			"step", stepName,
			"index", targetIndex,
		)
	}

	return t.CurrentState(*rec), nil
}

// SetCurrentPage records the page at pageIndex as the learner's current
// page. The index must be in catalog bounds; out-of-bounds is a caller
// error surfaced before persistence.
func (t *Tracker) SetCurrentPage(ctx context.Context, learnerID string, rec *Record, pageIndex int) error {
	slug, err := t.catalog.SlugAt(pageIndex)
	if err != nil {
		return err
	}
	if err := t.recorder.SetCurrentPage(ctx, learnerID, slug); err != nil {
		return err
	}
	rec.CurrentPageSlug = slug
	return nil
}
