package progress

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codetrail/internal/course"
)

const trackerCatalog = `
pages:
  - slug: intro
    title: Introduction
    steps:
      - name: welcome
        kind: informational
      - name: hello_world
        kind: exercise
        solution: "print('hi')"
  - slug: variables
    title: Variables
    steps:
      - name: assignment
        kind: exercise
        solution: "x = 1"
      - name: printing
        kind: exercise
        solution: "print(x)"
      - name: review
        kind: informational
`

func loadTrackerCatalog(t *testing.T) *course.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "course.yaml")
	require.NoError(t, os.WriteFile(path, []byte(trackerCatalog), 0o644))
	catalog, errs := course.Load(path)
	require.Empty(t, errs)
	return catalog
}

// spyRecorder records every write so tests can assert on exactly what was
// persisted (including that nothing was).
type spyRecorder struct {
	steps []string // "pageSlug/stepName"
	pages []string
	err   error
}

func (s *spyRecorder) SetStep(_ context.Context, _, pageSlug, stepName string) error {
	if s.err != nil {
		return s.err
	}
	s.steps = append(s.steps, pageSlug+"/"+stepName)
	return nil
}

func (s *spyRecorder) SetCurrentPage(_ context.Context, _, pageSlug string) error {
	if s.err != nil {
		return s.err
	}
	s.pages = append(s.pages, pageSlug)
	return nil
}

func TestTracker_CurrentState_Untouched(t *testing.T) {
	tr := NewTracker(loadTrackerCatalog(t), &spyRecorder{})

	snap := tr.CurrentState(Record{PagesProgress: map[string]string{}})
	assert.Equal(t, []int{0, 0}, snap.PagesProgress)
}

func TestTracker_CurrentState_CatalogOrder(t *testing.T) {
	tr := NewTracker(loadTrackerCatalog(t), &spyRecorder{})

	snap := tr.CurrentState(Record{PagesProgress: map[string]string{
		"variables": "printing",
		"intro":     "hello_world",
	}})
	assert.Equal(t, []int{1, 1}, snap.PagesProgress, "snapshot ordering must match catalog order")
}

func TestTracker_CurrentState_UnknownStepNameReadsZero(t *testing.T) {
	tr := NewTracker(loadTrackerCatalog(t), &spyRecorder{})

	snap := tr.CurrentState(Record{PagesProgress: map[string]string{
		"intro": "renamed_away",
	}})
	assert.Equal(t, []int{0, 0}, snap.PagesProgress)
}

func TestTracker_AdvanceStep(t *testing.T) {
	spy := &spyRecorder{}
	tr := NewTracker(loadTrackerCatalog(t), spy)
	rec := Record{PagesProgress: map[string]string{}}

	snap, err := tr.AdvanceStep(context.Background(), "l", &rec, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, snap.PagesProgress)
	assert.Equal(t, []string{"intro/hello_world"}, spy.steps)
	assert.Equal(t, "hello_world", rec.PagesProgress["intro"])
}

func TestTracker_AdvanceStep_PastEndIsNoOp(t *testing.T) {
	spy := &spyRecorder{}
	tr := NewTracker(loadTrackerCatalog(t), spy)
	rec := Record{PagesProgress: map[string]string{"intro": "hello_world"}}

	// One past the final step: record unchanged, nothing persisted,
	// snapshot still returned.
	snap, err := tr.AdvanceStep(context.Background(), "l", &rec, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, snap.PagesProgress)
	assert.Empty(t, spy.steps)
	assert.Equal(t, "hello_world", rec.PagesProgress["intro"])
}

func TestTracker_AdvanceStep_NegativeIsNoOp(t *testing.T) {
	spy := &spyRecorder{}
	tr := NewTracker(loadTrackerCatalog(t), spy)
	rec := Record{PagesProgress: map[string]string{}}

	snap, err := tr.AdvanceStep(context.Background(), "l", &rec, 1, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, snap.PagesProgress)
	assert.Empty(t, spy.steps)
}

func TestTracker_AdvanceStep_SequentialIncreasing(t *testing.T) {
	spy := &spyRecorder{}
	tr := NewTracker(loadTrackerCatalog(t), spy)
	rec := Record{PagesProgress: map[string]string{}}
	ctx := context.Background()

	var recorded []int
	for target := 0; target < 3; target++ {
		snap, err := tr.AdvanceStep(ctx, "l", &rec, 1, target)
		require.NoError(t, err)
		recorded = append(recorded, snap.PagesProgress[1])
	}
	assert.Equal(t, []int{0, 1, 2}, recorded, "strictly increasing targets give strictly increasing state")
}

func TestTracker_AdvanceStep_LastWriteWins(t *testing.T) {
	spy := &spyRecorder{}
	tr := NewTracker(loadTrackerCatalog(t), spy)
	rec := Record{PagesProgress: map[string]string{}}
	ctx := context.Background()

	_, err := tr.AdvanceStep(ctx, "l", &rec, 1, 2)
	require.NoError(t, err)
	snap, err := tr.AdvanceStep(ctx, "l", &rec, 1, 0)
	require.NoError(t, err)

	// Only the most recent target is stored - not the furthest.
	assert.Equal(t, 0, snap.PagesProgress[1])
}

func TestTracker_AdvanceStep_BadPageIndex(t *testing.T) {
	tr := NewTracker(loadTrackerCatalog(t), &spyRecorder{})
	rec := Record{PagesProgress: map[string]string{}}

	_, err := tr.AdvanceStep(context.Background(), "l", &rec, 7, 0)
	assert.Error(t, err)
}

func TestTracker_SetCurrentPage(t *testing.T) {
	spy := &spyRecorder{}
	tr := NewTracker(loadTrackerCatalog(t), spy)
	rec := Record{}

	require.NoError(t, tr.SetCurrentPage(context.Background(), "l", &rec, 1))
	assert.Equal(t, "variables", rec.CurrentPageSlug)
	assert.Equal(t, []string{"variables"}, spy.pages)

	assert.Error(t, tr.SetCurrentPage(context.Background(), "l", &rec, 9))
}

func TestTracker_WithSQLiteStore(t *testing.T) {
	catalog := loadTrackerCatalog(t)
	store, err := Open(filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.CreateLearner(ctx, Learner{ID: "l"}))

	tr := NewTracker(catalog, store)
	rec, err := store.Progress(ctx, "l")
	require.NoError(t, err)

	snap, err := tr.AdvanceStep(ctx, "l", &rec, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, snap.PagesProgress)

	// Re-read from disk: persisted state matches the in-memory record.
	reread, err := store.Progress(ctx, "l")
	require.NoError(t, err)
	assert.Equal(t, snap, tr.CurrentState(reread))
}
