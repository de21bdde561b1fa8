package trace

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codetrail/internal/exec"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "traces.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePayload() *exec.TracePayload {
	return &exec.TracePayload{
		Functions: []exec.FunctionObject{
			{ID: 101, Name: "main", Data: map[string]any{"lines": float64(3)}},
			{ID: 102, Name: "greet"},
		},
		Calls: []exec.CallObject{
			{FunctionID: 101, StartTime: "2026-08-30T12:00:00.000001"},
			{FunctionID: 102, StartTime: "2026-08-30T12:00:00.000420Z"},
		},
	}
}

func TestRegisterSession(t *testing.T) {
	s := openTestStore(t)

	ref, err := s.RegisterSession(context.Background(), samplePayload(), LastCall{})
	require.NoError(t, err)
	assert.Equal(t, "/trace/call/2", ref, "last registered call id builds the ref")

	var functions, calls int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM functions").Scan(&functions))
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM calls").Scan(&calls))
	assert.Equal(t, 2, functions)
	assert.Equal(t, 2, calls)
}

func TestRegisterSession_FunctionsRekeyed(t *testing.T) {
	s := openTestStore(t)

	_, err := s.RegisterSession(context.Background(), samplePayload(), LastCall{})
	require.NoError(t, err)

	rows, err := s.DB().Query("SELECT id, hash FROM functions")
	require.NoError(t, err)
	defer rows.Close()

	seen := map[string]bool{}
	for rows.Next() {
		var id int64
		var hash string
		require.NoError(t, rows.Scan(&id, &hash))
		assert.NotEqual(t, int64(101), id, "executor-supplied ids must not reach storage")
		assert.NotEqual(t, int64(102), id)
		assert.Len(t, hash, 32, "opaque uuid hex hash")
		assert.False(t, seen[hash], "hashes must be unique")
		seen[hash] = true
	}
	require.NoError(t, rows.Err())
}

func TestRegisterSession_CallsRewrittenThroughMapping(t *testing.T) {
	s := openTestStore(t)

	_, err := s.RegisterSession(context.Background(), samplePayload(), LastCall{})
	require.NoError(t, err)

	// Every call's function_id must resolve to a stored function row.
	var orphans int
	require.NoError(t, s.DB().QueryRow(`
		SELECT COUNT(*) FROM calls c
		LEFT JOIN functions f ON f.id = c.function_id
		WHERE f.id IS NULL
	`).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestRegisterSession_UnknownFunctionRollsBack(t *testing.T) {
	s := openTestStore(t)

	payload := samplePayload()
	payload.Calls = append(payload.Calls, exec.CallObject{
		FunctionID: 999,
		StartTime:  "2026-08-30T12:00:01Z",
	})

	_, err := s.RegisterSession(context.Background(), payload, LastCall{})
	require.Error(t, err)

	// All-or-nothing: the valid functions and calls must not survive.
	var functions, calls int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM functions").Scan(&functions))
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM calls").Scan(&calls))
	assert.Zero(t, functions)
	assert.Zero(t, calls)
}

func TestRegisterSession_BadStartTimeRollsBack(t *testing.T) {
	s := openTestStore(t)

	payload := samplePayload()
	payload.Calls[0].StartTime = "yesterday-ish"

	_, err := s.RegisterSession(context.Background(), payload, LastCall{})
	require.Error(t, err)

	var functions int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM functions").Scan(&functions))
	assert.Zero(t, functions)
}

func TestRegisterSession_NoCalls(t *testing.T) {
	s := openTestStore(t)

	ref, err := s.RegisterSession(context.Background(), &exec.TracePayload{
		Functions: []exec.FunctionObject{{ID: 1, Name: "f"}},
	}, LastCall{})
	require.NoError(t, err)
	assert.Empty(t, ref, "no calls means no reference")
}

func TestRefStrategies(t *testing.T) {
	ids := []int64{4, 7, 9}

	last, ok := LastCall{}.Select(ids)
	require.True(t, ok)
	assert.Equal(t, int64(9), last)

	first, ok := FirstCall{}.Select(ids)
	require.True(t, ok)
	assert.Equal(t, int64(4), first)

	_, ok = LastCall{}.Select(nil)
	assert.False(t, ok)
}

func TestParseStartTime(t *testing.T) {
	for _, value := range []string{
		"2026-08-30T12:00:00.000001",
		"2026-08-30T12:00:00.000420Z",
		"2026-08-30T12:00:00+02:00",
	} {
		t.Run(value, func(t *testing.T) {
			_, err := parseStartTime(value)
			assert.NoError(t, err)
		})
	}

	_, err := parseStartTime("not a time")
	assert.Error(t, err)
}

func TestRegisterSession_ManySessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ref, err := s.RegisterSession(ctx, samplePayload(), LastCall{})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("/trace/call/%d", (i+1)*2), ref)
	}
}
