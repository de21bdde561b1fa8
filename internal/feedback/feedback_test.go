package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHub_File(t *testing.T) {
	var got Issue
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/roach88/codetrail/issues", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	g := NewGitHub("roach88/codetrail", "secret", WithBaseURL(server.URL))
	err := g.File(context.Background(), Issue{
		Title:  "Puzzle broken",
		Body:   "details",
		Labels: []string{"user", "bug"},
	})
	require.NoError(t, err)

	assert.Equal(t, "token secret", auth)
	assert.Equal(t, "Puzzle broken", got.Title)
	assert.Equal(t, []string{"user", "bug"}, got.Labels)
}

func TestGitHub_File_NonCreatedIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	g := NewGitHub("o/r", "bad", WithBaseURL(server.URL))
	err := g.File(context.Background(), Issue{Title: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestBuildBody(t *testing.T) {
	body, err := BuildBody("a@example.com", "it broke", map[string]any{"page": 2})
	require.NoError(t, err)

	assert.Contains(t, body, "Email: a@example.com")
	assert.Contains(t, body, "it broke")
	assert.Contains(t, body, `"page": 2`)
	assert.Contains(t, body, "```json")
}
