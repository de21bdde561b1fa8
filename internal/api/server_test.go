package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codetrail/internal/exec"
)

func newTestServer(t *testing.T) (*httptest.Server, *testAPI) {
	t.Helper()
	ta := newTestAPI(t, exec.Result{
		OutputParts: []exec.Fragment{{Text: "hi\n", Color: "white"}},
		Passed:      true,
	})
	srv := httptest.NewServer(NewServer(ta.api, ta.store, &FixedIDGenerator{IDs: []string{"minted-1", "minted-2"}}))
	t.Cleanup(srv.Close)
	return srv, ta
}

func postJSON(t *testing.T, url, learnerID string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	if learnerID != "" {
		req.Header.Set(LearnerHeader, learnerID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestServer_Register(t *testing.T) {
	srv, ta := newTestServer(t)

	status, body := postJSON(t, srv.URL+"/api/register", "", map[string]any{"email": "new@example.com"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "minted-1", body["learner_id"])

	learner, err := ta.store.Learner(context.Background(), "minted-1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", learner.Email)
}

func TestServer_DispatchOp(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := postJSON(t, srv.URL+"/api/run_code", "learner-1", map[string]any{
		"code":       "print('hi')",
		"source":     "editor",
		"page_index": 0,
		"step_index": 0,
	})
	assert.Equal(t, http.StatusOK, status)
	require.NotContains(t, body, "error")
	assert.Equal(t, true, body["passed"])

	state := body["state"].(map[string]any)
	assert.Equal(t, []any{1.0, 0.0}, state["pages_progress"])
}

func TestServer_AnonymousLoadData(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := postJSON(t, srv.URL+"/api/load_data", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)
}

func TestServer_UnknownOpIsStructuredError(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := postJSON(t, srv.URL+"/api/explode", "learner-1", nil)
	assert.Equal(t, http.StatusOK, status)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "caller", errObj["kind"])
}

func TestServer_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/run_code", "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "caller", errObj["kind"])
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/load_data")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
