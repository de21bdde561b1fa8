package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds one execution round-trip. A request that cannot
// get a result within this window fails that single request; nothing is
// retried.
const DefaultTimeout = 30 * time.Second

const maxErrorBodySize = 4096

// HTTPRunner delegates execution to an executor service over HTTP JSON.
type HTTPRunner struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// HTTPRunnerOption configures an HTTPRunner.
type HTTPRunnerOption func(*HTTPRunner)

// WithTimeout overrides the per-request deadline.
func WithTimeout(d time.Duration) HTTPRunnerOption {
	return func(r *HTTPRunner) {
		r.timeout = d
	}
}

// WithHTTPClient overrides the HTTP client (tests).
func WithHTTPClient(c *http.Client) HTTPRunnerOption {
	return func(r *HTTPRunner) {
		r.client = c
	}
}

// NewHTTPRunner creates a runner posting to the given executor endpoint.
func NewHTTPRunner(url string, opts ...HTTPRunnerOption) *HTTPRunner {
	r := &HTTPRunner{
		url:     url,
		client:  &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run posts the request to the executor and decodes its result.
// Never returns a transport fault to the caller: every failure mode is
// folded into Result.Error.
func (r *HTTPRunner) Run(ctx context.Context, req Request) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return faultResult(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return faultResult(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return faultResult(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return faultResult(fmt.Errorf("executor returned %d: %s", resp.StatusCode, string(errBody)))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return faultResult(fmt.Errorf("decode response: %w", err))
	}
	return result
}

// faultResult encodes an internal executor fault as an execution error.
func faultResult(err error) Result {
	slog.Error("executor fault", "error", err)
	return Result{Error: err.Error()}
}

// StubRunner returns canned results for tests and records the requests
// it saw.
type StubRunner struct {
	Result   Result
	Requests []Request
}

// Run implements Runner.
func (s *StubRunner) Run(_ context.Context, req Request) Result {
	s.Requests = append(s.Requests, req)
	return s.Result
}
