// Package feedback files learner-reported issues with an external
// tracker. The core only depends on the Filer interface; the GitHub
// implementation is the production collaborator.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxErrorBodySize = 4096

// Issue is one filed report.
type Issue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// Filer files issues. Implemented by *GitHub and stubs in tests.
type Filer interface {
	File(ctx context.Context, issue Issue) error
}

// GitHub files issues against a repository via the issues API.
type GitHub struct {
	repo   string // "owner/name"
	token  string
	client *http.Client
	base   string
}

// GitHubOption configures a GitHub filer.
type GitHubOption func(*GitHub)

// WithBaseURL overrides the API base URL (tests).
func WithBaseURL(base string) GitHubOption {
	return func(g *GitHub) {
		g.base = base
	}
}

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) GitHubOption {
	return func(g *GitHub) {
		g.client = c
	}
}

// NewGitHub creates a filer for the given "owner/name" repository.
func NewGitHub(repo, token string, opts ...GitHubOption) *GitHub {
	g := &GitHub{
		repo:   repo,
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
		base:   "https://api.github.com",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// File implements Filer. The API must answer 201 Created; anything else
// is a fault for the operation boundary.
func (g *GitHub) File(ctx context.Context, issue Issue) error {
	body, err := json.Marshal(issue)
	if err != nil {
		return fmt.Errorf("marshal issue: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/issues", g.base, g.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "token "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("issue tracker returned %d: %s", resp.StatusCode, string(errBody))
	}
	return nil
}

// BuildBody renders the issue body: reporter email, free-form
// description, and the presentation state collapsed as JSON.
func BuildBody(email, description string, state any) (string, error) {
	stateJSON, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return fmt.Sprintf(`**User Issue**
Email: %s

%s

<details>

<summary>Client state</summary>

<p>

`+"```json\n%s\n```"+`

</p>
</details>
`, email, description, stateJSON), nil
}
