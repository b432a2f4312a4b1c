// Package jira talks to the Jira issue API and owns the non-trivial parts of
// ticket creation: the fields payload builder, the resilient create
// protocol, and the derived test-ticket orchestrator.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/MankowskiNick/jira-mcp/internal/adf"
	"github.com/MankowskiNick/jira-mcp/internal/config"
)

// Client wraps an HTTP client with Atlassian basic auth.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	log        zerolog.Logger
}

// Shared HTTP client with connection pooling.
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// NewClient creates an authenticated Jira client.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: sharedHTTPClient,
		log:        log.With().Str("component", "jira").Logger(),
	}
}

// authHeader returns the Basic auth header value.
func (c *Client) authHeader() string {
	credentials := fmt.Sprintf("%s:%s", c.cfg.Email, c.cfg.APIToken)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

// do issues a JSON request and decodes the response into out (when non-nil).
// Non-2xx responses come back as *APIError with any field-level detail the
// server attached.
func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Messages = body.ErrorMessages
		apiErr.FieldErrors = body.Errors
	}
	if len(apiErr.Messages) == 0 && len(apiErr.FieldErrors) == 0 && len(raw) > 0 {
		apiErr.Messages = []string{string(raw)}
	}
	return apiErr
}

// CreateIssue submits a single create attempt. Retry behavior lives in the
// Creator, not here.
func (c *Client) CreateIssue(ctx context.Context, fields Fields) (*CreateResult, error) {
	var result CreateResult
	if err := c.do(ctx, http.MethodPost, c.cfg.BaseURL()+"/issue", CreateRequest{Fields: fields}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetIssue fetches an issue by key or ID.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	var issue Issue
	if err := c.do(ctx, http.MethodGet, c.cfg.BaseURL()+"/issue/"+url.PathEscape(key), nil, &issue); err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}
	return &issue, nil
}

// UpdateIssue applies a partial fields payload to an existing issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields Fields) error {
	err := c.do(ctx, http.MethodPut, c.cfg.BaseURL()+"/issue/"+url.PathEscape(key), UpdateRequest{Fields: fields}, nil)
	if err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}
	return nil
}

// AddComment posts an ADF comment body to an issue.
func (c *Client) AddComment(ctx context.Context, key string, body *adf.Document) error {
	payload := map[string]any{"body": body}
	err := c.do(ctx, http.MethodPost, c.cfg.BaseURL()+"/issue/"+url.PathEscape(key)+"/comment", payload, nil)
	if err != nil {
		return fmt.Errorf("add comment to %s: %w", key, err)
	}
	return nil
}

// GetTransitions lists the workflow transitions currently available.
func (c *Client) GetTransitions(ctx context.Context, key string) ([]Transition, error) {
	var result struct {
		Transitions []Transition `json:"transitions"`
	}
	err := c.do(ctx, http.MethodGet, c.cfg.BaseURL()+"/issue/"+url.PathEscape(key)+"/transitions", nil, &result)
	if err != nil {
		return nil, fmt.Errorf("get transitions for %s: %w", key, err)
	}
	return result.Transitions, nil
}

// TransitionIssue moves an issue through a workflow transition.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	payload := map[string]any{
		"transition": map[string]string{"id": transitionID},
	}
	err := c.do(ctx, http.MethodPost, c.cfg.BaseURL()+"/issue/"+url.PathEscape(key)+"/transitions", payload, nil)
	if err != nil {
		return fmt.Errorf("transition issue %s: %w", key, err)
	}
	return nil
}

// AssignIssue sets the assignee by account ID.
func (c *Client) AssignIssue(ctx context.Context, key, accountID string) error {
	payload := map[string]string{"accountId": accountID}
	err := c.do(ctx, http.MethodPut, c.cfg.BaseURL()+"/issue/"+url.PathEscape(key)+"/assignee", payload, nil)
	if err != nil {
		return fmt.Errorf("assign issue %s: %w", key, err)
	}
	return nil
}

// AddWatcher adds a watcher by account ID. The watchers endpoint takes the
// bare account ID as its JSON body.
func (c *Client) AddWatcher(ctx context.Context, key, accountID string) error {
	err := c.do(ctx, http.MethodPost, c.cfg.BaseURL()+"/issue/"+url.PathEscape(key)+"/watchers", accountID, nil)
	if err != nil {
		return fmt.Errorf("add watcher to %s: %w", key, err)
	}
	return nil
}

// SearchIssues runs a JQL query.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) (*SearchResponse, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	payload := map[string]any{
		"jql":        jql,
		"maxResults": maxResults,
		"fields":     []string{"key", "summary", "status", "issuetype", "assignee", "updated"},
	}
	var result SearchResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.BaseURL()+"/search/jql", payload, &result); err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}
	return &result, nil
}

// LinkIssues creates a link of the named relationship type between two
// issues.
func (c *Client) LinkIssues(ctx context.Context, typeName, outwardKey, inwardKey string) error {
	payload := map[string]any{
		"type":         map[string]string{"name": typeName},
		"outwardIssue": map[string]string{"key": outwardKey},
		"inwardIssue":  map[string]string{"key": inwardKey},
	}
	err := c.do(ctx, http.MethodPost, c.cfg.BaseURL()+"/issueLink", payload, nil)
	if err != nil {
		return fmt.Errorf("link %s to %s: %w", outwardKey, inwardKey, err)
	}
	return nil
}

// ValidateCredentials calls the /myself endpoint to confirm the configured
// host, email, and token actually work before the server starts taking
// tool calls.
func (c *Client) ValidateCredentials(ctx context.Context) (*User, error) {
	var me User
	if err := c.do(ctx, http.MethodGet, c.cfg.BaseURL()+"/myself", nil, &me); err != nil {
		if apiErr, ok := err.(*APIError); ok && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("invalid credentials: authentication failed")
		}
		return nil, fmt.Errorf("validate credentials: %w", err)
	}
	return &me, nil
}
