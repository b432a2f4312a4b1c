package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MankowskiNick/jira-mcp/internal/zephyr"
)

// issueRef is the pair of internal IDs Zephyr wants instead of an issue key.
type issueRef struct {
	IssueID   string
	ProjectID string
}

const issueRefTTL = 5 * time.Minute

// resolveIssue maps an issue key to its internal issue and project IDs,
// caching the result since IDs never change for a given key.
func (h *Handler) resolveIssue(ctx context.Context, key string) (issueRef, error) {
	if ref, ok := h.issues.Get(key); ok {
		return ref, nil
	}

	issue, err := h.client.GetIssue(ctx, key)
	if err != nil {
		return issueRef{}, err
	}

	ref := issueRef{IssueID: issue.ID}
	if project, ok := issue.Fields["project"].(map[string]any); ok {
		ref.ProjectID, _ = project["id"].(string)
	}
	if ref.ProjectID == "" {
		return issueRef{}, fmt.Errorf("issue %s has no project id", key)
	}

	h.issues.Set(key, ref, issueRefTTL)
	return ref, nil
}

func (h *Handler) AddTestSteps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !h.cfg.ZephyrEnabled() {
		return mcp.NewToolResultError("Zephyr is not configured; set the ZEPHYR_* environment variables to use add_test_steps"), nil
	}

	key, err := request.RequireString("issue_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, ok := request.GetArguments()["steps"].([]any)
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("steps must be a non-empty array of test step objects"), nil
	}

	steps := make([]zephyr.TestStep, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("step %d is not an object", i+1)), nil
		}
		step, _ := obj["step"].(string)
		if step == "" {
			return mcp.NewToolResultError(fmt.Sprintf("step %d is missing its step text", i+1)), nil
		}
		data, _ := obj["data"].(string)
		result, _ := obj["result"].(string)
		steps = append(steps, zephyr.TestStep{Step: step, Data: data, Result: result})
	}

	ref, err := h.resolveIssue(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve %s: %v", key, err)), nil
	}

	added := 0
	var failures []string
	for i, step := range steps {
		if err := h.zephyr.AddTestStep(ctx, ref.IssueID, ref.ProjectID, step); err != nil {
			failures = append(failures, fmt.Sprintf("step %d: %v", i+1, err))
			continue
		}
		added++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Added %d of %d test step(s) to %s.", added, len(steps), key)
	for _, f := range failures {
		fmt.Fprintf(&sb, "\nFailed %s", f)
	}
	if added == 0 {
		return mcp.NewToolResultError(sb.String()), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}
