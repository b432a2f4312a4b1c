package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MankowskiNick/jira-mcp/internal/config"
	"github.com/MankowskiNick/jira-mcp/internal/jira"
)

func toolConfig() *config.Config {
	return &config.Config{
		Host:                    "example.atlassian.net",
		Email:                   "bot@example.com",
		APIToken:                "token",
		ProjectKey:              "PROJ",
		AcceptanceCriteriaField: "customfield_10100",
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestTicketInputDefaultsProjectKey(t *testing.T) {
	h := NewHandler(toolConfig(), zerolog.Nop())

	in := h.ticketInput(callRequest(map[string]any{
		"summary":      "Fix login",
		"issue_type":   "Bug",
		"story_points": 5.0,
	}))

	assert.Equal(t, "PROJ", in.ProjectKey)
	assert.Equal(t, "Fix login", in.Summary)
	require.NotNil(t, in.StoryPoints)
	assert.Equal(t, 5.0, *in.StoryPoints)
}

func TestTicketInputOmitsAbsentPoints(t *testing.T) {
	h := NewHandler(toolConfig(), zerolog.Nop())

	in := h.ticketInput(callRequest(map[string]any{"summary": "s"}))

	assert.Nil(t, in.StoryPoints)
}

func TestCreateTicketRequiresSummary(t *testing.T) {
	h := NewHandler(toolConfig(), zerolog.Nop())

	result, err := h.CreateTicket(context.Background(), callRequest(map[string]any{
		"issue_type": "Bug",
	}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestUpdateTicketRejectsEmptyPayload(t *testing.T) {
	h := NewHandler(toolConfig(), zerolog.Nop())

	result, err := h.UpdateTicket(context.Background(), callRequest(map[string]any{
		"issue_key": "PROJ-1",
	}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no fields to update")
}

func TestAddTestStepsRequiresZephyrConfig(t *testing.T) {
	h := NewHandler(toolConfig(), zerolog.Nop())

	result, err := h.AddTestSteps(context.Background(), callRequest(map[string]any{
		"issue_key": "PROJ-1",
		"steps":     []any{map[string]any{"step": "do it"}},
	}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Zephyr is not configured")
}

func TestAddTestStepsValidatesSteps(t *testing.T) {
	cfg := toolConfig()
	cfg.ZephyrBaseURL = "https://zephyr.example.com"
	cfg.ZephyrAccessKey = "a"
	cfg.ZephyrSecretKey = "s"
	h := NewHandler(cfg, zerolog.Nop())

	result, err := h.AddTestSteps(context.Background(), callRequest(map[string]any{
		"issue_key": "PROJ-1",
		"steps":     []any{},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = h.AddTestSteps(context.Background(), callRequest(map[string]any{
		"issue_key": "PROJ-1",
		"steps":     []any{map[string]any{"data": "no step text"}},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "step 1")
}

func TestFormatIssue(t *testing.T) {
	h := NewHandler(toolConfig(), zerolog.Nop())

	out := h.formatIssue(&jira.Issue{
		Key: "PROJ-7",
		Fields: map[string]any{
			"summary":   "Checkout flow",
			"issuetype": map[string]any{"name": "Story"},
			"status":    map[string]any{"name": "In Progress"},
			"assignee":  map[string]any{"displayName": "Sam Doe"},
			"description": map[string]any{
				"type":    "doc",
				"version": 1,
				"content": []any{
					map[string]any{
						"type": "paragraph",
						"content": []any{
							map[string]any{"type": "text", "text": "Users drop off at payment."},
						},
					},
				},
			},
			"customfield_10100": map[string]any{
				"type":    "doc",
				"version": 1,
				"content": []any{
					map[string]any{
						"type": "paragraph",
						"content": []any{
							map[string]any{"type": "text", "text": "Checkout completes."},
						},
					},
				},
			},
		},
	})

	assert.Contains(t, out, "Key: PROJ-7\n")
	assert.Contains(t, out, "Summary: Checkout flow\n")
	assert.Contains(t, out, "Type: Story\n")
	assert.Contains(t, out, "Status: In Progress\n")
	assert.Contains(t, out, "Assignee: Sam Doe\n")
	assert.Contains(t, out, "Description:\nUsers drop off at payment.\n")
	assert.Contains(t, out, "Acceptance Criteria:\nCheckout completes.\n")
}

func TestFormatIssueSkipsMissingSections(t *testing.T) {
	h := NewHandler(toolConfig(), zerolog.Nop())

	out := h.formatIssue(&jira.Issue{Key: "PROJ-8", Fields: map[string]any{"summary": "Bare"}})

	assert.Contains(t, out, "Key: PROJ-8\n")
	assert.NotContains(t, out, "Description:")
	assert.NotContains(t, out, "Assignee:")
	assert.NotContains(t, out, "Acceptance Criteria:")
}
