package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MankowskiNick/jira-mcp/internal/adf"
	"github.com/MankowskiNick/jira-mcp/internal/jira"
)

// ticketInput pulls the shared create/update fields out of a tool request.
func (h *Handler) ticketInput(request mcp.CallToolRequest) jira.TicketInput {
	in := jira.TicketInput{
		ProjectKey:         request.GetString("project_key", h.cfg.ProjectKey),
		Summary:            request.GetString("summary", ""),
		Description:        request.GetString("description", ""),
		AcceptanceCriteria: request.GetString("acceptance_criteria", ""),
		IssueType:          request.GetString("issue_type", ""),
		Sprint:             request.GetString("sprint", ""),
		EpicLink:           request.GetString("epic_link", ""),
		StoryReadiness:     request.GetString("story_readiness", ""),
		Crisis:             request.GetString("crisis", ""),
	}
	if v, ok := request.GetArguments()["story_points"]; ok {
		if points, ok := v.(float64); ok {
			in.StoryPoints = &points
		}
	}
	return in
}

func (h *Handler) CreateTicket(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := request.RequireString("summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	issueType, err := request.RequireString("issue_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := h.ticketInput(request)
	in.Summary = summary
	in.IssueType = issueType

	var createTest *bool
	if v, ok := request.GetArguments()["create_test_ticket"]; ok {
		if b, ok := v.(bool); ok {
			createTest = &b
		}
	}

	result, err := h.creator.CreateWithTestTicket(ctx, h.builder, in, createTest)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create ticket: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Created ticket %s.", result.Key)
	if result.TestKey != "" {
		fmt.Fprintf(&sb, " Created linked test ticket %s.", result.TestKey)
	}
	for _, note := range result.Notes {
		fmt.Fprintf(&sb, "\nNote: %s", note)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (h *Handler) GetTicket(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("issue_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	issue, err := h.client.GetIssue(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get ticket %s: %v", key, err)), nil
	}
	return mcp.NewToolResultText(h.formatIssue(issue)), nil
}

func (h *Handler) formatIssue(issue *jira.Issue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Key: %s\n", issue.Key)
	fmt.Fprintf(&sb, "Summary: %s\n", stringField(issue.Fields, "summary"))
	if name := nestedName(issue.Fields, "issuetype"); name != "" {
		fmt.Fprintf(&sb, "Type: %s\n", name)
	}
	if name := nestedName(issue.Fields, "status"); name != "" {
		fmt.Fprintf(&sb, "Status: %s\n", name)
	}
	if assignee, ok := issue.Fields["assignee"].(map[string]any); ok {
		if name, ok := assignee["displayName"].(string); ok && name != "" {
			fmt.Fprintf(&sb, "Assignee: %s\n", name)
		}
	}
	if desc := adf.FlattenValue(issue.Fields["description"]); desc != "" {
		fmt.Fprintf(&sb, "Description:\n%s\n", strings.TrimRight(desc, "\n"))
	}
	if h.cfg.AcceptanceCriteriaField != "" {
		if ac := adf.FlattenValue(issue.Fields[h.cfg.AcceptanceCriteriaField]); ac != "" {
			fmt.Fprintf(&sb, "Acceptance Criteria:\n%s\n", strings.TrimRight(ac, "\n"))
		}
	}
	return sb.String()
}

func (h *Handler) UpdateTicket(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("issue_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields := h.builder.BuildUpdate(h.ticketInput(request))
	if len(fields) == 0 {
		return mcp.NewToolResultError("no fields to update"), nil
	}

	if err := h.client.UpdateIssue(ctx, key, fields); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update ticket %s: %v", key, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated ticket %s (%s).", key, strings.Join(fields.Keys(), ", "))), nil
}

func (h *Handler) AddComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("issue_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := request.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := h.client.AddComment(ctx, key, adf.ParagraphDoc(body, "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to comment on %s: %v", key, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added comment to %s.", key)), nil
}

func (h *Handler) GetTransitions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("issue_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	transitions, err := h.client.GetTransitions(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get transitions for %s: %v", key, err)), nil
	}
	if len(transitions) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No transitions available for %s.", key)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Available transitions for %s:\n", key)
	for _, t := range transitions {
		fmt.Fprintf(&sb, "- %s: %s\n", t.ID, t.Name)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (h *Handler) TransitionTicket(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("issue_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	transitionID, err := request.RequireString("transition_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := h.client.TransitionIssue(ctx, key, transitionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to transition %s: %v", key, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Transitioned %s via transition %s.", key, transitionID)), nil
}

func (h *Handler) AssignTicket(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("issue_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	accountID, err := request.RequireString("account_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := h.client.AssignIssue(ctx, key, accountID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to assign %s: %v", key, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Assigned %s to %s.", key, accountID)), nil
}

func (h *Handler) AddWatcher(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("issue_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	accountID, err := request.RequireString("account_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := h.client.AddWatcher(ctx, key, accountID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add watcher to %s: %v", key, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added watcher %s to %s.", accountID, key)), nil
}

func (h *Handler) SearchTickets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jql, err := request.RequireString("jql")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxResults := int(request.GetFloat("max_results", 0))

	resp, err := h.client.SearchIssues(ctx, jql, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(resp.Issues) == 0 {
		return mcp.NewToolResultText("No tickets matched."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d ticket(s):\n", len(resp.Issues))
	for _, issue := range resp.Issues {
		status := nestedName(issue.Fields, "status")
		if status == "" {
			status = "Unknown"
		}
		fmt.Fprintf(&sb, "- %s [%s]: %s\n", issue.Key, status, stringField(issue.Fields, "summary"))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (h *Handler) LinkTickets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	outward, err := request.RequireString("outward_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inward, err := request.RequireString("inward_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	linkType := request.GetString("link_type", "Relates")

	if err := h.client.LinkIssues(ctx, linkType, outward, inward); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to link %s to %s: %v", outward, inward, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Linked %s to %s (%s).", outward, inward, linkType)), nil
}

func stringField(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

func nestedName(fields map[string]any, name string) string {
	obj, ok := fields[name].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj["name"].(string)
	return s
}
