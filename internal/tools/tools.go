// Package tools registers the ticket-management tools with the MCP server
// and adapts validated tool arguments into calls on the jira and zephyr
// clients. Every tool returns a single textual success or error result.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/MankowskiNick/jira-mcp/internal/cache"
	"github.com/MankowskiNick/jira-mcp/internal/config"
	"github.com/MankowskiNick/jira-mcp/internal/jira"
	"github.com/MankowskiNick/jira-mcp/internal/zephyr"
)

// Handler owns the clients shared by all tool invocations. Configuration is
// immutable and clients are stateless, so concurrent tool calls need no
// coordination.
type Handler struct {
	cfg     *config.Config
	client  *jira.Client
	builder *jira.Builder
	creator *jira.Creator
	zephyr  *zephyr.Client
	issues  *cache.TTL[issueRef]
	log     zerolog.Logger
}

// NewHandler wires the tool handlers to cfg.
func NewHandler(cfg *config.Config, log zerolog.Logger) *Handler {
	client := jira.NewClient(cfg, log)
	return &Handler{
		cfg:     cfg,
		client:  client,
		builder: jira.NewBuilder(cfg, log),
		creator: jira.NewCreator(client, cfg, log),
		zephyr:  zephyr.NewClient(cfg, log),
		issues:  cache.New[issueRef](),
		log:     log.With().Str("component", "tools").Logger(),
	}
}

// Register adds every tool to the server.
func (h *Handler) Register(s *server.MCPServer) {
	ticketFieldOptions := func(tool ...mcp.ToolOption) []mcp.ToolOption {
		return append(tool,
			mcp.WithString("description", mcp.Description("Ticket description (plain text)")),
			mcp.WithString("acceptance_criteria", mcp.Description("Acceptance criteria, one per line; lines starting with - or * become bullets")),
			mcp.WithNumber("story_points", mcp.Description("Story points (Story tickets only)")),
			mcp.WithString("sprint", mcp.Description("Sprint name to assign the ticket to")),
			mcp.WithString("epic_link", mcp.Description("Key of the parent epic, e.g. PROJ-100")),
			mcp.WithString("story_readiness", mcp.Description("Story readiness, Yes or No"), mcp.Enum("Yes", "No")),
			mcp.WithString("crisis", mcp.Description("Crisis flag, Yes or No"), mcp.Enum("Yes", "No")),
		)
	}

	s.AddTool(mcp.NewTool("create_ticket",
		ticketFieldOptions(
			mcp.WithDescription("Create a Jira ticket. Story tickets with points get a QA-Testable label and, when enabled, a linked Test ticket."),
			mcp.WithString("summary", mcp.Required(), mcp.Description("Ticket summary")),
			mcp.WithString("issue_type", mcp.Required(), mcp.Description("Issue type, e.g. Story, Bug, Task, Epic")),
			mcp.WithString("project_key", mcp.Description("Project key; defaults to the configured project")),
			mcp.WithBoolean("create_test_ticket", mcp.Description("Override the default for creating a linked Test ticket")),
		)...,
	), h.CreateTicket)

	s.AddTool(mcp.NewTool("get_ticket",
		mcp.WithDescription("Get a Jira ticket by key, with rich-text fields rendered as plain text."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key, e.g. PROJ-123")),
	), h.GetTicket)

	s.AddTool(mcp.NewTool("update_ticket",
		ticketFieldOptions(
			mcp.WithDescription("Update fields on an existing Jira ticket. Only supplied fields change."),
			mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key, e.g. PROJ-123")),
			mcp.WithString("summary", mcp.Description("New summary")),
		)...,
	), h.UpdateTicket)

	s.AddTool(mcp.NewTool("add_comment",
		mcp.WithDescription("Add a comment to a Jira ticket."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Comment text")),
	), h.AddComment)

	s.AddTool(mcp.NewTool("get_transitions",
		mcp.WithDescription("List the workflow transitions currently available for a ticket."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key")),
	), h.GetTransitions)

	s.AddTool(mcp.NewTool("transition_ticket",
		mcp.WithDescription("Move a ticket through a workflow transition."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key")),
		mcp.WithString("transition_id", mcp.Required(), mcp.Description("Transition ID from get_transitions")),
	), h.TransitionTicket)

	s.AddTool(mcp.NewTool("assign_ticket",
		mcp.WithDescription("Assign a ticket to a user."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key")),
		mcp.WithString("account_id", mcp.Required(), mcp.Description("Assignee account ID")),
	), h.AssignTicket)

	s.AddTool(mcp.NewTool("add_watcher",
		mcp.WithDescription("Add a watcher to a ticket."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key")),
		mcp.WithString("account_id", mcp.Required(), mcp.Description("Watcher account ID")),
	), h.AddWatcher)

	s.AddTool(mcp.NewTool("search_tickets",
		mcp.WithDescription("Search Jira tickets with a JQL query."),
		mcp.WithString("jql", mcp.Required(), mcp.Description("JQL query string")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default 50)")),
	), h.SearchTickets)

	s.AddTool(mcp.NewTool("link_tickets",
		mcp.WithDescription("Create a link between two Jira tickets."),
		mcp.WithString("outward_key", mcp.Required(), mcp.Description("Key of the outward issue")),
		mcp.WithString("inward_key", mcp.Required(), mcp.Description("Key of the inward issue")),
		mcp.WithString("link_type", mcp.Description("Link type name (default 'Relates')")),
	), h.LinkTickets)

	s.AddTool(mcp.NewTool("add_test_steps",
		mcp.WithDescription("Add scripted test steps to a Test ticket via the Zephyr API."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Test ticket key")),
		mcp.WithArray("steps", mcp.Required(),
			mcp.Description("Test steps, each an object with step, data, and result strings"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"step":   map[string]any{"type": "string"},
					"data":   map[string]any{"type": "string"},
					"result": map[string]any{"type": "string"},
				},
				"required": []string{"step"},
			}),
		),
	), h.AddTestSteps)
}
