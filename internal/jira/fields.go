package jira

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/MankowskiNick/jira-mcp/internal/adf"
	"github.com/MankowskiNick/jira-mcp/internal/config"
)

// Label applied to Story tickets that carry points, marking them for QA.
const qaTestableLabel = "QA-Testable"

// TicketInput is the set of optional logical inputs a ticket payload is
// built from. Only Summary and IssueType are required by the tool schema;
// everything else is optional and skipped when absent.
type TicketInput struct {
	ProjectKey         string
	Summary            string
	Description        string
	AcceptanceCriteria string
	IssueType          string
	StoryPoints        *float64
	Sprint             string
	EpicLink           string
	StoryReadiness     string // "Yes" or "No"
	Crisis             string // "Yes" or "No"
}

// Builder assembles the fields payload for create and update requests from
// TicketInput plus the process-wide configuration. It never fails: missing
// optional configuration skips the corresponding field with a warning.
type Builder struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewBuilder returns a Builder bound to cfg.
func NewBuilder(cfg *config.Config, log zerolog.Logger) *Builder {
	return &Builder{cfg: cfg, log: log.With().Str("component", "fields").Logger()}
}

// standardIssueType reports whether the type takes the product and category
// custom fields. Epics and Tests do not.
func standardIssueType(issueType string) bool {
	return issueType != "Epic" && issueType != "Test"
}

// Build constructs the full create payload for in.
func (b *Builder) Build(in TicketInput) Fields {
	projectKey := in.ProjectKey
	if projectKey == "" {
		projectKey = b.cfg.ProjectKey
	}

	fields := Fields{
		"project":     KeyRef{Key: projectKey},
		"summary":     Text(in.Summary),
		"description": Doc{adf.ParagraphDoc(in.Description, "No description provided")},
		"issuetype":   NameRef{Name: in.IssueType},
	}

	if in.AcceptanceCriteria != "" {
		if b.cfg.AcceptanceCriteriaField != "" {
			fields[b.cfg.AcceptanceCriteriaField] = Doc{adf.AcceptanceCriteriaDoc(in.AcceptanceCriteria)}
		} else {
			b.log.Warn().Msg("acceptance criteria supplied but no field configured, skipping")
		}
	}

	if standardIssueType(in.IssueType) {
		b.applyProduct(fields)
		b.applyCategory(fields)
	}

	if in.StoryPoints != nil && in.IssueType == "Story" {
		if b.cfg.StoryPointsField != "" {
			fields[b.cfg.StoryPointsField] = Number(*in.StoryPoints)
		} else {
			b.log.Warn().Msg("story points supplied but no field configured, skipping")
		}
		fields["labels"] = Labels{qaTestableLabel}
	}

	if in.EpicLink != "" {
		if in.IssueType == "Epic" {
			fields["parent"] = KeyRef{Key: in.EpicLink}
		} else if b.cfg.EpicLinkField != "" {
			fields[b.cfg.EpicLinkField] = Text(in.EpicLink)
		} else {
			b.log.Warn().Msg("epic link supplied but no field configured, skipping")
		}
	}

	if in.Sprint != "" {
		if b.cfg.SprintField != "" {
			fields[b.cfg.SprintField] = Sprints{{Name: in.Sprint}}
		} else {
			b.log.Warn().Msg("sprint supplied but no field configured, skipping")
		}
	}

	b.applyYesNo(fields, "story readiness", in.StoryReadiness,
		b.cfg.StoryReadinessField, b.cfg.StoryReadinessYesID, b.cfg.StoryReadinessNoID)
	b.applyYesNo(fields, "crisis", in.Crisis,
		b.cfg.CrisisField, b.cfg.CrisisYesID, b.cfg.CrisisNoID)

	return fields
}

// applyProduct sets the product select field as a single-element option
// array with a self link, the shape most deployments accept on the first
// try. The create protocol owns the fallback encodings.
func (b *Builder) applyProduct(fields Fields) {
	if b.cfg.ProductField == "" {
		return
	}
	if b.cfg.ProductValue == "" || b.cfg.ProductID == "" {
		b.log.Warn().Str("field", b.cfg.ProductField).Msg("product field configured without value/id, skipping")
		return
	}
	fields[b.cfg.ProductField] = Options{{
		Self:  b.cfg.OptionSelfURL(b.cfg.ProductID),
		Value: b.cfg.ProductValue,
		ID:    b.cfg.ProductID,
	}}
}

// applyCategory sets the category select field to the active option, a
// single option reference rather than an array.
func (b *Builder) applyCategory(fields Fields) {
	if b.cfg.CategoryField == "" {
		return
	}
	id, value := b.cfg.CategoryOptionID, b.cfg.CategoryOptionValue
	if b.cfg.UseAlternateCategory {
		id, value = b.cfg.AltCategoryOptionID, b.cfg.AltCategoryOptionValue
	}
	if id == "" || value == "" {
		b.log.Warn().Str("field", b.cfg.CategoryField).Msg("category option incomplete, skipping")
		return
	}
	fields[b.cfg.CategoryField] = Option{
		Self:  b.cfg.OptionSelfURL(id),
		Value: value,
		ID:    id,
	}
}

func (b *Builder) applyYesNo(fields Fields, name, answer, field, yesID, noID string) {
	if answer == "" {
		return
	}
	if field == "" {
		b.log.Warn().Str("input", name).Msg("value supplied but no field configured, skipping")
		return
	}
	var id string
	switch {
	case strings.EqualFold(answer, "Yes"):
		id = yesID
	case strings.EqualFold(answer, "No"):
		id = noID
	default:
		b.log.Warn().Str("input", name).Str("value", answer).Msg("expected Yes or No, skipping")
		return
	}
	if id == "" {
		b.log.Warn().Str("input", name).Msg("no option id configured, skipping")
		return
	}
	fields[field] = Option{ID: id}
}

// BuildUpdate constructs a partial payload containing only the inputs the
// caller actually supplied, for PUT /issue/{key}.
func (b *Builder) BuildUpdate(in TicketInput) Fields {
	fields := Fields{}
	if in.Summary != "" {
		fields["summary"] = Text(in.Summary)
	}
	if in.Description != "" {
		fields["description"] = Doc{adf.ParagraphDoc(in.Description, "")}
	}
	if in.AcceptanceCriteria != "" && b.cfg.AcceptanceCriteriaField != "" {
		fields[b.cfg.AcceptanceCriteriaField] = Doc{adf.AcceptanceCriteriaDoc(in.AcceptanceCriteria)}
	}
	if in.StoryPoints != nil && b.cfg.StoryPointsField != "" {
		fields[b.cfg.StoryPointsField] = Number(*in.StoryPoints)
	}
	if in.Sprint != "" && b.cfg.SprintField != "" {
		fields[b.cfg.SprintField] = Sprints{{Name: in.Sprint}}
	}
	if in.EpicLink != "" && b.cfg.EpicLinkField != "" {
		fields[b.cfg.EpicLinkField] = Text(in.EpicLink)
	}
	b.applyYesNo(fields, "story readiness", in.StoryReadiness,
		b.cfg.StoryReadinessField, b.cfg.StoryReadinessYesID, b.cfg.StoryReadinessNoID)
	b.applyYesNo(fields, "crisis", in.Crisis,
		b.cfg.CrisisField, b.cfg.CrisisYesID, b.cfg.CrisisNoID)
	return fields
}
