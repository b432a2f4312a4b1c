// Package adf builds and flattens Atlassian Document Format trees.
//
// Write paths construct documents from plain text; read paths flatten
// whatever ADF the API returned back into plain text. Documents are
// built fresh per call and never persisted.
package adf

import "strings"

// Node types Jira sends back for the fields this server touches. Anything
// outside this set flattens to the empty string.
const (
	NodeDoc         = "doc"
	NodeParagraph   = "paragraph"
	NodeText        = "text"
	NodeBulletList  = "bulletList"
	NodeListItem    = "listItem"
	NodeOrderedList = "orderedList"
	NodeHeading     = "heading"
	NodeCodeBlock   = "codeBlock"
)

// Node is one node in an ADF tree. Text nodes carry a string leaf and no
// children; every other node carries children and no text.
type Node struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Content []Node `json:"content,omitempty"`
}

// Document is the single "doc" root the issue API expects.
type Document struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Content []Node `json:"content"`
}

func newDocument(content []Node) *Document {
	if content == nil {
		// The API rejects "content": null; an empty array is valid.
		content = []Node{}
	}
	return &Document{Type: NodeDoc, Version: 1, Content: content}
}

// Text returns a text leaf node.
func Text(s string) Node {
	return Node{Type: NodeText, Text: s}
}

// Paragraph wraps a string in a paragraph node.
func Paragraph(s string) Node {
	return Node{Type: NodeParagraph, Content: []Node{Text(s)}}
}

// ParagraphDoc wraps text in a single-paragraph document. Empty text falls
// back to fallback. Never fails.
func ParagraphDoc(text, fallback string) *Document {
	if text == "" {
		text = fallback
	}
	return newDocument([]Node{Paragraph(text)})
}

// PlaceholderAcceptanceCriteria is used when no criteria text is supplied.
const PlaceholderAcceptanceCriteria = "No acceptance criteria provided"

// AcceptanceCriteriaDoc converts acceptance-criteria text into a document.
// Each non-blank line becomes its own node, in input order: lines starting
// with "-" or "*" become a one-item bullet list with the marker stripped,
// anything else becomes a paragraph. Blank lines are dropped. Input with no
// usable lines yields a single placeholder paragraph.
func AcceptanceCriteriaDoc(text string) *Document {
	var content []Node
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
			item := strings.TrimSpace(trimmed[1:])
			content = append(content, Node{
				Type: NodeBulletList,
				Content: []Node{{
					Type:    NodeListItem,
					Content: []Node{Paragraph(item)},
				}},
			})
		} else {
			content = append(content, Paragraph(trimmed))
		}
	}
	if len(content) == 0 {
		// Empty or all-blank input still yields a well-formed document.
		return ParagraphDoc(PlaceholderAcceptanceCriteria, "")
	}
	return newDocument(content)
}

// Flatten renders a document as plain text.
func (d *Document) Flatten() string {
	if d == nil {
		return ""
	}
	var b strings.Builder
	for _, n := range d.Content {
		flattenNode(n, &b)
	}
	return b.String()
}

func flattenNode(n Node, b *strings.Builder) {
	switch n.Type {
	case NodeText:
		b.WriteString(n.Text)
	case NodeParagraph, NodeHeading:
		for _, c := range n.Content {
			flattenNode(c, b)
		}
		b.WriteString("\n")
	case NodeListItem:
		b.WriteString("• ")
		for _, c := range n.Content {
			flattenNode(c, b)
		}
		b.WriteString("\n")
	case NodeCodeBlock:
		b.WriteString("```\n")
		for _, c := range n.Content {
			flattenNode(c, b)
		}
		b.WriteString("\n```\n")
	default:
		// bulletList, orderedList, doc: children already carry their own
		// bullets and newlines. Unknown leaf nodes contribute nothing.
		for _, c := range n.Content {
			flattenNode(c, b)
		}
	}
}

// FlattenValue renders a description-like value exactly as it came off the
// wire: nil yields "", a bare string passes through unchanged, an ADF tree
// (decoded into map[string]any) is walked with the same rules as Flatten.
// Anything else yields "".
func FlattenValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		var b strings.Builder
		flattenAny(val, &b)
		return b.String()
	default:
		return ""
	}
}

func flattenAny(node map[string]any, b *strings.Builder) {
	typ, _ := node["type"].(string)

	if typ == NodeText {
		if s, ok := node["text"].(string); ok {
			b.WriteString(s)
		}
		return
	}

	writeChildren := func() {
		if content, ok := node["content"].([]any); ok {
			for _, c := range content {
				if child, ok := c.(map[string]any); ok {
					flattenAny(child, b)
				}
			}
		}
	}

	switch typ {
	case NodeParagraph, NodeHeading:
		writeChildren()
		b.WriteString("\n")
	case NodeListItem:
		b.WriteString("• ")
		writeChildren()
		b.WriteString("\n")
	case NodeCodeBlock:
		b.WriteString("```\n")
		writeChildren()
		b.WriteString("\n```\n")
	default:
		writeChildren()
	}
}
