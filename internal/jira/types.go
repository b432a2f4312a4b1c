package jira

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MankowskiNick/jira-mcp/internal/adf"
)

// Value is the closed set of shapes a fields payload may hold: scalars,
// option references, option reference arrays, key/name references, and ADF
// documents. Restricting the payload to these shapes keeps the builder
// composing type-checked fragments instead of an open dictionary.
type Value interface {
	fieldValue()
}

// Text is a plain string field value.
type Text string

// Number is a numeric field value (story points).
type Number float64

// Labels is the issue labels array.
type Labels []string

// Option is a select-field option reference.
type Option struct {
	Self  string `json:"self,omitempty"`
	Value string `json:"value,omitempty"`
	ID    string `json:"id,omitempty"`
}

// Options is a multi-select option reference array.
type Options []Option

// KeyRef references an issue or project by key, e.g. {"key": "PROJ"}.
type KeyRef struct {
	Key string `json:"key"`
}

// NameRef references an entity by name, e.g. {"name": "Story"}.
type NameRef struct {
	Name string `json:"name"`
}

// IDRef references an entity by ID, e.g. an assignee accountId.
type IDRef struct {
	AccountID string `json:"accountId"`
}

// Sprints is the sprint field shape: a single-element [{name}] array.
type Sprints []NameRef

// Doc wraps an ADF document as a field value.
type Doc struct {
	*adf.Document
}

func (Text) fieldValue()    {}
func (Number) fieldValue()  {}
func (Labels) fieldValue()  {}
func (Option) fieldValue()  {}
func (Options) fieldValue() {}
func (KeyRef) fieldValue()  {}
func (NameRef) fieldValue() {}
func (IDRef) fieldValue()   {}
func (Sprints) fieldValue() {}
func (Doc) fieldValue()     {}

// Fields is the outbound "fields" object of a create or update request.
type Fields map[string]Value

// Clone returns a shallow copy. Values are immutable by convention, so a
// shallow copy is enough to keep each retry attempt's payload independent.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Without returns a copy with the given keys removed.
func (f Fields) Without(keys ...string) Fields {
	out := f.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// With returns a copy with key set to value.
func (f Fields) With(key string, value Value) Fields {
	out := f.Clone()
	out[key] = value
	return out
}

// Keys returns the field keys in sorted order, for stable logging.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CreateRequest is the body of POST /issue.
type CreateRequest struct {
	Fields Fields `json:"fields"`
}

// UpdateRequest is the body of PUT /issue/{key}.
type UpdateRequest struct {
	Fields Fields `json:"fields"`
}

// CreateResult is the success body of POST /issue.
type CreateResult struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self,omitempty"`
}

// Issue is an issue as returned by GET /issue/{key}. Fields stay untyped
// here; readers pull the values they need and flatten ADF on the way out.
type Issue struct {
	ID     string         `json:"id"`
	Key    string         `json:"key"`
	Self   string         `json:"self"`
	Fields map[string]any `json:"fields"`
}

// SearchResponse is the body of POST /search/jql.
type SearchResponse struct {
	StartAt       int     `json:"startAt"`
	MaxResults    int     `json:"maxResults"`
	Total         int     `json:"total"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	Issues        []Issue `json:"issues"`
}

// Transition is one workflow transition of an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   struct {
		Name string `json:"name"`
	} `json:"to"`
}

// User is a Jira user.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// errorBody is the JSON error envelope Jira attaches to failed requests.
type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// APIError is a non-2xx response from the issue API. FieldErrors carries the
// per-field validation map when the server supplied one; the create protocol
// keys its recovery decisions off it.
type APIError struct {
	StatusCode  int
	Messages    []string
	FieldErrors map[string]string
}

func (e *APIError) Error() string {
	var parts []string
	if len(e.Messages) > 0 {
		parts = append(parts, strings.Join(e.Messages, "; "))
	}
	for _, k := range sortedKeys(e.FieldErrors) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.FieldErrors[k]))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("jira api error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("jira api error (status %d): %s", e.StatusCode, strings.Join(parts, "; "))
}

// IsFieldValidation reports whether this is a 400 carrying a per-field
// errors map, the only failure class the create protocol recovers from.
func (e *APIError) IsFieldValidation() bool {
	return e.StatusCode == 400 && len(e.FieldErrors) > 0
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
