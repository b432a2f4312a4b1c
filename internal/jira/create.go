package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MankowskiNick/jira-mcp/internal/config"
)

// Creator runs the create protocol: submit the full payload, and when the
// server rejects known-troublesome custom fields, recover with a bounded,
// deterministic sequence of alternative payloads. At most one removal retry
// and three product-format attempts are ever issued per call; attempts are
// strictly sequential.
type Creator struct {
	client *Client
	cfg    *config.Config
	log    zerolog.Logger
}

// NewCreator returns a Creator submitting through client.
func NewCreator(client *Client, cfg *config.Config, log zerolog.Logger) *Creator {
	return &Creator{
		client: client,
		cfg:    cfg,
		log:    log.With().Str("component", "create").Logger(),
	}
}

// productVariants returns the alternative encodings of the product field
// tried, in order, when the server insists the field is required but
// rejects the primary array-of-option shape: the raw ID as a scalar string,
// a single-element array carrying only the ID, and a single-element array
// carrying only the value.
func (cr *Creator) productVariants() []Value {
	return []Value{
		Text(cr.cfg.ProductID),
		Options{{ID: cr.cfg.ProductID}},
		Options{{Value: cr.cfg.ProductValue}},
	}
}

// Create submits fields and applies the recovery policy on field-level
// validation failures. The returned error is the terminal failure after all
// applicable attempts; any success short-circuits.
func (cr *Creator) Create(ctx context.Context, fields Fields) (*CreateResult, error) {
	log := cr.log.With().Str("attempt_id", uuid.NewString()).Logger()

	result, err := cr.attempt(ctx, log, "primary", fields)
	if err == nil {
		return result, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsFieldValidation() {
		// Transport failures, non-400 statuses, and 400s with no per-field
		// detail are not recoverable.
		return nil, err
	}

	var removals []string

	if msg, failing := apiErr.FieldErrors[cr.cfg.ProductField]; failing && cr.cfg.ProductField != "" {
		if isRequiredError(msg) && cr.cfg.ProductID != "" && cr.cfg.ProductValue != "" {
			// The server wants the field but rejected our encoding; walk the
			// format ladder. This path takes precedence over any removals.
			return cr.retryProductFormats(ctx, log, fields)
		}
		removals = append(removals, cr.cfg.ProductField)
	}
	if _, failing := apiErr.FieldErrors[cr.cfg.CategoryField]; failing && cr.cfg.CategoryField != "" {
		removals = append(removals, cr.cfg.CategoryField)
	}

	if len(removals) == 0 {
		return nil, err
	}

	log.Info().Strs("removed", removals).Msg("retrying create without rejected fields")
	result, retryErr := cr.attempt(ctx, log, "removal", fields.Without(removals...))
	if retryErr == nil {
		return result, nil
	}
	var retryAPIErr *APIError
	if errors.As(retryErr, &retryAPIErr) {
		return nil, retryErr
	}
	// Keep the original validation detail when the retry failed opaquely.
	return nil, err
}

// retryProductFormats walks the product-field format ladder and returns the
// first accepted attempt, or a diagnostic naming the rejected option when
// every variant fails.
func (cr *Creator) retryProductFormats(ctx context.Context, log zerolog.Logger, fields Fields) (*CreateResult, error) {
	for i, variant := range cr.productVariants() {
		name := fmt.Sprintf("product-format-%d", i+1)
		result, err := cr.attempt(ctx, log, name, fields.With(cr.cfg.ProductField, variant))
		if err == nil {
			return result, nil
		}
	}
	return nil, fmt.Errorf(
		"could not create ticket: %s rejected option id %q / value %q in every supported encoding",
		cr.cfg.ProductField, cr.cfg.ProductID, cr.cfg.ProductValue)
}

// attempt issues one create request, logging the outgoing URL and payload
// either way.
func (cr *Creator) attempt(ctx context.Context, log zerolog.Logger, name string, fields Fields) (*CreateResult, error) {
	url := cr.cfg.BaseURL() + "/issue"
	if payload, err := json.Marshal(CreateRequest{Fields: fields}); err == nil {
		log.Info().Str("variant", name).Str("url", url).RawJSON("payload", payload).Msg("create attempt")
	} else {
		log.Info().Str("variant", name).Str("url", url).Strs("fields", fields.Keys()).Msg("create attempt")
	}

	result, err := cr.client.CreateIssue(ctx, fields)
	if err != nil {
		log.Warn().Str("variant", name).Err(err).Msg("create attempt failed")
		return nil, err
	}
	log.Info().Str("variant", name).Str("key", result.Key).Msg("create attempt succeeded")
	return result, nil
}

// isRequiredError classifies the server's free-text field error. This is a
// substring heuristic, not a contract: Jira does not expose a structured
// "required" code, so the protocol keys off the word itself.
func isRequiredError(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "required")
}
