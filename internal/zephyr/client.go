// Package zephyr talks to the Zephyr test-step API. Every request carries a
// short-lived signed token computed over the method, path, and sorted query
// string of that specific request.
package zephyr

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/MankowskiNick/jira-mcp/internal/config"
)

const tokenTTL = 3600 * time.Second

// Client issues signed requests against the Zephyr API.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	log        zerolog.Logger
	now        func() time.Time
}

// NewClient creates a Zephyr client from the process configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "zephyr").Logger(),
		now:        time.Now,
	}
}

// TestStep is one scripted step of a test ticket.
type TestStep struct {
	Step   string `json:"step"`
	Data   string `json:"data"`
	Result string `json:"result"`
}

// AddTestStep appends one step to the issue's test script.
func (c *Client) AddTestStep(ctx context.Context, issueID, projectID string, step TestStep) error {
	path := "/teststep/" + url.PathEscape(issueID)
	query := url.Values{"projectId": {projectID}}

	body, err := json.Marshal(map[string]string{
		"projectId": projectID,
		"step":      step.Step,
		"data":      step.Data,
		"result":    step.Result,
	})
	if err != nil {
		return err
	}

	token, err := c.signRequest(http.MethodPost, path, query)
	if err != nil {
		return fmt.Errorf("signing test step request: %w", err)
	}

	reqURL := c.cfg.ZephyrBaseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "JWT "+token)
	req.Header.Set("zapiAccessKey", c.cfg.ZephyrAccessKey)
	req.Header.Set("Content-Type", "application/json")

	c.log.Info().Str("url", reqURL).RawJSON("payload", body).Msg("adding test step")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("zephyr api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// signRequest builds the per-request token. The qsh claim pins the token to
// exactly one request: a SHA-256 over "METHOD&path&sortedQuery".
func (c *Client) signRequest(method, path string, query url.Values) (string, error) {
	issued := c.now()
	claims := jwt.MapClaims{
		"sub": c.cfg.ZephyrAccountID,
		"iss": c.cfg.ZephyrAccessKey,
		"qsh": canonicalHash(method, path, query),
		"iat": issued.Unix(),
		"exp": issued.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.cfg.ZephyrSecretKey))
}

// canonicalHash hashes the canonical request string. Query parameters are
// sorted by key, with multi-valued keys joined by commas, matching the
// server's canonicalization.
func canonicalHash(method, path string, query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := append([]string(nil), query[k]...)
		sort.Strings(vals)
		pairs = append(pairs, k+"="+strings.Join(vals, ","))
	}

	canonical := strings.ToUpper(method) + "&" + path + "&" + strings.Join(pairs, "&")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
