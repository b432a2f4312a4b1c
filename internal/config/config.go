// Package config builds the immutable process-wide configuration.
//
// Everything the ticket tools need is resolved once at startup into a
// Config value: host, credentials, per-deployment custom-field identifiers,
// and default option IDs. The value is passed by reference into the builder,
// create protocol, and orchestrator; nothing reads the environment mid-call.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Crisis option IDs used when the deployment does not configure its own.
const (
	defaultCrisisYesID = "14150"
	defaultCrisisNoID  = "14151"
)

// Config holds every process-wide input, read-only after Load.
type Config struct {
	// Jira connection
	Host       string // e.g. "yourcompany.atlassian.net"
	Email      string
	APIToken   string
	ProjectKey string

	// Custom field IDs (opaque "customfield_NNNNN" tokens, per deployment)
	StoryPointsField        string
	SprintField             string
	EpicLinkField           string
	AcceptanceCriteriaField string

	// Product select field: value and option ID travel together
	ProductField string
	ProductValue string
	ProductID    string

	// Category select field: one of two configured options, chosen by flag
	CategoryField          string
	CategoryOptionID       string
	CategoryOptionValue    string
	AltCategoryOptionID    string
	AltCategoryOptionValue string
	UseAlternateCategory   bool

	// Story readiness Yes/No option IDs
	StoryReadinessField string
	StoryReadinessYesID string
	StoryReadinessNoID  string

	// Crisis Yes/No option IDs (literal defaults when unconfigured)
	CrisisField string
	CrisisYesID string
	CrisisNoID  string

	// Whether Story-with-points creates spawn a linked Test ticket by default
	AutoCreateTestTicket bool

	// Zephyr test-step API
	ZephyrBaseURL   string
	ZephyrAccessKey string
	ZephyrSecretKey string
	ZephyrAccountID string
}

// fieldOverrides mirrors the optional fields file, for deployments that keep
// their custom-field map in YAML instead of a dozen env vars.
type fieldOverrides struct {
	StoryPoints        string `yaml:"story_points"`
	Sprint             string `yaml:"sprint"`
	EpicLink           string `yaml:"epic_link"`
	AcceptanceCriteria string `yaml:"acceptance_criteria"`
	Product            string `yaml:"product"`
	Category           string `yaml:"category"`
	StoryReadiness     string `yaml:"story_readiness"`
	Crisis             string `yaml:"crisis"`
}

// Load reads the environment (call LoadEnv first) into a Config. The Jira
// connection settings are required; everything else is optional and simply
// disables the corresponding field when absent.
func Load() (*Config, error) {
	cfg := &Config{
		Host:       strings.TrimSuffix(os.Getenv("JIRA_HOST"), "/"),
		Email:      os.Getenv("JIRA_EMAIL"),
		APIToken:   os.Getenv("JIRA_API_TOKEN"),
		ProjectKey: os.Getenv("JIRA_PROJECT_KEY"),

		StoryPointsField:        os.Getenv("JIRA_STORY_POINTS_FIELD"),
		SprintField:             os.Getenv("JIRA_SPRINT_FIELD"),
		EpicLinkField:           os.Getenv("JIRA_EPIC_LINK_FIELD"),
		AcceptanceCriteriaField: os.Getenv("JIRA_ACCEPTANCE_CRITERIA_FIELD"),

		ProductField: os.Getenv("JIRA_PRODUCT_FIELD"),
		ProductValue: os.Getenv("JIRA_PRODUCT_VALUE"),
		ProductID:    os.Getenv("JIRA_PRODUCT_ID"),

		CategoryField:          os.Getenv("JIRA_CATEGORY_FIELD"),
		CategoryOptionID:       os.Getenv("JIRA_CATEGORY_OPTION_ID"),
		CategoryOptionValue:    os.Getenv("JIRA_CATEGORY_OPTION_VALUE"),
		AltCategoryOptionID:    os.Getenv("JIRA_ALT_CATEGORY_OPTION_ID"),
		AltCategoryOptionValue: os.Getenv("JIRA_ALT_CATEGORY_OPTION_VALUE"),
		UseAlternateCategory:   boolEnv("JIRA_USE_ALT_CATEGORY", false),

		StoryReadinessField: os.Getenv("JIRA_STORY_READINESS_FIELD"),
		StoryReadinessYesID: os.Getenv("JIRA_STORY_READINESS_YES_ID"),
		StoryReadinessNoID:  os.Getenv("JIRA_STORY_READINESS_NO_ID"),

		CrisisField: os.Getenv("JIRA_CRISIS_FIELD"),
		CrisisYesID: envOr("JIRA_CRISIS_YES_ID", defaultCrisisYesID),
		CrisisNoID:  envOr("JIRA_CRISIS_NO_ID", defaultCrisisNoID),

		AutoCreateTestTicket: boolEnv("AUTO_CREATE_TEST_TICKET", false),

		ZephyrBaseURL:   strings.TrimSuffix(os.Getenv("ZEPHYR_BASE_URL"), "/"),
		ZephyrAccessKey: os.Getenv("ZEPHYR_ACCESS_KEY"),
		ZephyrSecretKey: os.Getenv("ZEPHYR_SECRET_KEY"),
		ZephyrAccountID: os.Getenv("ZEPHYR_ACCOUNT_ID"),
	}

	if path := os.Getenv("JIRA_FIELDS_FILE"); path != "" {
		if err := cfg.applyFieldsFile(path); err != nil {
			return nil, err
		}
	}

	var missing []string
	for _, v := range []struct{ name, val string }{
		{"JIRA_HOST", cfg.Host},
		{"JIRA_EMAIL", cfg.Email},
		{"JIRA_API_TOKEN", cfg.APIToken},
		{"JIRA_PROJECT_KEY", cfg.ProjectKey},
	} {
		if v.val == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func (c *Config) applyFieldsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading fields file %s: %w", path, err)
	}
	var ov fieldOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("parsing fields file %s: %w", path, err)
	}
	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setIf(&c.StoryPointsField, ov.StoryPoints)
	setIf(&c.SprintField, ov.Sprint)
	setIf(&c.EpicLinkField, ov.EpicLink)
	setIf(&c.AcceptanceCriteriaField, ov.AcceptanceCriteria)
	setIf(&c.ProductField, ov.Product)
	setIf(&c.CategoryField, ov.Category)
	setIf(&c.StoryReadinessField, ov.StoryReadiness)
	setIf(&c.CrisisField, ov.Crisis)
	return nil
}

// hostURL returns the deployment root. Host is normally a bare hostname,
// but an explicit http:// or https:// prefix is honored.
func (c *Config) hostURL() string {
	if strings.Contains(c.Host, "://") {
		return c.Host
	}
	return "https://" + c.Host
}

// BaseURL returns the Jira REST API v3 root for this deployment.
func (c *Config) BaseURL() string {
	return c.hostURL() + "/rest/api/3"
}

// OptionSelfURL builds the self link for a custom field option ID.
func (c *Config) OptionSelfURL(optionID string) string {
	return fmt.Sprintf("%s/rest/api/3/customFieldOption/%s", c.hostURL(), optionID)
}

// ZephyrEnabled reports whether the test-step API is configured.
func (c *Config) ZephyrEnabled() bool {
	return c.ZephyrBaseURL != "" && c.ZephyrAccessKey != "" && c.ZephyrSecretKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}
