package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JIRA_HOST", "example.atlassian.net")
	t.Setenv("JIRA_EMAIL", "bot@example.com")
	t.Setenv("JIRA_API_TOKEN", "token")
	t.Setenv("JIRA_PROJECT_KEY", "PROJ")
}

func TestLoadRequiredVars(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "example.atlassian.net", cfg.Host)
	assert.Equal(t, "PROJ", cfg.ProjectKey)
	assert.Equal(t, "https://example.atlassian.net/rest/api/3", cfg.BaseURL())
}

func TestLoadReportsAllMissingVars(t *testing.T) {
	t.Setenv("JIRA_HOST", "")
	t.Setenv("JIRA_EMAIL", "")
	t.Setenv("JIRA_API_TOKEN", "t")
	t.Setenv("JIRA_PROJECT_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JIRA_HOST")
	assert.Contains(t, err.Error(), "JIRA_EMAIL")
	assert.Contains(t, err.Error(), "JIRA_PROJECT_KEY")
	assert.NotContains(t, err.Error(), "JIRA_API_TOKEN")
}

func TestLoadTrimsTrailingSlashes(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JIRA_HOST", "example.atlassian.net/")
	t.Setenv("ZEPHYR_BASE_URL", "https://zephyr.example.com/")
	t.Setenv("ZEPHYR_ACCESS_KEY", "a")
	t.Setenv("ZEPHYR_SECRET_KEY", "s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "example.atlassian.net", cfg.Host)
	assert.Equal(t, "https://zephyr.example.com", cfg.ZephyrBaseURL)
	assert.True(t, cfg.ZephyrEnabled())
}

func TestLoadCrisisDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "14150", cfg.CrisisYesID)
	assert.Equal(t, "14151", cfg.CrisisNoID)
}

func TestLoadFieldsFileOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JIRA_STORY_POINTS_FIELD", "customfield_1")

	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte("story_points: customfield_2\nsprint: customfield_3\n"), 0o644))
	t.Setenv("JIRA_FIELDS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	// The file wins over the env var, and untouched fields keep their value.
	assert.Equal(t, "customfield_2", cfg.StoryPointsField)
	assert.Equal(t, "customfield_3", cfg.SprintField)
	assert.Equal(t, "", cfg.EpicLinkField)
}

func TestLoadFieldsFileMissing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JIRA_FIELDS_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestHostURLSchemeOverride(t *testing.T) {
	cfg := &Config{Host: "http://127.0.0.1:8080"}

	assert.Equal(t, "http://127.0.0.1:8080/rest/api/3", cfg.BaseURL())
	assert.Equal(t, "http://127.0.0.1:8080/rest/api/3/customFieldOption/9", cfg.OptionSelfURL("9"))
}

func TestZephyrEnabledRequiresAllKeys(t *testing.T) {
	cfg := &Config{ZephyrBaseURL: "https://z", ZephyrAccessKey: "a"}
	assert.False(t, cfg.ZephyrEnabled())

	cfg.ZephyrSecretKey = "s"
	assert.True(t, cfg.ZephyrEnabled())
}

func TestBoolEnv(t *testing.T) {
	t.Setenv("FLAG", "TRUE")
	assert.True(t, boolEnv("FLAG", false))

	t.Setenv("FLAG", "1")
	assert.True(t, boolEnv("FLAG", false))

	t.Setenv("FLAG", "no")
	assert.False(t, boolEnv("FLAG", true))

	t.Setenv("FLAG", "")
	assert.True(t, boolEnv("FLAG", true))
}
