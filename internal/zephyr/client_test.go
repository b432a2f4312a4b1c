package zephyr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MankowskiNick/jira-mcp/internal/config"
)

func zephyrConfig(baseURL string) *config.Config {
	return &config.Config{
		ZephyrBaseURL:   baseURL,
		ZephyrAccessKey: "access-key",
		ZephyrSecretKey: "secret-key",
		ZephyrAccountID: "account-123",
	}
}

func TestCanonicalHash(t *testing.T) {
	hash := canonicalHash("post", "/teststep/10001", url.Values{"projectId": {"10000"}})

	want := sha256.Sum256([]byte("POST&/teststep/10001&projectId=10000"))
	assert.Equal(t, hex.EncodeToString(want[:]), hash)
}

func TestCanonicalHashSortsQuery(t *testing.T) {
	a := canonicalHash("GET", "/p", url.Values{"b": {"2"}, "a": {"1"}})
	b := canonicalHash("GET", "/p", url.Values{"a": {"1"}, "b": {"2"}})

	assert.Equal(t, a, b)

	want := sha256.Sum256([]byte("GET&/p&a=1&b=2"))
	assert.Equal(t, hex.EncodeToString(want[:]), a)
}

func TestAddTestStepSignsRequest(t *testing.T) {
	var gotAuth, gotAccessKey, gotQuery string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccessKey = r.Header.Get("zapiAccessKey")
		gotQuery = r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := zephyrConfig(srv.URL)
	client := NewClient(cfg, zerolog.Nop())
	// jwt.Parse validates exp against the real clock, so pin to a fresh
	// whole-second instant rather than a fixed date.
	issued := time.Now().Truncate(time.Second)
	client.now = func() time.Time { return issued }

	err := client.AddTestStep(context.Background(), "10001", "10000", TestStep{
		Step:   "Open the login page",
		Data:   "https://example.test/login",
		Result: "Form is shown",
	})
	require.NoError(t, err)

	assert.Equal(t, "access-key", gotAccessKey)
	assert.Equal(t, "projectId=10000", gotQuery)
	assert.Equal(t, map[string]string{
		"projectId": "10000",
		"step":      "Open the login page",
		"data":      "https://example.test/login",
		"result":    "Form is shown",
	}, gotBody)

	require.True(t, len(gotAuth) > 4 && gotAuth[:4] == "JWT ")
	token, err := jwt.Parse(gotAuth[4:], func(tok *jwt.Token) (any, error) {
		require.IsType(t, &jwt.SigningMethodHMAC{}, tok.Method)
		return []byte("secret-key"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "account-123", claims["sub"])
	assert.Equal(t, "access-key", claims["iss"])
	assert.Equal(t, canonicalHash("POST", "/teststep/10001", url.Values{"projectId": {"10000"}}), claims["qsh"])
	assert.Equal(t, float64(issued.Unix()), claims["iat"])
	assert.Equal(t, float64(issued.Add(tokenTTL).Unix()), claims["exp"])
}

func TestAddTestStepAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("invalid signature"))
	}))
	defer srv.Close()

	client := NewClient(zephyrConfig(srv.URL), zerolog.Nop())

	err := client.AddTestStep(context.Background(), "10001", "10000", TestStep{Step: "s"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "invalid signature")
}
