package relay_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apnskit/apnskit/internal/relay"
)

// clearRelayEnv unsets every variable Load reads, restoring the
// previous values when the test finishes.
func clearRelayEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APNS_PROJECT_ID", "APNS_SUBSCRIPTION", "APNS_HOST",
		"APNS_KEY_ID", "APNS_TEAM_ID", "APNS_KEY_FILE", "APNS_CERT_FILE",
		"APNS_MAX_OUTSTANDING", "APNS_MAX_EXTENSION",
		"APP_PORT", "APP_ENV",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_ENABLED",
	}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_TokenAuth(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("APNS_PROJECT_ID", "my-project")
	t.Setenv("APNS_KEY_ID", "ABC123DEFG")
	t.Setenv("APNS_TEAM_ID", "DEF123GHIJ")
	t.Setenv("APNS_KEY_FILE", "/etc/apns/key.p8")

	cfg, err := relay.Load()
	require.NoError(t, err)

	assert.Equal(t, "my-project", cfg.ProjectID)
	assert.Equal(t, "ABC123DEFG", cfg.KeyID)
	assert.Equal(t, "DEF123GHIJ", cfg.TeamID)
	assert.Equal(t, "/etc/apns/key.p8", cfg.KeyFile)
	assert.Empty(t, cfg.CertFile)

	// Defaults
	assert.Equal(t, "apns-push-jobs", cfg.Subscription)
	assert.Equal(t, "production", cfg.Host)
	assert.Equal(t, 10, cfg.MaxOutstanding)
	assert.Equal(t, 10*time.Minute, cfg.MaxExtension)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.False(t, cfg.OTELEnabled)
}

func TestLoad_CertAuth(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("APNS_PROJECT_ID", "my-project")
	t.Setenv("APNS_CERT_FILE", "/etc/apns/cert.pem")

	cfg, err := relay.Load()
	require.NoError(t, err)
	assert.Equal(t, "/etc/apns/cert.pem", cfg.CertFile)
	assert.Empty(t, cfg.KeyID)
}

func TestLoad_BothAuthModes(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("APNS_PROJECT_ID", "my-project")
	t.Setenv("APNS_CERT_FILE", "/etc/apns/cert.pem")
	t.Setenv("APNS_KEY_ID", "ABC123DEFG")

	_, err := relay.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not both")
}

func TestLoad_NoCredentials(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("APNS_PROJECT_ID", "my-project")

	_, err := relay.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials configured")
}

func TestLoad_IncompleteTokenAuth(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("APNS_PROJECT_ID", "my-project")
	t.Setenv("APNS_KEY_ID", "ABC123DEFG")

	_, err := relay.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APNS_TEAM_ID")
	assert.Contains(t, err.Error(), "APNS_KEY_FILE")
}

func TestLoad_MissingProjectID(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("APNS_CERT_FILE", "/etc/apns/cert.pem")

	_, err := relay.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APNS_PROJECT_ID")
}

func TestLoad_Overrides(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("APNS_PROJECT_ID", "my-project")
	t.Setenv("APNS_CERT_FILE", "/etc/apns/cert.pem")
	t.Setenv("APNS_SUBSCRIPTION", "apns-priority-jobs")
	t.Setenv("APNS_HOST", "development")
	t.Setenv("APNS_MAX_OUTSTANDING", "25")
	t.Setenv("APNS_MAX_EXTENSION", "5m")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := relay.Load()
	require.NoError(t, err)

	assert.Equal(t, "apns-priority-jobs", cfg.Subscription)
	assert.Equal(t, "development", cfg.Host)
	assert.Equal(t, 25, cfg.MaxOutstanding)
	assert.Equal(t, 5*time.Minute, cfg.MaxExtension)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.OTELEnabled)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("APNS_PROJECT_ID", "my-project")
	t.Setenv("APNS_CERT_FILE", "/etc/apns/cert.pem")
	t.Setenv("APNS_MAX_OUTSTANDING", "not-a-number")

	cfg, err := relay.Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxOutstanding)
}
