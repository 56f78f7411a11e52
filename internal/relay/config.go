// Package relay consumes queued push jobs from a Pub/Sub subscription
// and dispatches them to the Apple Push Notification gateway.
package relay

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the relay daemon settings, loaded from the environment.
type Config struct {
	// Pub/Sub source.
	ProjectID    string
	Subscription string

	// Gateway host: "production", "development", or an absolute URL.
	Host string

	// Credentials. Either a provider token key (key id + team id + key
	// file) or a client certificate file, never both.
	KeyID    string
	TeamID   string
	KeyFile  string
	CertFile string

	// Subscriber flow control.
	MaxOutstanding int
	MaxExtension   time.Duration

	// Ops server.
	Port        int
	Environment string

	// Telemetry.
	OTLPEndpoint string
	OTELEnabled  bool
}

// Load reads the configuration from the environment, after loading a
// .env file when one is present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ProjectID:      getEnv("APNS_PROJECT_ID", ""),
		Subscription:   getEnv("APNS_SUBSCRIPTION", "apns-push-jobs"),
		Host:           getEnv("APNS_HOST", "production"),
		KeyID:          getEnv("APNS_KEY_ID", ""),
		TeamID:         getEnv("APNS_TEAM_ID", ""),
		KeyFile:        getEnv("APNS_KEY_FILE", ""),
		CertFile:       getEnv("APNS_CERT_FILE", ""),
		MaxOutstanding: getEnvAsInt("APNS_MAX_OUTSTANDING", 10),
		MaxExtension:   getEnvAsDuration("APNS_MAX_EXTENSION", 10*time.Minute),
		Port:           getEnvAsInt("APP_PORT", 8080),
		Environment:    getEnv("APP_ENV", "development"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELEnabled:    getEnv("OTEL_ENABLED", "false") == "true",
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.ProjectID == "" {
		missing = append(missing, "APNS_PROJECT_ID")
	}

	tokenAuth := c.KeyID != "" || c.TeamID != "" || c.KeyFile != ""
	certAuth := c.CertFile != ""
	switch {
	case tokenAuth && certAuth:
		return errors.New("configure either APNS_CERT_FILE or the APNS_KEY_* variables, not both")
	case tokenAuth:
		if c.KeyID == "" {
			missing = append(missing, "APNS_KEY_ID")
		}
		if c.TeamID == "" {
			missing = append(missing, "APNS_TEAM_ID")
		}
		if c.KeyFile == "" {
			missing = append(missing, "APNS_KEY_FILE")
		}
	case !certAuth:
		return errors.New("no credentials configured: set APNS_CERT_FILE, or APNS_KEY_ID, APNS_TEAM_ID and APNS_KEY_FILE")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

func getEnv(key, def string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return value
}

func getEnvAsInt(key string, def int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return def
}
