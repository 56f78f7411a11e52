// Package main provides apnsctl, a command line tool that sends a
// single push notification and prints the gateway-assigned id.
//
// Every flag falls back to an APNS_* environment variable, and a .env
// file in the working directory is loaded first. Authentication is
// either a client certificate PEM file or a provider token signing key,
// never both.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/apnskit/apnskit/pkg/apns"
	"github.com/apnskit/apnskit/pkg/apns/payload"
	"github.com/apnskit/apnskit/pkg/apns/token"
)

func main() {
	_ = godotenv.Load()

	var (
		caPEMFile     = flag.String("ca-pem-file", envOr("APNS_CA_PEM_FILE", ""), "path to a PEM root CA bundle replacing the system pool")
		clientPEMFile = flag.String("client-pem-file", envOr("APNS_CLIENT_PEM_FILE", ""), "path to a PEM client certificate and key")
		keyID         = flag.String("key-id", envOr("APNS_KEY_ID", ""), "provider token key id")
		keyPEMFile    = flag.String("key-pem-file", envOr("APNS_KEY_PEM_FILE", ""), "path to a PEM ES256 signing key")
		teamID        = flag.String("team-id", envOr("APNS_TEAM_ID", ""), "Apple developer team id")
		endpoint      = flag.String("endpoint", envOr("APNS_ENDPOINT", "production"), `gateway: "production", "development", or an absolute URL`)
		userAgent     = flag.String("user-agent", envOr("APNS_USER_AGENT", ""), "user-agent header override")

		deviceToken = flag.String("device-token", envOr("APNS_DEVICE_TOKEN", ""), "hex-encoded device token (required)")
		pushType    = flag.String("push-type", envOr("APNS_PUSH_TYPE", "alert"), "push type of the notification")
		id          = flag.String("id", envOr("APNS_ID", ""), "canonical UUID identifying the notification")
		expiration  = flag.String("expiration", envOr("APNS_EXPIRATION", ""), "RFC 3339 timestamp or duration from now")
		priority    = flag.String("priority", envOr("APNS_PRIORITY", ""), "delivery priority: 10, 5 or 1")
		topic       = flag.String("topic", envOr("APNS_TOPIC", ""), "notification topic, e.g. the app bundle id")
		collapseID  = flag.String("collapse-id", envOr("APNS_COLLAPSE_ID", ""), "identifier for coalescing notifications")

		title       = flag.String("title", envOr("APNS_TITLE", ""), "alert title")
		subtitle    = flag.String("subtitle", envOr("APNS_SUBTITLE", ""), "alert subtitle")
		body        = flag.String("body", envOr("APNS_BODY", ""), "alert body")
		launchImage = flag.String("launch-image", envOr("APNS_LAUNCH_IMAGE", ""), "launch image file name")

		badge             = flag.String("badge", envOr("APNS_BADGE", ""), "number to display on the app icon, 0 clears it")
		sound             = flag.String("sound", envOr("APNS_SOUND", ""), "sound file name")
		volume            = flag.String("volume", envOr("APNS_VOLUME", ""), "critical alert volume between 0 and 1")
		threadID          = flag.String("thread-id", envOr("APNS_THREAD_ID", ""), "identifier for grouping related notifications")
		category          = flag.String("category", envOr("APNS_CATEGORY", ""), "notification category")
		contentAvailable  = flag.Bool("content-available", envBool("APNS_CONTENT_AVAILABLE"), "background notification flag")
		mutableContent    = flag.Bool("mutable-content", envBool("APNS_MUTABLE_CONTENT"), "notification service app extension flag")
		targetContentID   = flag.String("target-content-id", envOr("APNS_TARGET_CONTENT_ID", ""), "identifier of the window brought forward")
		interruptionLevel = flag.String("interruption-level", envOr("APNS_INTERRUPTION_LEVEL", ""), "importance and delivery timing")
		relevanceScore    = flag.String("relevance-score", envOr("APNS_RELEVANCE_SCORE", ""), "relevance score between 0 and 1")
		userInfo          = flag.String("user-info", envOr("APNS_USER_INFO", ""), "additional payload data as a JSON object")
	)
	flag.Parse()

	if *deviceToken == "" {
		fatalf("the --device-token flag is required")
	}

	certAuth := *clientPEMFile != ""
	tokenAuth := *keyID != "" || *keyPEMFile != "" || *teamID != ""
	switch {
	case certAuth && tokenAuth:
		fatalf("--client-pem-file conflicts with --key-id, --key-pem-file and --team-id")
	case tokenAuth:
		if *keyID == "" || *keyPEMFile == "" || *teamID == "" {
			fatalf("token authentication requires --key-id, --key-pem-file and --team-id")
		}
	case !certAuth:
		fatalf("either --client-pem-file or --key-id, --key-pem-file and --team-id must be provided")
	}

	host, err := apns.ParseHost(*endpoint)
	if err != nil {
		fatalf("invalid --endpoint: %v", err)
	}

	transportCfg := apns.TransportConfig{}
	if *caPEMFile != "" {
		caPEM, err := os.ReadFile(*caPEMFile)
		if err != nil {
			fatalf("reading --ca-pem-file: %v", err)
		}
		transportCfg.RootCAsPEM = caPEM
	}
	if certAuth {
		certPEM, err := os.ReadFile(*clientPEMFile)
		if err != nil {
			fatalf("reading --client-pem-file: %v", err)
		}
		transportCfg.ClientCertificatePEM = certPEM
	}

	httpClient, err := apns.NewHTTPClient(transportCfg)
	if err != nil {
		fatalf("building transport: %v", err)
	}

	clientCfg := apns.ClientConfig{
		Host:       host,
		UserAgent:  *userAgent,
		HTTPClient: httpClient,
	}

	if tokenAuth {
		keyPEM, err := os.ReadFile(*keyPEMFile)
		if err != nil {
			fatalf("reading --key-pem-file: %v", err)
		}
		source, err := token.NewSource(token.Config{
			KeyID:      *keyID,
			TeamID:     *teamID,
			SigningKey: keyPEM,
		})
		if err != nil {
			fatalf("building token source: %v", err)
		}
		clientCfg.TokenSource = source
	}

	n := &apns.Notification{
		DeviceToken:      *deviceToken,
		PushType:         apns.PushType(*pushType),
		Topic:            *topic,
		CollapseID:       *collapseID,
		ThreadID:         *threadID,
		Category:         *category,
		ContentAvailable: *contentAvailable,
		MutableContent:   *mutableContent,
		TargetContentID:  *targetContentID,
	}

	if *id != "" {
		parsed, err := uuid.Parse(*id)
		if err != nil {
			fatalf("invalid --id: %v", err)
		}
		n.ID = parsed
	}

	if *expiration != "" {
		t, err := parseExpiration(*expiration)
		if err != nil {
			fatalf("invalid --expiration: %v", err)
		}
		n.Expiration = t
	}

	if *priority != "" {
		v, err := strconv.Atoi(*priority)
		if err != nil {
			fatalf("invalid --priority %q: %v", *priority, err)
		}
		n.Priority = apns.Priority(v)
	}

	if *title != "" || *subtitle != "" || *body != "" || *launchImage != "" {
		n.Alert = &payload.Alert{
			Title:       *title,
			Subtitle:    *subtitle,
			Body:        *body,
			LaunchImage: *launchImage,
		}
	}

	if *badge != "" {
		v, err := strconv.Atoi(*badge)
		if err != nil {
			fatalf("invalid --badge %q: %v", *badge, err)
		}
		n.Badge = &v
	}

	var level payload.InterruptionLevel
	if *interruptionLevel != "" {
		level, err = payload.ParseInterruptionLevel(*interruptionLevel)
		if err != nil {
			fatalf("invalid --interruption-level: %v", err)
		}
		n.InterruptionLevel = level
	}

	// A critical interruption level marks the sound critical as well,
	// the two are only valid as a pair.
	if *sound != "" {
		s := &payload.Sound{
			Critical: level == payload.InterruptionLevelCritical,
			Name:     *sound,
		}
		if *volume != "" {
			v, err := strconv.ParseFloat(*volume, 64)
			if err != nil {
				fatalf("invalid --volume %q: %v", *volume, err)
			}
			s.Volume = v
		}
		n.Sound = s
	}

	if *relevanceScore != "" {
		v, err := strconv.ParseFloat(*relevanceScore, 64)
		if err != nil {
			fatalf("invalid --relevance-score %q: %v", *relevanceScore, err)
		}
		n.RelevanceScore = &v
	}

	if *userInfo != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(*userInfo), &m); err != nil {
			fatalf("--user-info must be a JSON object: %v", err)
		}
		n.UserInfo = m
	}

	ctx, cancel := context.WithTimeout(context.Background(), apns.DefaultTimeout)
	defer cancel()

	apnsID, err := apns.NewClient(clientCfg).Push(ctx, n)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Println(apnsID)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v := os.Getenv(key)
	return v == "true" || v == "1"
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "apnsctl: "+format+"\n", args...)
	os.Exit(1)
}

// parseExpiration accepts an RFC 3339 timestamp or a duration offset
// from the current time.
func parseExpiration(arg string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, arg); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither an RFC 3339 timestamp nor a duration", arg)
	}
	return time.Now().Add(d), nil
}
