// Package apns prepares push notification requests for the Apple Push
// Notification service and delivers them over HTTP/2.
//
// The request encoder and the payload codec are pure: EncodeRequest turns a
// Notification into validated wire-ready headers and a size-bounded JSON
// body without touching the network. Client composes the encoder with a
// provider-token source and an HTTP/2 transport. Gateway rejections surface
// as *Error values carrying the documented Reason taxonomy.
package apns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/apnskit/apnskit/pkg/apns/token"
)

// Version of the library, reported in the default User-Agent.
const Version = "0.1.0"

const defaultUserAgent = "apnskit/" + Version

// HTTPDoer abstracts the HTTP client for testability.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the APNs client.
type ClientConfig struct {
	// Host is the gateway base URL. Defaults to HostProduction.
	Host string

	// UserAgent overrides the default request User-Agent.
	UserAgent string

	// HTTPClient is the transport used for requests. Defaults to an
	// HTTP/2 client from NewHTTPClient. Certificate-based authentication
	// is configured here, via TransportConfig.
	HTTPClient HTTPDoer

	// TokenSource signs the bearer credential for token-based
	// authentication. Leave nil when the transport carries a client
	// certificate.
	TokenSource *token.Source

	// Metrics, when set, records push counts and latencies.
	Metrics *Metrics

	// Logger for debug logging. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// Client sends notifications to the APNs gateway.
type Client struct {
	host       string
	userAgent  string
	httpClient HTTPDoer
	tokens     *token.Source
	metrics    *Metrics
	logger     zerolog.Logger
}

// NewClient creates a client with the given configuration, applying
// defaults for unset fields.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Host == "" {
		cfg.Host = HostProduction
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.HTTPClient == nil {
		// The zero TransportConfig has no certificate material to
		// reject, so the error is unreachable.
		httpClient, _ := NewHTTPClient(TransportConfig{})
		cfg.HTTPClient = httpClient
	}

	return &Client{
		host:       cfg.Host,
		userAgent:  cfg.UserAgent,
		httpClient: cfg.HTTPClient,
		tokens:     cfg.TokenSource,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Push sends one notification and returns the apns-id the gateway assigned
// to it. Local validation failures return before anything is sent; gateway
// rejections come back as *Error. The client never retries.
func (c *Client) Push(ctx context.Context, n *Notification) (uuid.UUID, error) {
	headers, body, err := EncodeRequest(n)
	if err != nil {
		return uuid.Nil, err
	}
	pushType := PushType(headers.Get(headerPushType))

	url := c.host + "/3/device/" + n.DeviceToken
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = headers
	req.Header.Set("content-type", "application/json")
	req.Header.Set("user-agent", c.userAgent)

	if c.tokens != nil {
		bearer, err := c.tokens.Token()
		if err != nil {
			return uuid.Nil, fmt.Errorf("fetching provider token: %w", err)
		}
		req.Header.Set("authorization", "bearer "+bearer)
	}

	c.logger.Debug().
		Str("push_type", string(pushType)).
		Str("topic", n.Topic).
		Int("payload_bytes", len(body)).
		Msg("sending push request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordPush(pushType, duration, err)
		return uuid.Nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	// The gateway echoes the request's apns-id, or assigns one.
	apnsID := uuid.Nil
	if id, err := uuid.Parse(resp.Header.Get(headerID)); err == nil {
		apnsID = id
	}

	if resp.StatusCode == http.StatusOK {
		c.metrics.RecordPush(pushType, duration, nil)
		c.logger.Debug().
			Str("apns_id", apnsID.String()).
			Msg("push accepted")
		return apnsID, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apnsID, fmt.Errorf("reading response body: %w", err)
	}
	pushErr := handleErrorResponse(resp.StatusCode, apnsID, respBody)
	c.metrics.RecordPush(pushType, duration, pushErr)
	c.logger.Debug().
		Str("apns_id", apnsID.String()).
		Int("status", pushErr.Status).
		Str("reason", string(pushErr.Reason)).
		Msg("push rejected")
	return apnsID, pushErr
}

// errorResponse is the JSON body of a failed request. The timestamp, in
// milliseconds since the epoch, accompanies status 410.
type errorResponse struct {
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// handleErrorResponse maps a non-200 gateway response to an *Error. A body
// that does not parse as a reason yields a status-only error.
func handleErrorResponse(status int, apnsID uuid.UUID, body []byte) *Error {
	gatewayErr := &Error{Status: status, ApnsID: apnsID}

	var wire errorResponse
	if err := json.Unmarshal(body, &wire); err == nil && wire.Reason != "" {
		gatewayErr.Reason = Reason(wire.Reason)
		if wire.Timestamp != 0 {
			gatewayErr.Timestamp = time.UnixMilli(wire.Timestamp)
		}
	}
	return gatewayErr
}
