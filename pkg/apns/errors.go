package apns

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors reported while a request is being built, before anything
// reaches the network.
var (
	ErrMissingDeviceToken       = errors.New("device token is required")
	ErrInvalidPushType          = errors.New("unknown push type")
	ErrInvalidPriority          = errors.New("priority must be 10, 5, or 1")
	ErrInvalidHeader            = errors.New("header value contains illegal characters")
	ErrInvalidCollapseID        = errors.New("collapse id exceeds 64 bytes")
	ErrInvalidBadge             = errors.New("badge count cannot be negative")
	ErrInvalidRelevanceScore    = errors.New("relevance score must be between 0 and 1")
	ErrInvalidInterruptionLevel = errors.New("unknown interruption level")
	ErrCriticalSoundMismatch    = errors.New("critical interruption level requires a critical sound, and vice versa")
	ErrInvalidEndpoint          = errors.New("invalid endpoint")
)

// PayloadTooLargeError reports a JSON body over the ceiling for its push
// type. The request is never sent.
type PayloadTooLargeError struct {
	Size  int
	Limit int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload too large: %d bytes exceeds the %d byte limit", e.Size, e.Limit)
}

// Error is a rejection returned by the gateway.
type Error struct {
	// Reason is the error string from the response body. Empty when the
	// response carried no parseable reason.
	Reason Reason

	// Status is the HTTP status of the response.
	Status int

	// ApnsID identifies the rejected notification.
	ApnsID uuid.UUID

	// Timestamp accompanies Unregistered and ExpiredToken and records
	// when the gateway last confirmed the device token was invalid for
	// the topic.
	Timestamp time.Time
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("apns: request failed with status %d", e.Status)
	}
	if e.Timestamp.IsZero() {
		return fmt.Sprintf("apns: %s (status %d)", e.Reason, e.Status)
	}
	return fmt.Sprintf("apns: %s (status %d, as of %s)", e.Reason, e.Status, e.Timestamp.Format(time.RFC3339))
}

// IsRetryable reports whether resending the identical request can succeed.
// Server trouble and throttling are retryable, as are the two conditions a
// retry repairs on its own: an idle-connection timeout and an expired
// provider token, which the token source replaces on the next fetch.
func (e *Error) IsRetryable() bool {
	switch e.Reason {
	case ReasonIdleTimeout, ReasonExpiredProviderToken:
		return true
	}
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}
