package apns

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/apnskit/apnskit"

// Metrics records client instrumentation. A nil *Metrics disables
// recording, so callers never need to guard.
type Metrics struct {
	pushes         metric.Int64Counter
	pushDuration   metric.Float64Histogram
	tokenRefreshes metric.Int64Counter
}

// NewMetrics creates the client instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	pushes, err := meter.Int64Counter(
		"apns.client.pushes",
		metric.WithDescription("Number of push requests by push type and outcome"),
	)
	if err != nil {
		return nil, err
	}

	pushDuration, err := meter.Float64Histogram(
		"apns.client.push.duration",
		metric.WithDescription("Push request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	tokenRefreshes, err := meter.Int64Counter(
		"apns.token.refreshes",
		metric.WithDescription("Number of provider token regenerations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		pushes:         pushes,
		pushDuration:   pushDuration,
		tokenRefreshes: tokenRefreshes,
	}, nil
}

// RecordPush records the outcome and duration of one push attempt.
func (m *Metrics) RecordPush(pushType PushType, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("push_type", string(pushType)),
		attribute.Bool("error", err != nil),
	}
	var gatewayErr *Error
	if errors.As(err, &gatewayErr) && gatewayErr.Reason != "" {
		attrs = append(attrs, attribute.String("reason", string(gatewayErr.Reason)))
	}

	m.pushes.Add(context.TODO(), 1, metric.WithAttributes(attrs...))
	m.pushDuration.Record(context.TODO(), duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordTokenRefresh counts one provider token regeneration. Pass it as
// the token source's OnRefresh hook.
func (m *Metrics) RecordTokenRefresh() {
	if m == nil {
		return
	}
	m.tokenRefreshes.Add(context.TODO(), 1)
}
