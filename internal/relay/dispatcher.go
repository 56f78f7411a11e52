package relay

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/apnskit/apnskit/internal/resilience"
)

const tracerName = "github.com/apnskit/apnskit/internal/relay"

// Dispatcher expands push jobs and sends them through the resilient
// pusher, creating one consumer span per job.
type Dispatcher struct {
	pusher *resilience.Pusher
	tracer trace.Tracer
}

// NewDispatcher creates a dispatcher around the given pusher.
func NewDispatcher(pusher *resilience.Pusher) *Dispatcher {
	return &Dispatcher{
		pusher: pusher,
		tracer: otel.Tracer(tracerName),
	}
}

// Dispatch sends one job and returns the gateway-assigned id.
func (d *Dispatcher) Dispatch(ctx context.Context, job PushJob) (uuid.UUID, error) {
	ctx, span := d.tracer.Start(ctx, "relay.dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("apns.topic", job.Topic),
			attribute.String("apns.push_type", job.PushType),
		),
	)
	defer span.End()

	id, err := d.pusher.Push(ctx, job.Notification())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return uuid.Nil, err
	}

	span.SetAttributes(attribute.String("apns.id", id.String()))
	return id, nil
}
