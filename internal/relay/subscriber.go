package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/apnskit/apnskit/internal/resilience"
	"github.com/apnskit/apnskit/pkg/apns"
)

// Subscriber flow control defaults.
const (
	defaultMaxOutstanding = 10
	defaultMaxExtension   = 10 * time.Minute
)

// Subscriber consumes push jobs from a Pub/Sub subscription.
type Subscriber struct {
	client       *pubsub.Client
	subscriber   *pubsub.Subscriber
	subscription string
	dispatcher   *Dispatcher
	logger       zerolog.Logger
}

// SubscriberConfig holds configuration for the subscriber.
type SubscriberConfig struct {
	ProjectID      string
	Subscription   string
	MaxOutstanding int
	MaxExtension   time.Duration
	Dispatcher     *Dispatcher
	Logger         zerolog.Logger
}

// NewSubscriber creates a subscriber bound to the configured
// subscription.
func NewSubscriber(ctx context.Context, cfg SubscriberConfig) (*Subscriber, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	if cfg.MaxOutstanding == 0 {
		cfg.MaxOutstanding = defaultMaxOutstanding
	}
	if cfg.MaxExtension == 0 {
		cfg.MaxExtension = defaultMaxExtension
	}

	subscriber := client.Subscriber(cfg.Subscription)
	subscriber.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstanding
	subscriber.ReceiveSettings.MaxExtension = cfg.MaxExtension

	return &Subscriber{
		client:       client,
		subscriber:   subscriber,
		subscription: cfg.Subscription,
		dispatcher:   cfg.Dispatcher,
		logger:       cfg.Logger,
	}, nil
}

// Start begins processing messages. It blocks until the context is
// canceled or the subscription fails.
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info().
		Str("subscription", s.subscription).
		Msg("starting push job subscriber")

	return s.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (s *Subscriber) Close() error {
	return s.client.Close()
}

func (s *Subscriber) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := s.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received push job")

	var job PushJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		// A body that does not parse will not parse on redelivery either.
		logger.Error().Err(err).Msg("failed to parse push job")
		msg.Ack()
		return
	}

	id, err := s.dispatcher.Dispatch(ctx, job)
	if err != nil {
		if resilience.Retryable(err) {
			logger.Error().Err(err).Msg("push failed, message will be redelivered")
			msg.Nack()
			return
		}

		evt := logger.Warn().Err(err).Str("topic", job.Topic)
		var gatewayErr *apns.Error
		if errors.As(err, &gatewayErr) {
			evt = evt.Str("reason", string(gatewayErr.Reason))
			if !gatewayErr.Timestamp.IsZero() {
				evt = evt.Time("unregistered_at", gatewayErr.Timestamp)
			}
		}
		evt.Msg("push rejected, dropping job")
		msg.Ack()
		return
	}

	logger.Info().
		Str("apns_id", id.String()).
		Str("topic", job.Topic).
		Dur("duration", time.Since(startTime)).
		Msg("push delivered")

	msg.Ack()
}
