package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/apnskit/apnskit/pkg/apns"
	"github.com/apnskit/apnskit/pkg/apns/payload"
)

// Predefined errors for resilient dispatch.
var (
	// ErrCircuitOpen is returned when the gateway circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Client sends one notification to the gateway. *apns.Client satisfies it.
type Client interface {
	Push(ctx context.Context, n *apns.Notification) (uuid.UUID, error)
}

// Config holds configuration for the resilient pusher.
type Config struct {
	// Name identifies this pusher for circuit breaker naming.
	Name string

	// MaxRetries is the number of retry attempts after the first try.
	// Default: 3
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// Breaker is the circuit breaker configuration. If nil,
	// DefaultBreakerConfig applies.
	Breaker *BreakerConfig
}

// DefaultConfig returns sensible defaults for the resilient pusher.
func DefaultConfig(name string) Config {
	breaker := DefaultBreakerConfig(name)
	return Config{
		Name:            name,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Breaker:         &breaker,
	}
}

// Pusher delivers notifications through a circuit breaker with
// exponential-backoff retries for transient failures.
type Pusher struct {
	client  Client
	breaker *gobreaker.CircuitBreaker[uuid.UUID]
	config  Config
}

// NewPusher wraps client with the resilience policy in cfg.
func NewPusher(client Client, cfg Config) *Pusher {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	var breaker *gobreaker.CircuitBreaker[uuid.UUID]
	if cfg.Breaker != nil {
		breaker = newBreaker[uuid.UUID](*cfg.Breaker)
	} else {
		breaker = newBreaker[uuid.UUID](DefaultBreakerConfig(cfg.Name))
	}

	return &Pusher{
		client:  client,
		breaker: breaker,
		config:  cfg,
	}
}

// Push sends the notification, retrying transient failures with
// exponential backoff. Permanent failures return immediately: validation
// errors, non-retryable gateway rejections, and an open circuit.
func (p *Pusher) Push(ctx context.Context, n *apns.Notification) (uuid.UUID, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.config.InitialInterval
	bo.MaxInterval = p.config.MaxInterval
	bo.MaxElapsedTime = 0 // retries are bounded by WithMaxRetries

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, p.config.MaxRetries), ctx)

	var id uuid.UUID
	operation := func() error {
		result, err := p.breaker.Execute(func() (uuid.UUID, error) {
			return p.client.Push(ctx, n)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if !Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		id = result
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// State returns the current circuit breaker state.
func (p *Pusher) State() gobreaker.State {
	return p.breaker.State()
}

// Counts returns the current circuit breaker counts.
func (p *Pusher) Counts() gobreaker.Counts {
	return p.breaker.Counts()
}

// validationErrs are the local request-construction failures. They are
// deterministic for a given notification.
var validationErrs = []error{
	apns.ErrMissingDeviceToken,
	apns.ErrInvalidPushType,
	apns.ErrInvalidPriority,
	apns.ErrInvalidHeader,
	apns.ErrInvalidCollapseID,
	apns.ErrInvalidBadge,
	apns.ErrInvalidRelevanceScore,
	apns.ErrInvalidInterruptionLevel,
	apns.ErrCriticalSoundMismatch,
	payload.ErrReservedKey,
}

// Retryable reports whether another attempt can change the outcome.
// Gateway rejections answer for themselves, local validation failures
// never will, and anything else is assumed to be transport trouble.
func Retryable(err error) bool {
	var gatewayErr *apns.Error
	if errors.As(err, &gatewayErr) {
		return gatewayErr.IsRetryable()
	}

	var tooLarge *apns.PayloadTooLargeError
	if errors.As(err, &tooLarge) {
		return false
	}
	for _, validation := range validationErrs {
		if errors.Is(err, validation) {
			return false
		}
	}
	return true
}
