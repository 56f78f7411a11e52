// Package main provides the entrypoint for the APNs relay daemon.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/apnskit/apnskit/internal/ops"
	"github.com/apnskit/apnskit/internal/relay"
	"github.com/apnskit/apnskit/internal/resilience"
	"github.com/apnskit/apnskit/internal/telemetry"
	"github.com/apnskit/apnskit/pkg/apns"
	"github.com/apnskit/apnskit/pkg/apns/token"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "apnsrelay"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting APNs relay")

	cfg, err := relay.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTELEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := apns.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	host, err := apns.ParseHost(cfg.Host)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid gateway host")
	}

	// Build the gateway client with the configured credentials.
	clientCfg := apns.ClientConfig{
		Host:    host,
		Metrics: metrics,
		Logger:  log,
	}

	if cfg.CertFile != "" {
		certPEM, err := os.ReadFile(cfg.CertFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read client certificate")
		}
		httpClient, err := apns.NewHTTPClient(apns.TransportConfig{
			ClientCertificatePEM: certPEM,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build transport")
		}
		clientCfg.HTTPClient = httpClient
		log.Info().Str("cert_file", cfg.CertFile).Msg("using certificate authentication")
	} else {
		keyPEM, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read signing key")
		}
		source, err := token.NewSource(token.Config{
			KeyID:      cfg.KeyID,
			TeamID:     cfg.TeamID,
			SigningKey: keyPEM,
			OnRefresh:  metrics.RecordTokenRefresh,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build token source")
		}
		clientCfg.TokenSource = source
		log.Info().Str("key_id", cfg.KeyID).Msg("using provider token authentication")
	}

	client := apns.NewClient(clientCfg)
	pusher := resilience.NewPusher(client, resilience.DefaultConfig("apns-gateway"))
	dispatcher := relay.NewDispatcher(pusher)

	subscriber, err := relay.NewSubscriber(ctx, relay.SubscriberConfig{
		ProjectID:      cfg.ProjectID,
		Subscription:   cfg.Subscription,
		MaxOutstanding: cfg.MaxOutstanding,
		MaxExtension:   cfg.MaxExtension,
		Dispatcher:     dispatcher,
		Logger:         log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create subscriber")
	}
	defer func() {
		if closeErr := subscriber.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close subscriber")
		}
	}()

	// Ops server: readiness follows the gateway circuit breaker.
	router := ops.NewRouter(ops.Config{
		Logger:    log,
		Version:   Version,
		BuildTime: BuildTime,
		Checks: []ops.Check{
			{
				Name: "apns-gateway",
				Probe: func() error {
					if pusher.State() == gobreaker.StateOpen {
						return errors.New("circuit breaker is open")
					}
					return nil
				},
			},
		},
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("ops server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ops server error")
		}
	}()

	receiveCtx, stopReceiving := context.WithCancel(ctx)
	defer stopReceiving()

	subscriberErr := make(chan error, 1)
	go func() {
		subscriberErr <- subscriber.Start(receiveCtx)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-subscriberErr:
		if err != nil {
			log.Fatal().Err(err).Msg("subscriber failed")
		}
		log.Info().Msg("subscriber stopped")
	}

	// Stop pulling new messages, then drain the ops server.
	stopReceiving()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("relay stopped")
}
